package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/meditracker-api/internal/model"
	"github.com/jwalitptl/meditracker-api/internal/repository"
)

func newMock(t *testing.T) (*repository.Repositories, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepositories(sqlx.NewDb(db, "postgres")), mock
}

func TestReplaceForUserCommits(t *testing.T) {
	repos, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM user_roles WHERE user_id = \$1`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO user_roles`).
		WithArgs(int64(7), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, repos.Roles.ReplaceForUser(context.Background(), 7, []int64{1, 2}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceForUserRollsBack(t *testing.T) {
	repos, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM user_roles`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO user_roles`).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repos.Roles.ReplaceForUser(context.Background(), 7, []int64{1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert user roles")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTxSharesTransaction(t *testing.T) {
	repos, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM user_roles`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO user_roles`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO outbox_events`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repos.Tx.WithinTx(context.Background(), func(ctx context.Context) error {
		if err := repos.Roles.ReplaceForUser(ctx, 3, []int64{1}); err != nil {
			return err
		}
		evt, err := model.NewOutboxEvent(model.EventUserRolesUpdated, map[string]int64{"user_id": 3})
		if err != nil {
			return err
		}
		return repos.Outbox.Create(ctx, evt)
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	repos, mock := newMock(t)
	boom := errors.New("reconcile failed")

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM user_roles`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repos.Tx.WithinTx(context.Background(), func(ctx context.Context) error {
		if err := repos.Roles.ReplaceForUser(ctx, 3, nil); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRoleByNameNotFound(t *testing.T) {
	repos, mock := newMock(t)

	mock.ExpectQuery(`SELECT id, name, description FROM roles WHERE name = \$1`).
		WithArgs(model.RoleName("NURSE")).
		WillReturnError(sql.ErrNoRows)

	_, err := repos.Roles.GetByName(context.Background(), "NURSE")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListForUser(t *testing.T) {
	repos, mock := newMock(t)

	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM users WHERE id = \$1\)`).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT r.name\s+FROM roles r`).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("DOCTOR").AddRow("PATIENT"))

	roles, err := repos.Roles.ListForUser(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, []model.RoleName{model.RoleDoctor, model.RolePatient}, roles)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePatientDuplicate(t *testing.T) {
	repos, mock := newMock(t)

	mock.ExpectQuery(`INSERT INTO patients`).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := repos.Patients.Create(context.Background(), &model.Patient{UserID: 1, Active: true})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetPatientActive(t *testing.T) {
	repos, mock := newMock(t)

	mock.ExpectExec(`UPDATE patients`).
		WithArgs(false, sqlmock.AnyArg(), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repos.Patients.SetActive(context.Background(), 9, false))

	mock.ExpectExec(`UPDATE patients`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repos.Patients.SetActive(context.Background(), 10, true), repository.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPrescriptionLoadsSchedule(t *testing.T) {
	repos, mock := newMock(t)
	created := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, patient_id, medicine_id, dosage_amount`).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "patient_id", "medicine_id", "dosage_amount", "dosage_unit",
			"start_date", "end_date", "time_zone", "created_at", "updated_at",
		}).AddRow(int64(11), int64(2), int64(3), "500.00", "MG",
			time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), nil, "Europe/Berlin", created, created))
	mock.ExpectQuery(`SELECT prescription_id, day_of_week, time_of_day`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"prescription_id", "day_of_week", "time_of_day"}).
			AddRow(int64(11), "THURSDAY", "20:00:00").
			AddRow(int64(11), "MONDAY", "08:00:00"))

	p, err := repos.Prescriptions.GetByID(context.Background(), 11)
	require.NoError(t, err)
	assert.Equal(t, "500.00 MG", p.Dosage.String())
	assert.Equal(t, "2024-01-01", p.StartDate.String())
	assert.True(t, p.IsOngoing())
	assert.Equal(t, "Europe/Berlin", p.TimeZone)

	var entries []string
	for _, e := range p.Schedule.Entries() {
		entries = append(entries, e.String())
	}
	assert.Equal(t, []string{"MONDAY 08:00", "THURSDAY 20:00"}, entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePrescriptionWritesScheduleInTx(t *testing.T) {
	repos, mock := newMock(t)
	dosage, err := model.ParseDosage("1", "TABLET")
	require.NoError(t, err)
	schedule, _ := model.NewSchedule(model.ScheduleEntry{Day: model.Monday, Time: 480})

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO prescriptions`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(21)))
	mock.ExpectExec(`INSERT INTO prescription_schedule`).
		WithArgs(int64(21), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	p := &model.Prescription{
		PatientID:  1,
		MedicineID: 2,
		Dosage:     dosage,
		StartDate:  model.NewDate(2024, time.March, 1),
		TimeZone:   "UTC",
		Schedule:   schedule,
	}
	require.NoError(t, repos.Prescriptions.Create(context.Background(), p))
	assert.Equal(t, int64(21), p.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxUpdateStatusMissing(t *testing.T) {
	repos, mock := newMock(t)
	id := uuid.New()

	mock.ExpectExec(`UPDATE outbox_events`).
		WithArgs(model.OutboxStatusProcessed, nil, id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repos.Outbox.UpdateStatus(context.Background(), id, model.OutboxStatusProcessed, nil)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxPendingQuery(t *testing.T) {
	repos, mock := newMock(t)
	id := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(`FOR UPDATE SKIP LOCKED`).
		WithArgs(model.OutboxStatusPending, model.OutboxStatusFailed, model.OutboxMaxAttempts, 25).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "event_type", "payload", "status", "error_message", "retry_count",
			"created_at", "processed_at", "updated_at",
		}).AddRow(id.String(), model.EventPrescriptionCreated, []byte(`{"prescription_id":1}`),
			"PENDING", nil, 0, now, nil, now))

	events, err := repos.Outbox.GetPendingEventsWithLock(context.Background(), 25)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, id, events[0].ID)
	assert.Equal(t, model.OutboxStatusPending, events[0].Status)
	assert.JSONEq(t, `{"prescription_id":1}`, string(events[0].Payload))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func medicineRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "generic_name", "manufacturer", "dosage_form", "strength", "description",
		"side_effects", "contraindications", "active", "created_at", "updated_at",
	})
}

func TestPrescriptionChecksLockRowsForShare(t *testing.T) {
	repos, mock := newMock(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM patients WHERE user_id = \$1 FOR SHARE`).
		WithArgs(int64(5)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`FROM medicines WHERE id = \$1 AND active FOR SHARE`).
		WithArgs(int64(8)).
		WillReturnRows(medicineRows().AddRow(8, "Aspirin", nil, nil, nil, nil, nil, nil, nil, true, now, now))
	mock.ExpectCommit()

	err := repos.Tx.WithinTx(context.Background(), func(ctx context.Context) error {
		_, err := repos.Patients.GetByUserIDForShare(ctx, 5)
		assert.ErrorIs(t, err, repository.ErrNotFound)

		m, err := repos.Medicines.GetActiveByIDForShare(ctx, 8)
		require.NoError(t, err)
		assert.Equal(t, "Aspirin", m.Name)
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindMedicineByNameAndManufacturer(t *testing.T) {
	repos, mock := newMock(t)
	now := time.Now().UTC()
	acme := "Acme"

	mock.ExpectQuery(`WHERE lower\(name\) = lower\(\$1\) AND lower\(COALESCE\(manufacturer, ''\)\) = lower\(COALESCE\(\$2::text, ''\)\)`).
		WithArgs("ASPIRIN", sqlmock.AnyArg()).
		WillReturnRows(medicineRows().AddRow(3, "Aspirin", nil, "Acme", nil, nil, nil, nil, nil, true, now, now))

	m, err := repos.Medicines.FindByNameAndManufacturer(context.Background(), "ASPIRIN", &acme)
	require.NoError(t, err)
	assert.Equal(t, int64(3), m.ID)
	require.NotNil(t, m.Manufacturer)
	assert.Equal(t, "Acme", *m.Manufacturer)

	mock.ExpectQuery(`FROM medicines`).WillReturnError(sql.ErrNoRows)
	_, err = repos.Medicines.FindByNameAndManufacturer(context.Background(), "Unknown", nil)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMedicine(t *testing.T) {
	repos, mock := newMock(t)
	generic := "acetylsalicylic acid"

	mock.ExpectExec(`UPDATE medicines`).
		WithArgs("Aspirin", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repos.Medicines.Update(context.Background(),
		&model.Medicine{Base: model.Base{ID: 3}, Name: "Aspirin", GenericName: &generic}))

	mock.ExpectExec(`UPDATE medicines`).WillReturnResult(sqlmock.NewResult(0, 0))
	err := repos.Medicines.Update(context.Background(), &model.Medicine{Base: model.Base{ID: 4}, Name: "Gone"})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
