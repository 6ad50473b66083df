package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/jwalitptl/meditracker-api/internal/model"
	"github.com/jwalitptl/meditracker-api/internal/repository"
)

type prescriptionRepository struct {
	BaseRepository
}

func NewPrescriptionRepository(base BaseRepository) repository.PrescriptionRepository {
	return &prescriptionRepository{base}
}

type prescriptionRow struct {
	ID           int64           `db:"id"`
	PatientID    int64           `db:"patient_id"`
	MedicineID   int64           `db:"medicine_id"`
	DosageAmount decimal.Decimal `db:"dosage_amount"`
	DosageUnit   string          `db:"dosage_unit"`
	StartDate    model.Date      `db:"start_date"`
	EndDate      *model.Date     `db:"end_date"`
	TimeZone     string          `db:"time_zone"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

type scheduleRow struct {
	PrescriptionID int64           `db:"prescription_id"`
	DayOfWeek      string          `db:"day_of_week"`
	TimeOfDay      model.TimeOfDay `db:"time_of_day"`
}

const prescriptionColumns = `id, patient_id, medicine_id, dosage_amount, dosage_unit,
	start_date, end_date, time_zone, created_at, updated_at`

func (row *prescriptionRow) toModel(schedule []scheduleRow) (*model.Prescription, error) {
	unit, err := model.ParseDosageUnit(row.DosageUnit)
	if err != nil {
		return nil, fmt.Errorf("prescription %d: %w", row.ID, err)
	}
	dosage, err := model.NewDosage(row.DosageAmount, unit)
	if err != nil {
		return nil, fmt.Errorf("prescription %d: %w", row.ID, err)
	}

	entries := make([]model.ScheduleEntry, 0, len(schedule))
	for _, s := range schedule {
		day, err := model.ParseDayOfWeek(s.DayOfWeek)
		if err != nil {
			return nil, fmt.Errorf("prescription %d: %w", row.ID, err)
		}
		entries = append(entries, model.ScheduleEntry{Day: day, Time: s.TimeOfDay})
	}
	set, _ := model.NewSchedule(entries...)

	return &model.Prescription{
		ID:         row.ID,
		PatientID:  row.PatientID,
		MedicineID: row.MedicineID,
		Dosage:     dosage,
		StartDate:  row.StartDate,
		EndDate:    row.EndDate,
		TimeZone:   row.TimeZone,
		Schedule:   set,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}, nil
}

func (r *prescriptionRepository) Create(ctx context.Context, p *model.Prescription) error {
	return r.WithinTx(ctx, func(ctx context.Context) error {
		query := `
			INSERT INTO prescriptions (
				patient_id, medicine_id, dosage_amount, dosage_unit,
				start_date, end_date, time_zone, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id
		`
		now := time.Now().UTC()
		p.CreatedAt, p.UpdatedAt = now, now

		row := r.conn(ctx).QueryRowxContext(ctx, query,
			p.PatientID,
			p.MedicineID,
			p.Dosage.Amount(),
			string(p.Dosage.Unit()),
			p.StartDate,
			p.EndDate,
			p.TimeZone,
			p.CreatedAt,
			p.UpdatedAt,
		)
		if err := row.Scan(&p.ID); err != nil {
			return translate(err, "create prescription")
		}
		return r.insertSchedule(ctx, p.ID, p.Schedule)
	})
}

// insertSchedule writes the whole set in one statement; the unique index on
// (prescription_id, day_of_week, time_of_day) backs the set semantics.
func (r *prescriptionRepository) insertSchedule(ctx context.Context, prescriptionID int64, schedule model.Schedule) error {
	entries := schedule.Entries()
	days := make([]string, len(entries))
	times := make([]string, len(entries))
	for i, e := range entries {
		days[i] = e.Day.String()
		times[i] = e.Time.String()
	}

	query := `
		INSERT INTO prescription_schedule (prescription_id, day_of_week, time_of_day)
		SELECT $1, d, t::time
		FROM unnest($2::text[], $3::text[]) AS s(d, t)
		ON CONFLICT (prescription_id, day_of_week, time_of_day) DO NOTHING
	`
	if _, err := r.conn(ctx).ExecContext(ctx, query, prescriptionID, pq.Array(days), pq.Array(times)); err != nil {
		return translate(err, "insert prescription schedule")
	}
	return nil
}

func (r *prescriptionRepository) GetByID(ctx context.Context, id int64) (*model.Prescription, error) {
	var row prescriptionRow
	query := `SELECT ` + prescriptionColumns + ` FROM prescriptions WHERE id = $1`
	if err := sqlxGet(ctx, r.conn(ctx), &row, query, id); err != nil {
		return nil, translate(err, "get prescription")
	}
	schedules, err := r.loadSchedules(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	return row.toModel(schedules[id])
}

func (r *prescriptionRepository) ListByPatient(ctx context.Context, patientID int64) ([]*model.Prescription, error) {
	var rows []prescriptionRow
	query := `SELECT ` + prescriptionColumns + ` FROM prescriptions WHERE patient_id = $1 ORDER BY id`
	if err := sqlxSelect(ctx, r.conn(ctx), &rows, query, patientID); err != nil {
		return nil, translate(err, "list prescriptions")
	}
	if len(rows) == 0 {
		return []*model.Prescription{}, nil
	}

	ids := make([]int64, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}
	schedules, err := r.loadSchedules(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]*model.Prescription, 0, len(rows))
	for i := range rows {
		p, err := rows[i].toModel(schedules[rows[i].ID])
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *prescriptionRepository) loadSchedules(ctx context.Context, ids []int64) (map[int64][]scheduleRow, error) {
	var rows []scheduleRow
	query := `
		SELECT prescription_id, day_of_week, time_of_day
		FROM prescription_schedule
		WHERE prescription_id = ANY($1)
	`
	if err := sqlxSelect(ctx, r.conn(ctx), &rows, query, pq.Array(ids)); err != nil {
		return nil, translate(err, "load prescription schedule")
	}
	out := make(map[int64][]scheduleRow, len(ids))
	for _, row := range rows {
		out[row.PrescriptionID] = append(out[row.PrescriptionID], row)
	}
	return out, nil
}

func (r *prescriptionRepository) Update(ctx context.Context, p *model.Prescription) error {
	return r.WithinTx(ctx, func(ctx context.Context) error {
		query := `
			UPDATE prescriptions
			SET dosage_amount = $1, dosage_unit = $2, start_date = $3, end_date = $4,
			    time_zone = $5, updated_at = $6
			WHERE id = $7
		`
		p.UpdatedAt = time.Now().UTC()
		res, err := r.conn(ctx).ExecContext(ctx, query,
			p.Dosage.Amount(),
			string(p.Dosage.Unit()),
			p.StartDate,
			p.EndDate,
			p.TimeZone,
			p.UpdatedAt,
			p.ID,
		)
		if err != nil {
			return translate(err, "update prescription")
		}
		if err := expectOne(res, "update prescription"); err != nil {
			return err
		}
		if _, err := r.conn(ctx).ExecContext(ctx, `DELETE FROM prescription_schedule WHERE prescription_id = $1`, p.ID); err != nil {
			return translate(err, "clear prescription schedule")
		}
		return r.insertSchedule(ctx, p.ID, p.Schedule)
	})
}
