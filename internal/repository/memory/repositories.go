package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/meditracker-api/internal/model"
	"github.com/jwalitptl/meditracker-api/internal/repository"
)

type userRepository struct{ s *Store }

func NewUserRepository(s *Store) repository.UserRepository { return &userRepository{s: s} }

func (d *state) roleNames(userID int64) []model.RoleName {
	set := model.NewRoleSet()
	for id := range d.userRoles[userID] {
		set[d.roles[id].Name] = struct{}{}
	}
	return set.Names()
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.s.write(ctx, func(d *state) error {
		for _, u := range d.users {
			if strings.EqualFold(u.Email, user.Email) {
				return repository.ErrDuplicate
			}
		}
		user.ID = d.id()
		user.Touch(r.s.now())
		stored := *user
		stored.Roles = nil
		d.users[user.ID] = stored
		d.userRoles[user.ID] = make(map[int64]struct{})
		user.Roles = nil
		return nil
	})
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var out *model.User
	err := r.s.read(ctx, func(d *state) error {
		u, ok := d.users[id]
		if !ok {
			return repository.ErrNotFound
		}
		u.Roles = d.roleNames(id)
		out = &u
		return nil
	})
	return out, err
}

func (r *userRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.User, error) {
	var out *model.User
	err := r.s.readLocked(ctx, func(d *state) error {
		u, ok := d.users[id]
		if !ok {
			return repository.ErrNotFound
		}
		u.Roles = d.roleNames(id)
		out = &u
		return nil
	})
	return out, err
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var out *model.User
	err := r.s.read(ctx, func(d *state) error {
		for id, u := range d.users {
			if strings.EqualFold(u.Email, email) {
				u.Roles = d.roleNames(id)
				out = &u
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r *userRepository) List(ctx context.Context) ([]*model.User, error) {
	var out []*model.User
	err := r.s.read(ctx, func(d *state) error {
		for id, u := range d.users {
			u.Roles = d.roleNames(id)
			u := u
			out = append(out, &u)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

type roleRepository struct{ s *Store }

func NewRoleRepository(s *Store) repository.RoleRepository { return &roleRepository{s: s} }

func (r *roleRepository) GetByName(ctx context.Context, name model.RoleName) (*model.Role, error) {
	var out *model.Role
	err := r.s.read(ctx, func(d *state) error {
		for _, role := range d.roles {
			if role.Name == name {
				role := role
				out = &role
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r *roleRepository) List(ctx context.Context) ([]*model.Role, error) {
	var out []*model.Role
	err := r.s.read(ctx, func(d *state) error {
		for _, role := range d.roles {
			role := role
			out = append(out, &role)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r *roleRepository) ListForUser(ctx context.Context, userID int64) ([]model.RoleName, error) {
	var out []model.RoleName
	err := r.s.read(ctx, func(d *state) error {
		if _, ok := d.users[userID]; !ok {
			return repository.ErrNotFound
		}
		out = d.roleNames(userID)
		return nil
	})
	return out, err
}

func (r *roleRepository) ReplaceForUser(ctx context.Context, userID int64, roleIDs []int64) error {
	return r.s.write(ctx, func(d *state) error {
		if _, ok := d.users[userID]; !ok {
			return repository.ErrNotFound
		}
		set := make(map[int64]struct{}, len(roleIDs))
		for _, id := range roleIDs {
			if _, ok := d.roles[id]; !ok {
				return repository.ErrNotFound
			}
			set[id] = struct{}{}
		}
		d.userRoles[userID] = set
		return nil
	})
}

func (r *roleRepository) UserHasRole(ctx context.Context, userID int64, name model.RoleName) (bool, error) {
	var has bool
	err := r.s.read(ctx, func(d *state) error {
		for id := range d.userRoles[userID] {
			if d.roles[id].Name == name {
				has = true
				break
			}
		}
		return nil
	})
	return has, err
}

type patientRepository struct{ s *Store }

func NewPatientRepository(s *Store) repository.PatientRepository { return &patientRepository{s: s} }

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	return r.s.write(ctx, func(d *state) error {
		for _, p := range d.patients {
			if p.UserID == patient.UserID {
				return repository.ErrDuplicate
			}
		}
		patient.ID = d.id()
		patient.Touch(r.s.now())
		d.patients[patient.ID] = *patient
		return nil
	})
}

func (r *patientRepository) GetByUserID(ctx context.Context, userID int64) (*model.Patient, error) {
	return r.getByUserID(ctx, userID, r.s.read)
}

func (r *patientRepository) GetByUserIDForShare(ctx context.Context, userID int64) (*model.Patient, error) {
	return r.getByUserID(ctx, userID, r.s.readLocked)
}

func (r *patientRepository) getByUserID(ctx context.Context, userID int64,
	read func(context.Context, func(*state) error) error) (*model.Patient, error) {
	var out *model.Patient
	err := read(ctx, func(d *state) error {
		for _, p := range d.patients {
			if p.UserID == userID {
				p := p
				out = &p
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r *patientRepository) Update(ctx context.Context, patient *model.Patient) error {
	return r.s.write(ctx, func(d *state) error {
		existing, ok := d.patients[patient.ID]
		if !ok {
			return repository.ErrNotFound
		}
		patient.UserID = existing.UserID
		patient.CreatedAt = existing.CreatedAt
		patient.UpdatedAt = r.s.now()
		d.patients[patient.ID] = *patient
		return nil
	})
}

func (r *patientRepository) SetActive(ctx context.Context, id int64, active bool) error {
	return r.s.write(ctx, func(d *state) error {
		p, ok := d.patients[id]
		if !ok {
			return repository.ErrNotFound
		}
		p.Active = active
		p.UpdatedAt = r.s.now()
		d.patients[id] = p
		return nil
	})
}

type doctorRepository struct{ s *Store }

func NewDoctorRepository(s *Store) repository.DoctorRepository { return &doctorRepository{s: s} }

func (r *doctorRepository) Create(ctx context.Context, doctor *model.Doctor) error {
	return r.s.write(ctx, func(d *state) error {
		for _, doc := range d.doctors {
			if doc.UserID == doctor.UserID {
				return repository.ErrDuplicate
			}
		}
		doctor.ID = d.id()
		doctor.Touch(r.s.now())
		d.doctors[doctor.ID] = *doctor
		return nil
	})
}

func (r *doctorRepository) GetByUserID(ctx context.Context, userID int64) (*model.Doctor, error) {
	var out *model.Doctor
	err := r.s.read(ctx, func(d *state) error {
		for _, doc := range d.doctors {
			if doc.UserID == userID {
				doc := doc
				out = &doc
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r *doctorRepository) Update(ctx context.Context, doctor *model.Doctor) error {
	return r.s.write(ctx, func(d *state) error {
		existing, ok := d.doctors[doctor.ID]
		if !ok {
			return repository.ErrNotFound
		}
		doctor.UserID = existing.UserID
		doctor.CreatedAt = existing.CreatedAt
		doctor.UpdatedAt = r.s.now()
		d.doctors[doctor.ID] = *doctor
		return nil
	})
}

func (r *doctorRepository) SetActive(ctx context.Context, id int64, active bool) error {
	return r.s.write(ctx, func(d *state) error {
		doc, ok := d.doctors[id]
		if !ok {
			return repository.ErrNotFound
		}
		doc.Active = active
		doc.UpdatedAt = r.s.now()
		d.doctors[id] = doc
		return nil
	})
}

type medicineRepository struct{ s *Store }

func NewMedicineRepository(s *Store) repository.MedicineRepository {
	return &medicineRepository{s: s}
}

func (r *medicineRepository) Create(ctx context.Context, medicine *model.Medicine) error {
	return r.s.write(ctx, func(d *state) error {
		medicine.ID = d.id()
		medicine.Touch(r.s.now())
		d.medicines[medicine.ID] = *medicine
		return nil
	})
}

func (r *medicineRepository) GetByID(ctx context.Context, id int64) (*model.Medicine, error) {
	var out *model.Medicine
	err := r.s.read(ctx, func(d *state) error {
		m, ok := d.medicines[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &m
		return nil
	})
	return out, err
}

func (r *medicineRepository) GetActiveByID(ctx context.Context, id int64) (*model.Medicine, error) {
	return r.getActive(ctx, id, r.s.read)
}

func (r *medicineRepository) GetActiveByIDForShare(ctx context.Context, id int64) (*model.Medicine, error) {
	return r.getActive(ctx, id, r.s.readLocked)
}

func (r *medicineRepository) getActive(ctx context.Context, id int64,
	read func(context.Context, func(*state) error) error) (*model.Medicine, error) {
	var out *model.Medicine
	err := read(ctx, func(d *state) error {
		m, ok := d.medicines[id]
		if !ok || !m.Active {
			return repository.ErrNotFound
		}
		out = &m
		return nil
	})
	return out, err
}

func (r *medicineRepository) FindByNameAndManufacturer(ctx context.Context, name string, manufacturer *string) (*model.Medicine, error) {
	var out *model.Medicine
	err := r.s.read(ctx, func(d *state) error {
		for _, m := range d.medicines {
			if !strings.EqualFold(m.Name, name) || !strings.EqualFold(deref(m.Manufacturer), deref(manufacturer)) {
				continue
			}
			if out == nil || m.ID < out.ID {
				m := m
				out = &m
			}
		}
		if out == nil {
			return repository.ErrNotFound
		}
		return nil
	})
	return out, err
}

func (r *medicineRepository) Update(ctx context.Context, medicine *model.Medicine) error {
	return r.s.write(ctx, func(d *state) error {
		existing, ok := d.medicines[medicine.ID]
		if !ok {
			return repository.ErrNotFound
		}
		medicine.Active = existing.Active
		medicine.CreatedAt = existing.CreatedAt
		medicine.UpdatedAt = r.s.now()
		d.medicines[medicine.ID] = *medicine
		return nil
	})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (r *medicineRepository) ListActive(ctx context.Context) ([]*model.Medicine, error) {
	var out []*model.Medicine
	err := r.s.read(ctx, func(d *state) error {
		for _, m := range d.medicines {
			if m.Active {
				m := m
				out = append(out, &m)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

func (r *medicineRepository) SetActive(ctx context.Context, id int64, active bool) error {
	return r.s.write(ctx, func(d *state) error {
		m, ok := d.medicines[id]
		if !ok {
			return repository.ErrNotFound
		}
		m.Active = active
		m.UpdatedAt = r.s.now()
		d.medicines[id] = m
		return nil
	})
}

type prescriptionRepository struct{ s *Store }

func NewPrescriptionRepository(s *Store) repository.PrescriptionRepository {
	return &prescriptionRepository{s: s}
}

func (r *prescriptionRepository) Create(ctx context.Context, p *model.Prescription) error {
	return r.s.write(ctx, func(d *state) error {
		if _, ok := d.medicines[p.MedicineID]; !ok {
			return repository.ErrNotFound
		}
		if _, ok := d.patients[p.PatientID]; !ok {
			return repository.ErrNotFound
		}
		now := r.s.now()
		p.ID = d.id()
		p.CreatedAt, p.UpdatedAt = now, now
		d.prescriptions[p.ID] = *p
		return nil
	})
}

func (r *prescriptionRepository) GetByID(ctx context.Context, id int64) (*model.Prescription, error) {
	var out *model.Prescription
	err := r.s.read(ctx, func(d *state) error {
		p, ok := d.prescriptions[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &p
		return nil
	})
	return out, err
}

func (r *prescriptionRepository) ListByPatient(ctx context.Context, patientID int64) ([]*model.Prescription, error) {
	var out []*model.Prescription
	err := r.s.read(ctx, func(d *state) error {
		for _, p := range d.prescriptions {
			if p.PatientID == patientID {
				p := p
				out = append(out, &p)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r *prescriptionRepository) Update(ctx context.Context, p *model.Prescription) error {
	return r.s.write(ctx, func(d *state) error {
		existing, ok := d.prescriptions[p.ID]
		if !ok {
			return repository.ErrNotFound
		}
		existing.Dosage = p.Dosage
		existing.StartDate = p.StartDate
		existing.EndDate = p.EndDate
		existing.TimeZone = p.TimeZone
		existing.Schedule = p.Schedule
		existing.UpdatedAt = r.s.now()
		d.prescriptions[p.ID] = existing
		*p = existing
		return nil
	})
}

type outboxRepository struct{ s *Store }

func NewOutboxRepository(s *Store) repository.OutboxRepository { return &outboxRepository{s: s} }

func (r *outboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	return r.s.write(ctx, func(d *state) error {
		if event.ID == uuid.Nil {
			event.ID = uuid.New()
		}
		if event.Status == "" {
			event.Status = model.OutboxStatusPending
		}
		now := r.s.now()
		event.CreatedAt, event.UpdatedAt = now, now
		d.outbox = append(d.outbox, *event)
		return nil
	})
}

// GetPendingEventsWithLock reads committed events without locking them.
// A memory store is served by a single outbox processor.
func (r *outboxRepository) GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	var out []*model.OutboxEvent
	err := r.s.read(ctx, func(d *state) error {
		for _, e := range d.outbox {
			if len(out) >= limit {
				break
			}
			if e.Retryable() {
				e := e
				out = append(out, &e)
			}
		}
		return nil
	})
	return out, err
}

func (r *outboxRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string) error {
	return r.s.write(ctx, func(d *state) error {
		for i := range d.outbox {
			if d.outbox[i].ID != id {
				continue
			}
			now := r.s.now()
			e := &d.outbox[i]
			e.Status = status
			e.ErrorMessage = errorMessage
			e.UpdatedAt = now
			if status == model.OutboxStatusProcessed {
				e.ProcessedAt = &now
			} else {
				e.RetryCount++
			}
			return nil
		}
		return repository.ErrNotFound
	})
}

func (r *outboxRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	var n int64
	err := r.s.write(ctx, func(d *state) error {
		kept := d.outbox[:0]
		for _, e := range d.outbox {
			if e.Status == model.OutboxStatusProcessed && e.ProcessedAt != nil && e.ProcessedAt.Before(before) {
				n++
				continue
			}
			kept = append(kept, e)
		}
		d.outbox = kept
		return nil
	})
	return n, err
}
