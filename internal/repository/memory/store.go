// Package memory keeps every repository in process memory. Writing
// transactions are serialized and roll back by discarding a private copy.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jwalitptl/meditracker-api/internal/model"
	"github.com/jwalitptl/meditracker-api/internal/repository"
)

type state struct {
	nextID        int64
	users         map[int64]model.User
	roles         map[int64]model.Role
	userRoles     map[int64]map[int64]struct{}
	patients      map[int64]model.Patient
	doctors       map[int64]model.Doctor
	medicines     map[int64]model.Medicine
	prescriptions map[int64]model.Prescription
	outbox        []model.OutboxEvent
}

func newState() *state {
	return &state{
		users:         make(map[int64]model.User),
		roles:         make(map[int64]model.Role),
		userRoles:     make(map[int64]map[int64]struct{}),
		patients:      make(map[int64]model.Patient),
		doctors:       make(map[int64]model.Doctor),
		medicines:     make(map[int64]model.Medicine),
		prescriptions: make(map[int64]model.Prescription),
	}
}

func (s *state) clone() *state {
	c := newState()
	c.nextID = s.nextID
	for k, v := range s.users {
		v.Roles = append([]model.RoleName(nil), v.Roles...)
		c.users[k] = v
	}
	for k, v := range s.roles {
		c.roles[k] = v
	}
	for k, set := range s.userRoles {
		cp := make(map[int64]struct{}, len(set))
		for id := range set {
			cp[id] = struct{}{}
		}
		c.userRoles[k] = cp
	}
	for k, v := range s.patients {
		c.patients[k] = v
	}
	for k, v := range s.doctors {
		c.doctors[k] = v
	}
	for k, v := range s.medicines {
		c.medicines[k] = v
	}
	// Schedule and Dosage are immutable, so sharing them is safe.
	for k, v := range s.prescriptions {
		c.prescriptions[k] = v
	}
	c.outbox = append([]model.OutboxEvent(nil), s.outbox...)
	return c
}

func (s *state) id() int64 {
	s.nextID++
	return s.nextID
}

// Store is the shared backing state of the memory repositories.
//
// A transaction reads committed state until its first write or locking read.
// From then on it holds writeMu and works on a private copy, which replaces
// the committed state on commit and is dropped on rollback. Writes outside a
// transaction run as single-statement transactions.
type Store struct {
	writeMu sync.Mutex
	mu      sync.RWMutex
	data    *state
	now     func() time.Time
}

// NewStore returns an empty store seeded with the PATIENT, DOCTOR and ADMIN roles.
func NewStore() *Store {
	s := &Store{data: newState(), now: func() time.Time { return time.Now().UTC() }}
	for _, r := range []model.Role{
		{Name: model.RolePatient, Description: "Patient"},
		{Name: model.RoleDoctor, Description: "Doctor"},
		{Name: model.RoleAdmin, Description: "Administrator"},
	} {
		r.ID = s.data.id()
		s.data.roles[r.ID] = r
	}
	return s
}

type txKey struct{}

// tx is one open transaction. data is nil until the transaction locks.
type tx struct {
	data *state
}

func txFrom(ctx context.Context) *tx {
	t, _ := ctx.Value(txKey{}).(*tx)
	return t
}

// WithinTx implements repository.Transactor.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if txFrom(ctx) != nil {
		return fn(ctx)
	}

	t := &tx{}
	defer func() {
		if t.data == nil {
			return
		}
		if p := recover(); p != nil {
			s.writeMu.Unlock()
			panic(p)
		}
		if err == nil {
			s.mu.Lock()
			s.data = t.data
			s.mu.Unlock()
		}
		s.writeMu.Unlock()
	}()

	return fn(context.WithValue(ctx, txKey{}, t))
}

// lock makes t the only writer and gives it a private copy of committed state.
func (s *Store) lock(t *tx) {
	if t.data != nil {
		return
	}
	s.writeMu.Lock()
	s.mu.RLock()
	t.data = s.data.clone()
	s.mu.RUnlock()
}

func (s *Store) read(ctx context.Context, fn func(d *state) error) error {
	if t := txFrom(ctx); t != nil && t.data != nil {
		return fn(t.data)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.data)
}

// readLocked reads like read but first locks the surrounding transaction,
// so nothing read can change before it ends.
func (s *Store) readLocked(ctx context.Context, fn func(d *state) error) error {
	if t := txFrom(ctx); t != nil {
		s.lock(t)
	}
	return s.read(ctx, fn)
}

func (s *Store) write(ctx context.Context, fn func(d *state) error) error {
	t := txFrom(ctx)
	if t == nil {
		return s.WithinTx(ctx, func(ctx context.Context) error {
			return s.write(ctx, fn)
		})
	}
	s.lock(t)
	return fn(t.data)
}

// SeedUser inserts a user with the given roles, bypassing role reconciliation.
// Unknown role names are an error.
func (s *Store) SeedUser(user *model.User, roles ...model.RoleName) error {
	return s.write(context.Background(), func(d *state) error {
		set := make(map[int64]struct{}, len(roles))
		for _, name := range roles {
			found := false
			for id, r := range d.roles {
				if r.Name == name {
					set[id] = struct{}{}
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("unknown role %q", name)
			}
		}
		user.ID = d.id()
		user.Touch(s.now())
		user.Roles = append([]model.RoleName(nil), roles...)
		d.users[user.ID] = *user
		d.userRoles[user.ID] = set
		return nil
	})
}

// NewRepositories wires every memory repository to s.
func NewRepositories(s *Store) *repository.Repositories {
	return &repository.Repositories{
		Tx:            s,
		Users:         NewUserRepository(s),
		Roles:         NewRoleRepository(s),
		Patients:      NewPatientRepository(s),
		Doctors:       NewDoctorRepository(s),
		Medicines:     NewMedicineRepository(s),
		Prescriptions: NewPrescriptionRepository(s),
		Outbox:        NewOutboxRepository(s),
	}
}
