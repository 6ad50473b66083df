package postgres

import (
	"context"
	"time"

	"github.com/jwalitptl/meditracker-api/internal/model"
	"github.com/jwalitptl/meditracker-api/internal/repository"
)

type medicineRepository struct {
	BaseRepository
}

func NewMedicineRepository(base BaseRepository) repository.MedicineRepository {
	return &medicineRepository{base}
}

const medicineColumns = `id, name, generic_name, manufacturer, dosage_form, strength, description,
	side_effects, contraindications, active, created_at, updated_at`

func (r *medicineRepository) Create(ctx context.Context, m *model.Medicine) error {
	query := `
		INSERT INTO medicines (
			name, generic_name, manufacturer, dosage_form, strength, description,
			side_effects, contraindications, active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	m.Touch(time.Now().UTC())

	row := r.conn(ctx).QueryRowxContext(ctx, query,
		m.Name,
		m.GenericName,
		m.Manufacturer,
		m.DosageForm,
		m.Strength,
		m.Description,
		m.SideEffects,
		m.Contraindications,
		m.Active,
		m.CreatedAt,
		m.UpdatedAt,
	)
	return translate(row.Scan(&m.ID), "create medicine")
}

func (r *medicineRepository) GetByID(ctx context.Context, id int64) (*model.Medicine, error) {
	var m model.Medicine
	query := `SELECT ` + medicineColumns + ` FROM medicines WHERE id = $1`
	if err := sqlxGet(ctx, r.conn(ctx), &m, query, id); err != nil {
		return nil, translate(err, "get medicine")
	}
	return &m, nil
}

func (r *medicineRepository) GetActiveByID(ctx context.Context, id int64) (*model.Medicine, error) {
	var m model.Medicine
	query := `SELECT ` + medicineColumns + ` FROM medicines WHERE id = $1 AND active`
	if err := sqlxGet(ctx, r.conn(ctx), &m, query, id); err != nil {
		return nil, translate(err, "get active medicine")
	}
	return &m, nil
}

func (r *medicineRepository) GetActiveByIDForShare(ctx context.Context, id int64) (*model.Medicine, error) {
	var m model.Medicine
	query := `SELECT ` + medicineColumns + ` FROM medicines WHERE id = $1 AND active FOR SHARE`
	if err := sqlxGet(ctx, r.conn(ctx), &m, query, id); err != nil {
		return nil, translate(err, "get active medicine")
	}
	return &m, nil
}

func (r *medicineRepository) FindByNameAndManufacturer(ctx context.Context, name string, manufacturer *string) (*model.Medicine, error) {
	var m model.Medicine
	query := `
		SELECT ` + medicineColumns + `
		FROM medicines
		WHERE lower(name) = lower($1) AND lower(COALESCE(manufacturer, '')) = lower(COALESCE($2::text, ''))
		ORDER BY id
		LIMIT 1
	`
	if err := sqlxGet(ctx, r.conn(ctx), &m, query, name, manufacturer); err != nil {
		return nil, translate(err, "find medicine")
	}
	return &m, nil
}

func (r *medicineRepository) Update(ctx context.Context, m *model.Medicine) error {
	query := `
		UPDATE medicines
		SET name = $1, generic_name = $2, manufacturer = $3, dosage_form = $4, strength = $5,
		    description = $6, side_effects = $7, contraindications = $8, updated_at = $9
		WHERE id = $10
	`
	m.UpdatedAt = time.Now().UTC()
	res, err := r.conn(ctx).ExecContext(ctx, query,
		m.Name,
		m.GenericName,
		m.Manufacturer,
		m.DosageForm,
		m.Strength,
		m.Description,
		m.SideEffects,
		m.Contraindications,
		m.UpdatedAt,
		m.ID,
	)
	if err != nil {
		return translate(err, "update medicine")
	}
	return expectOne(res, "update medicine")
}

func (r *medicineRepository) ListActive(ctx context.Context) ([]*model.Medicine, error) {
	var medicines []*model.Medicine
	query := `SELECT ` + medicineColumns + ` FROM medicines WHERE active ORDER BY name`
	if err := sqlxSelect(ctx, r.conn(ctx), &medicines, query); err != nil {
		return nil, translate(err, "list medicines")
	}
	return medicines, nil
}

func (r *medicineRepository) SetActive(ctx context.Context, id int64, active bool) error {
	res, err := r.conn(ctx).ExecContext(ctx,
		`UPDATE medicines SET active = $1, updated_at = $2 WHERE id = $3`,
		active, time.Now().UTC(), id)
	if err != nil {
		return translate(err, "set medicine active")
	}
	return expectOne(res, "set medicine active")
}
