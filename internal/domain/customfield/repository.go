package customfield

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"salescrm/internal/database"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) List(ctx context.Context, activeOnly bool) ([]FieldDefinition, error) {
	db := r.db.WithContext(ctx)
	if activeOnly {
		db = db.Where("is_active = ?", true)
	}

	var defs []FieldDefinition
	if err := db.Order("sort_order ASC").Order("created_at ASC").Order("id ASC").Find(&defs).Error; err != nil {
		return nil, fmt.Errorf("list field definitions: %w", err)
	}
	return defs, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*FieldDefinition, error) {
	var d FieldDefinition
	if err := r.db.WithContext(ctx).First(&d, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFieldNotFound
		}
		return nil, fmt.Errorf("get field definition: %w", err)
	}
	return &d, nil
}

func (r *Repository) Create(ctx context.Context, d *FieldDefinition) error {
	if err := r.db.WithContext(ctx).Create(d).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return ErrFieldExists
		}
		return fmt.Errorf("create field definition: %w", err)
	}
	return nil
}

func (r *Repository) Save(ctx context.Context, d *FieldDefinition) error {
	if err := r.db.WithContext(ctx).Save(d).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return ErrFieldExists
		}
		return fmt.Errorf("save field definition: %w", err)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&FieldDefinition{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete field definition: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrFieldNotFound
	}
	return nil
}

// EnsureDefaults inserts each default definition whose name is not taken.
func (r *Repository) EnsureDefaults(ctx context.Context, defaults []FieldDefinition) (int, error) {
	created := 0
	for _, def := range defaults {
		d := def
		res := r.db.WithContext(ctx).Where(FieldDefinition{FieldName: d.FieldName}).FirstOrCreate(&d)
		if res.Error != nil {
			return created, fmt.Errorf("ensure field %s: %w", d.FieldName, res.Error)
		}
		created += int(res.RowsAffected)
	}
	return created, nil
}
