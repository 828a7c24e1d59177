package lead

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"salescrm/internal/database"
)

// DefaultPageSize matches the lead table views.
const DefaultPageSize = 100

// editableColumns are written by Update; the id is never rewritten.
var editableColumns = []string{
	"name", "phone", "status", "sales_rep_id", "source", "province", "city_auto",
	"region_manual", "contact_count", "next_contact_time", "last_contact_at",
	"is_key_customer", "notes", "extra_data", "created_at", "updated_at",
}

var sortColumns = map[string]string{
	"name":              "name",
	"status":            "status",
	"province":          "province",
	"city_auto":         "city_auto",
	"source":            "source",
	"contact_count":     "contact_count",
	"next_contact_time": "next_contact_time",
	"last_contact_at":   "last_contact_at",
	"created_at":        "created_at",
}

// ListQuery filters a lead listing. Zero values mean "no filter".
type ListQuery struct {
	OwnerID  *int64
	PoolOnly bool
	Statuses []Status
	KeyOnly  bool
	City     string
	Search   string
	Sort     string // column name, "-" prefix for descending
	Page     int
	PageSize int
}

type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, now: database.Now}
}

// Create inserts a lead. The follow-up counter is taken as given.
func (r *Repository) Create(ctx context.Context, l *Lead) error {
	now := r.now()
	l.LastContactAt = now
	l.NextContactTime = normalizeTimePtr(l.NextContactTime)
	if !l.CreatedAt.IsZero() {
		l.CreatedAt = normalizeTime(l.CreatedAt)
	}

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(l).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return ErrPhoneExists
		}
		return fmt.Errorf("create lead: %w", err)
	}
	return nil
}

// Update loads the stored row inside a transaction, lets mutate edit it and
// writes it back. The follow-up counter is derived from the stored row, so
// concurrent writers never lose increments. mutate must not touch the database.
func (r *Repository) Update(ctx context.Context, id int64, mutate func(l *Lead) error) (*Lead, error) {
	var out Lead
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		if database.SupportsRowLocks(tx) {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var current Lead
		if err := q.First(&current, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLeadNotFound
			}
			return fmt.Errorf("load lead: %w", err)
		}

		prevCount := current.ContactCount
		prevNext := current.NextContactTime
		createdAt := current.CreatedAt

		if err := mutate(&current); err != nil {
			return err
		}

		current.ID = id
		current.NextContactTime = normalizeTimePtr(current.NextContactTime)
		current.ContactCount = nextContactCount(prevCount, prevNext, current.NextContactTime)
		current.LastContactAt = r.now()
		current.UpdatedAt = current.LastContactAt
		if current.CreatedAt.IsZero() {
			current.CreatedAt = createdAt
		} else {
			current.CreatedAt = normalizeTime(current.CreatedAt)
		}

		err := tx.Model(&current).Omit(clause.Associations).Select(editableColumns).Updates(&current).Error
		if err != nil {
			if database.IsUniqueViolation(err) {
				return ErrPhoneExists
			}
			return fmt.Errorf("update lead: %w", err)
		}
		out = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Lead, error) {
	var l Lead
	if err := r.db.WithContext(ctx).Preload("SalesRep").First(&l, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("get lead: %w", err)
	}
	return &l, nil
}

func (r *Repository) GetByPhone(ctx context.Context, phone string) (*Lead, error) {
	var l Lead
	err := r.db.WithContext(ctx).Preload("SalesRep").Where("phone = ?", phone).First(&l).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("get lead by phone: %w", err)
	}
	return &l, nil
}

func (r *Repository) ExistsPhone(ctx context.Context, phone string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&Lead{}).Where("phone = ?", phone).Count(&n).Error; err != nil {
		return false, fmt.Errorf("check phone: %w", err)
	}
	return n > 0, nil
}

// Claim assigns pool leads to ownerID in one conditional statement and
// returns how many were still unowned.
func (r *Repository) Claim(ctx context.Context, ids []int64, ownerID int64) (int64, error) {
	res := r.db.WithContext(ctx).Model(&Lead{}).
		Where("id IN ? AND sales_rep_id IS NULL", ids).
		UpdateColumn("sales_rep_id", ownerID)
	if res.Error != nil {
		return 0, fmt.Errorf("claim leads: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// SetOwner reassigns leads; a nil owner releases them to the pool.
func (r *Repository) SetOwner(ctx context.Context, ids []int64, ownerID *int64) (int64, error) {
	res := r.db.WithContext(ctx).Model(&Lead{}).
		Where("id IN ?", ids).
		UpdateColumn("sales_rep_id", ownerID)
	if res.Error != nil {
		return 0, fmt.Errorf("set lead owner: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *Repository) SetStatus(ctx context.Context, ids []int64, status Status) (int64, error) {
	res := r.db.WithContext(ctx).Model(&Lead{}).
		Where("id IN ?", ids).
		UpdateColumn("status", status)
	if res.Error != nil {
		return 0, fmt.Errorf("set lead status: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *Repository) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&Lead{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete leads: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *Repository) List(ctx context.Context, q ListQuery) ([]Lead, int64, error) {
	var total int64
	if err := r.filtered(ctx, q).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count leads: %w", err)
	}

	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	page := q.Page
	if page < 1 {
		page = 1
	}

	var leads []Lead
	err := applySort(r.filtered(ctx, q), q.Sort).
		Preload("SalesRep").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&leads).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list leads: %w", err)
	}
	return leads, total, nil
}

// All returns every lead matching q without paging, newest first.
func (r *Repository) All(ctx context.Context, q ListQuery) ([]Lead, error) {
	var leads []Lead
	err := applySort(r.filtered(ctx, q), q.Sort).Preload("SalesRep").Find(&leads).Error
	if err != nil {
		return nil, fmt.Errorf("list all leads: %w", err)
	}
	return leads, nil
}

func (r *Repository) filtered(ctx context.Context, q ListQuery) *gorm.DB {
	db := r.db.WithContext(ctx).Model(&Lead{})

	if q.PoolOnly {
		db = db.Where("sales_rep_id IS NULL")
	} else if q.OwnerID != nil {
		db = db.Where("sales_rep_id = ?", *q.OwnerID)
	}
	if len(q.Statuses) > 0 {
		db = db.Where("status IN ?", q.Statuses)
	}
	if q.KeyOnly {
		db = db.Where("is_key_customer = ?", true)
	}
	if city := strings.TrimSpace(q.City); city != "" {
		like := "%" + city + "%"
		db = db.Where("(city_auto LIKE ? OR province LIKE ?)", like, like)
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		like := "%" + s + "%"
		db = db.Where("(name LIKE ? OR phone LIKE ?)", like, like)
	}
	return db
}

func applySort(db *gorm.DB, sort string) *gorm.DB {
	desc := strings.HasPrefix(sort, "-")
	col, ok := sortColumns[strings.TrimPrefix(sort, "-")]
	if !ok {
		return db.Order("created_at DESC").Order("id DESC")
	}

	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	if col == "next_contact_time" {
		// unscheduled leads sort last in either direction
		db = db.Order("CASE WHEN next_contact_time IS NULL THEN 1 ELSE 0 END")
	}
	return db.Order(col + " " + dir).Order("id DESC")
}

// FindRecyclable lists owned leads that have been unreachable since before cutoff.
func (r *Repository) FindRecyclable(ctx context.Context, cutoff time.Time) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&Lead{}).
		Where("status = ? AND last_contact_at < ? AND sales_rep_id IS NOT NULL", StatusUnreachable, normalizeTime(cutoff)).
		Order("id ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("find recyclable leads: %w", err)
	}
	return ids, nil
}

// ReleaseIfRecyclable releases one lead to the pool if it still qualifies.
// It writes the owner column only: no timestamps and no counter rule.
func (r *Repository) ReleaseIfRecyclable(ctx context.Context, id int64, cutoff time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&Lead{}).
		Where("id = ? AND status = ? AND last_contact_at < ? AND sales_rep_id IS NOT NULL", id, StatusUnreachable, normalizeTime(cutoff)).
		UpdateColumn("sales_rep_id", nil)
	if res.Error != nil {
		return false, fmt.Errorf("release lead %d: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// FindDueBetween returns leads whose next follow-up falls in [from, to).
// ownerID narrows to one owner; ownedOnly drops pool leads.
func (r *Repository) FindDueBetween(ctx context.Context, from, to time.Time, ownerID *int64, ownedOnly bool) ([]Lead, error) {
	return r.findDue(ctx, "next_contact_time >= ? AND next_contact_time < ?", from, to, ownerID, ownedOnly)
}

// FindDueWithin is FindDueBetween with an inclusive upper bound.
func (r *Repository) FindDueWithin(ctx context.Context, from, to time.Time, ownerID *int64) ([]Lead, error) {
	return r.findDue(ctx, "next_contact_time >= ? AND next_contact_time <= ?", from, to, ownerID, false)
}

func (r *Repository) findDue(ctx context.Context, cond string, from, to time.Time, ownerID *int64, ownedOnly bool) ([]Lead, error) {
	db := r.db.WithContext(ctx).Where(cond, normalizeTime(from), normalizeTime(to))
	if ownerID != nil {
		db = db.Where("sales_rep_id = ?", *ownerID)
	} else if ownedOnly {
		db = db.Where("sales_rep_id IS NOT NULL")
	}

	var leads []Lead
	if err := db.Preload("SalesRep").Order("next_contact_time ASC").Order("id ASC").Find(&leads).Error; err != nil {
		return nil, fmt.Errorf("find due leads: %w", err)
	}
	return leads, nil
}

// FutureTasks returns leads with a follow-up at or after from.
func (r *Repository) FutureTasks(ctx context.Context, ownerID *int64, from time.Time) ([]Lead, error) {
	db := r.db.WithContext(ctx).Where("next_contact_time >= ?", normalizeTime(from))
	if ownerID != nil {
		db = db.Where("sales_rep_id = ?", *ownerID)
	}

	var leads []Lead
	if err := db.Preload("SalesRep").Order("next_contact_time ASC").Order("id ASC").Find(&leads).Error; err != nil {
		return nil, fmt.Errorf("future tasks: %w", err)
	}
	return leads, nil
}
