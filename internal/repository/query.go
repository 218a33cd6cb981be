package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// ListQuery carries list endpoint filters.
type ListQuery struct {
	Limit          int
	Offset         int
	IncludeDeleted bool
	Status         string
	Search         string
}

// ActiveColumn is the boolean filter column of customers and products. Its
// status values are "active" and "inactive".
const ActiveColumn = "is_active"

// scope applies the soft-delete, status and search filters shared by list
// queries. statusColumn is the column the status parameter matches; an empty
// statusColumn ignores the parameter.
func (q ListQuery) scope(statusColumn string, searchColumns ...string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if !q.IncludeDeleted {
			db = db.Where("is_deleted = ?", false)
		}
		db = q.status(db, statusColumn)
		if term := strings.TrimSpace(q.Search); term != "" && len(searchColumns) > 0 {
			pattern := "%" + strings.ToLower(term) + "%"
			clauses := make([]string, 0, len(searchColumns))
			args := make([]interface{}, 0, len(searchColumns))
			for _, col := range searchColumns {
				clauses = append(clauses, "LOWER("+col+") LIKE ?")
				args = append(args, pattern)
			}
			db = db.Where(strings.Join(clauses, " OR "), args...)
		}
		return db
	}
}

func (q ListQuery) status(db *gorm.DB, column string) *gorm.DB {
	value := strings.ToLower(strings.TrimSpace(q.Status))
	if value == "" || column == "" {
		return db
	}
	if column != ActiveColumn {
		return db.Where(column+" = ?", value)
	}
	switch value {
	case "active", "true":
		return db.Where(ActiveColumn+" = ?", true)
	case "inactive", "false":
		return db.Where(ActiveColumn+" = ?", false)
	}
	// Unknown values match nothing.
	return db.Where("1 = 0")
}

func (q ListQuery) page(db *gorm.DB) *gorm.DB {
	if q.Limit > 0 {
		db = db.Limit(q.Limit)
	}
	return db.Offset(q.Offset)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
