package repository

import (
	"errors"

	"gorm.io/gorm"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page selects a slice of a listing. Zero values mean first page, default size.
type Page struct {
	Page     int
	PageSize int
}

// Normalized clamps the page number and size to their allowed ranges.
func (p Page) Normalized() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

func (p Page) apply(q *gorm.DB) *gorm.DB {
	n := p.Normalized()
	return q.Offset((n.Page - 1) * n.PageSize).Limit(n.PageSize)
}

// absent turns gorm's not-found into an empty optional result.
func absent(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// bucketRow is the scan target of every GROUP BY count query.
type bucketRow struct {
	Bucket string
	Total  int64
}

// yearMonthExpr returns the year and month extraction for the dialect.
func yearMonthExpr(db *gorm.DB, column string) (string, string) {
	switch db.Dialector.Name() {
	case "sqlite":
		return "CAST(strftime('%Y', " + column + ") AS INTEGER)",
			"CAST(strftime('%m', " + column + ") AS INTEGER)"
	case "mysql":
		return "YEAR(" + column + ")", "MONTH(" + column + ")"
	default:
		return "CAST(EXTRACT(YEAR FROM " + column + ") AS INTEGER)",
			"CAST(EXTRACT(MONTH FROM " + column + ") AS INTEGER)"
	}
}
