package blog

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// applyKeyword matches q against title and body. Postgres uses full-text
// search; other dialects fall back to a case-insensitive substring match.
func applyKeyword(db *gorm.DB, q string) *gorm.DB {
	q = strings.TrimSpace(q)
	if q == "" {
		return db
	}
	if db.Dialector.Name() == "postgres" {
		return db.Where(
			"to_tsvector('english', title || ' ' || body) @@ plainto_tsquery('english', ?)",
			q,
		)
	}
	like := "%" + strings.ToLower(q) + "%"
	return db.Where("LOWER(title) LIKE ? OR LOWER(body) LIKE ?", like, like)
}

// applyDateRange filters on the publication date. Both bounds are calendar
// days and inclusive; unparseable bounds are ignored.
func applyDateRange(db *gorm.DB, from, to string) *gorm.DB {
	if from != "" {
		if d, err := time.Parse(time.DateOnly, from); err == nil {
			db = db.Where("published_at >= ?", d)
		}
	}
	if to != "" {
		if d, err := time.Parse(time.DateOnly, to); err == nil {
			db = db.Where("published_at < ?", d.Add(24*time.Hour))
		}
	}
	return db
}

var sortColumns = map[string]string{
	"published_at": "published_at",
	"created_at":   "created_at",
	"updated_at":   "updated_at",
	"views":        "views",
	"title":        "title",
}

// applySorting keeps featured blogs first and then orders by a whitelisted
// column.
func applySorting(db *gorm.DB, sortBy, order string) *gorm.DB {
	order = strings.ToLower(order)
	if order != "asc" && order != "desc" {
		order = "desc"
	}
	col, ok := sortColumns[sortBy]
	if !ok {
		col = "published_at"
	}
	return db.Order("is_featured DESC").Order(col + " " + order).Order("id DESC")
}
