package viewtrack

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Kyz7/reviewhub/internal/apperr"
	"github.com/Kyz7/reviewhub/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormLedger struct {
	db *gorm.DB
}

func NewGormLedger(db *gorm.DB) *GormLedger {
	return &GormLedger{db: db}
}

// Register relies on the unique (blog_id, identifier) index: the insert is a
// no-op for a known viewer and the counter moves only when a row was added.
func (l *GormLedger) Register(ctx context.Context, blogID uint, viewer string, at time.Time) (bool, int, error) {
	var (
		isNew bool
		total int
	)
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var blog models.Blog
		err := tx.Select("id", "is_deleted").First(&blog, blogID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && blog.IsDeleted) {
			return apperr.NotFoundf("blog %d", blogID)
		}
		if err != nil {
			return fmt.Errorf("load blog %d: %w", blogID, err)
		}

		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.BlogView{
			BlogID:     blogID,
			Identifier: viewer,
			ViewedAt:   at,
		})
		if res.Error != nil {
			return fmt.Errorf("insert view of blog %d: %w", blogID, res.Error)
		}

		if res.RowsAffected == 1 {
			isNew = true
			if err := tx.Model(&models.Blog{}).Where("id = ?", blogID).
				UpdateColumn("views", gorm.Expr("views + ?", 1)).Error; err != nil {
				return fmt.Errorf("increment views of blog %d: %w", blogID, err)
			}
		}

		return tx.Model(&models.Blog{}).Select("views").Where("id = ?", blogID).Scan(&total).Error
	})
	if err != nil {
		return false, 0, err
	}
	return isNew, total, nil
}
