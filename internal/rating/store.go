package rating

import (
	"context"
	"errors"

	"github.com/Kyz7/reviewhub/internal/apperr"
	"github.com/Kyz7/reviewhub/internal/models"
	"gorm.io/gorm"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Company(ctx context.Context, id uint) (models.Company, error) {
	var company models.Company
	err := s.db.WithContext(ctx).First(&company, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Company{}, apperr.NotFoundf("company %d", id)
	}
	return company, err
}

func (s *GormStore) LiveRatings(ctx context.Context, companyID uint) (int64, int64, error) {
	var row struct {
		Total int64
		N     int64
	}
	err := s.db.WithContext(ctx).
		Model(&models.Review{}).
		Select("COALESCE(SUM(rating), 0) AS total, COUNT(*) AS n").
		Where("company_id = ?", companyID).
		Scan(&row).Error
	return row.Total, row.N, err
}

func (s *GormStore) SaveAggregate(ctx context.Context, companyID, expectedVersion uint, average float64, total int) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Company{}).
		Where("id = ? AND version = ?", companyID, expectedVersion).
		Updates(map[string]any{
			"ratings_aggregate": average,
			"total_reviews":     total,
			"version":           gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
