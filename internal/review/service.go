// Package review manages company reviews. Every change to the live review
// population or to a rating is followed by a recompute of the company
// aggregate.
package review

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Kyz7/reviewhub/internal/apperr"
	"github.com/Kyz7/reviewhub/internal/identity"
	"github.com/Kyz7/reviewhub/internal/models"
	"github.com/Kyz7/reviewhub/internal/moderation"
	"github.com/Kyz7/reviewhub/internal/rating"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

var policy = bluemonday.StrictPolicy()

type Service struct {
	db         *gorm.DB
	engine     *rating.Engine
	moderation *moderation.Service
	log        zerolog.Logger
}

func NewService(db *gorm.DB, engine *rating.Engine, mod *moderation.Service, log zerolog.Logger) *Service {
	return &Service{db: db, engine: engine, moderation: mod, log: log}
}

type CreateInput struct {
	Rating  int    `json:"rating"`
	Title   string `json:"title"`
	Comment string `json:"comment"`
}

type UpdateInput struct {
	Rating  *int    `json:"rating"`
	Title   *string `json:"title"`
	Comment *string `json:"comment"`
}

func validRating(r int) error {
	if r < models.MinRating || r > models.MaxRating {
		return apperr.Invalid("validation failed", map[string]string{
			"rating": fmt.Sprintf("rating must be between %d and %d", models.MinRating, models.MaxRating),
		})
	}
	return nil
}

func (s *Service) Create(ctx context.Context, actor identity.Identity, companyID uint, in CreateInput) (models.Review, error) {
	if err := validRating(in.Rating); err != nil {
		return models.Review{}, err
	}

	r := models.Review{
		CompanyID: companyID,
		UserID:    actor.ID,
		Rating:    in.Rating,
		Title:     strings.TrimSpace(policy.Sanitize(in.Title)),
		Comment:   strings.TrimSpace(policy.Sanitize(in.Comment)),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var company models.Company
		err := tx.First(&company, companyID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFoundf("company %d", companyID)
		}
		if err != nil {
			return fmt.Errorf("load company %d: %w", companyID, err)
		}
		if company.Status != models.CompanyApproved && !actor.Privileged() {
			return apperr.Invalid("company is not accepting reviews", map[string]string{"status": string(company.Status)})
		}

		var existing int64
		if err := tx.Model(&models.Review{}).
			Where("company_id = ? AND user_id = ?", companyID, actor.ID).
			Count(&existing).Error; err != nil {
			return fmt.Errorf("check existing review: %w", err)
		}
		if existing > 0 {
			return duplicateReview()
		}

		if err := tx.Create(&r).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return duplicateReview()
			}
			return fmt.Errorf("create review: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Review{}, err
	}

	s.recompute(ctx, companyID)
	return r, nil
}

// Update changes a review. The aggregate is recomputed only when the rating
// actually changed.
func (s *Service) Update(ctx context.Context, actor identity.Identity, id uint, in UpdateInput) (models.Review, error) {
	if in.Rating != nil {
		if err := validRating(*in.Rating); err != nil {
			return models.Review{}, err
		}
	}

	var (
		out           models.Review
		ratingChanged bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur models.Review
		err := tx.First(&cur, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFoundf("review %d", id)
		}
		if err != nil {
			return fmt.Errorf("load review %d: %w", id, err)
		}

		if err := s.canEdit(tx, actor, cur); err != nil {
			return err
		}

		cols := map[string]any{}
		next := cur
		if in.Rating != nil && *in.Rating != cur.Rating {
			next.Rating = *in.Rating
			cols["rating"] = next.Rating
			ratingChanged = true
		}
		if in.Title != nil {
			next.Title = strings.TrimSpace(policy.Sanitize(*in.Title))
			cols["title"] = next.Title
		}
		if in.Comment != nil {
			next.Comment = strings.TrimSpace(policy.Sanitize(*in.Comment))
			cols["comment"] = next.Comment
		}
		if len(cols) == 0 {
			out = cur
			return nil
		}
		cols["version"] = gorm.Expr("version + 1")

		res := tx.Model(&models.Review{}).Where("id = ? AND version = ?", id, cur.Version).Updates(cols)
		if res.Error != nil {
			return fmt.Errorf("update review %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("review %d changed concurrently", id)
		}
		next.Version = cur.Version + 1
		out = next
		return nil
	})
	if err != nil {
		return models.Review{}, err
	}

	if ratingChanged {
		s.recompute(ctx, out.CompanyID)
	}
	return out, nil
}

// Delete hard-deletes a review through the moderation rules and recomputes
// the company aggregate.
func (s *Service) Delete(ctx context.Context, actor identity.Identity, id uint) error {
	removed, err := s.moderation.ApplyReview(ctx, actor, id, moderation.ReviewPermanentDelete)
	if err != nil {
		return err
	}
	s.recompute(ctx, removed.CompanyID)
	return nil
}

// Moderate applies an admin moderation action. Hiding and pinning never touch
// the aggregate.
func (s *Service) Moderate(ctx context.Context, actor identity.Identity, id uint, action moderation.ReviewAction) (models.Review, error) {
	if action == moderation.ReviewPermanentDelete {
		return models.Review{}, s.Delete(ctx, actor, id)
	}
	return s.moderation.ApplyReview(ctx, actor, id, action)
}

// ListByCompany returns pinned reviews first. Hidden reviews are only listed
// for privileged audiences.
func (s *Service) ListByCompany(ctx context.Context, actor identity.Identity, companyID uint, page, limit int) ([]models.Review, int64, error) {
	var company models.Company
	err := s.db.WithContext(ctx).Select("id", "status").First(&company, companyID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, 0, apperr.NotFoundf("company %d", companyID)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("load company %d: %w", companyID, err)
	}

	q := s.db.WithContext(ctx).Model(&models.Review{}).Where("company_id = ?", companyID)
	if !actor.Privileged() {
		if company.Status != models.CompanyApproved {
			return nil, 0, apperr.NotFoundf("company %d", companyID)
		}
		q = q.Where("is_hidden = ?", false)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}

	var reviews []models.Review
	err = q.Order("is_pinned DESC, created_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&reviews).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, total, nil
}

// canEdit admits the author, admins and the operator of the review's company.
func (s *Service) canEdit(tx *gorm.DB, actor identity.Identity, r models.Review) error {
	if actor.ID == r.UserID || actor.Is(models.RoleAdmin) {
		return nil
	}
	if actor.Is(models.RoleOperator) {
		var operatorID uint
		if err := tx.Model(&models.Company{}).Select("operator_id").Where("id = ?", r.CompanyID).Scan(&operatorID).Error; err != nil {
			return fmt.Errorf("load company of review %d: %w", r.ID, err)
		}
		if operatorID == actor.ID {
			return nil
		}
	}
	return apperr.Denied("only the author, the company operator and admins may edit a review")
}

// recompute runs after the review change has committed, so its failure never
// fails the request. The next recompute, or POST /companies/:id/recompute,
// rebuilds the aggregate from the full population.
func (s *Service) recompute(ctx context.Context, companyID uint) {
	_, err := s.engine.Recompute(ctx, companyID)
	if errors.Is(err, apperr.ErrConcurrencyConflict) {
		s.log.Warn().Err(err).Uint("company_id", companyID).Msg("rating recompute deferred")
		return
	}
	if err != nil {
		s.log.Error().Err(err).Uint("company_id", companyID).Msg("rating recompute failed")
	}
}

func duplicateReview() error {
	return apperr.Invalid("you have already reviewed this company", map[string]string{
		"company_id": "one review per user and company",
	})
}
