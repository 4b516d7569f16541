package moderation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Kyz7/reviewhub/internal/apperr"
	"github.com/Kyz7/reviewhub/internal/identity"
	"github.com/Kyz7/reviewhub/internal/models"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type Service struct {
	db       *gorm.DB
	log      zerolog.Logger
	now      func() time.Time
	sanitize *bluemonday.Policy
}

func NewService(db *gorm.DB, log zerolog.Logger, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{db: db, log: log, now: now, sanitize: bluemonday.StrictPolicy()}
}

// ApplyBlog loads the blog, runs the transition and writes the result only if
// the blog version is unchanged since it was read.
func (s *Service) ApplyBlog(ctx context.Context, actor identity.Identity, blogID uint, action BlogAction, p Payload) (models.Blog, error) {
	p.Reason = strings.TrimSpace(p.Reason)
	p.Details = strings.TrimSpace(s.sanitize.Sanitize(p.Details))

	var out models.Blog
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur models.Blog
		if err := tx.First(&cur, blogID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("blog %d", blogID)
			}
			return fmt.Errorf("load blog %d: %w", blogID, err)
		}

		next, err := TransitionBlog(cur, action, actor, p, s.now())
		if err != nil {
			return err
		}

		if action == BlogPermanentDelete {
			if err := tx.Where("blog_id = ?", blogID).Delete(&models.BlogView{}).Error; err != nil {
				return fmt.Errorf("delete views of blog %d: %w", blogID, err)
			}
			res := tx.Where("id = ? AND version = ?", blogID, cur.Version).Delete(&models.Blog{})
			if res.Error != nil {
				return fmt.Errorf("delete blog %d: %w", blogID, res.Error)
			}
			if res.RowsAffected == 0 {
				return apperr.Conflict("blog %d changed concurrently", blogID)
			}
		} else {
			res := tx.Model(&models.Blog{}).
				Where("id = ? AND version = ?", blogID, cur.Version).
				Updates(blogColumns(next))
			if res.Error != nil {
				return fmt.Errorf("update blog %d: %w", blogID, res.Error)
			}
			if res.RowsAffected == 0 {
				return apperr.Conflict("blog %d changed concurrently", blogID)
			}
			next.Version = cur.Version + 1
		}

		event := models.ModerationEvent{
			SubjectType: models.SubjectBlog,
			SubjectID:   blogID,
			Action:      string(action),
			ActorID:     actor.ID,
		}
		if action == BlogFlag {
			event.Reason = p.Reason
			event.Details = p.Details
		}
		if err := tx.Create(&event).Error; err != nil {
			return fmt.Errorf("record moderation event: %w", err)
		}

		out = next
		return nil
	})
	if err != nil {
		s.logRejected(err, "blog", blogID, string(action), actor)
		return models.Blog{}, err
	}
	return out, nil
}

// ApplyReview is ApplyBlog for reviews. A permanent delete removes the row;
// the caller is responsible for recomputing the company aggregate.
func (s *Service) ApplyReview(ctx context.Context, actor identity.Identity, reviewID uint, action ReviewAction) (models.Review, error) {
	var out models.Review
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur models.Review
		if err := tx.First(&cur, reviewID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("review %d", reviewID)
			}
			return fmt.Errorf("load review %d: %w", reviewID, err)
		}

		var operatorID uint
		if err := tx.Model(&models.Company{}).Select("operator_id").Where("id = ?", cur.CompanyID).Scan(&operatorID).Error; err != nil {
			return fmt.Errorf("load company of review %d: %w", reviewID, err)
		}

		next, err := TransitionReview(cur, operatorID, action, actor)
		if err != nil {
			return err
		}

		var res *gorm.DB
		if action == ReviewPermanentDelete {
			res = tx.Where("id = ? AND version = ?", reviewID, cur.Version).Delete(&models.Review{})
		} else {
			res = tx.Model(&models.Review{}).
				Where("id = ? AND version = ?", reviewID, cur.Version).
				Updates(map[string]any{
					"is_hidden": next.IsHidden,
					"is_pinned": next.IsPinned,
					"version":   gorm.Expr("version + 1"),
				})
			next.Version = cur.Version + 1
		}
		if res.Error != nil {
			return fmt.Errorf("write review %d: %w", reviewID, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("review %d changed concurrently", reviewID)
		}

		event := models.ModerationEvent{
			SubjectType: models.SubjectReview,
			SubjectID:   reviewID,
			Action:      string(action),
			ActorID:     actor.ID,
		}
		if err := tx.Create(&event).Error; err != nil {
			return fmt.Errorf("record moderation event: %w", err)
		}

		out = next
		return nil
	})
	if err != nil {
		s.logRejected(err, "review", reviewID, string(action), actor)
		return models.Review{}, err
	}
	return out, nil
}

// History lists the moderation events of one subject, newest first.
func (s *Service) History(ctx context.Context, subject models.SubjectType, id uint) ([]models.ModerationEvent, error) {
	var events []models.ModerationEvent
	err := s.db.WithContext(ctx).
		Where("subject_type = ? AND subject_id = ?", subject, id).
		Order("id DESC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("list moderation events: %w", err)
	}
	return events, nil
}

func (s *Service) logRejected(err error, subject string, id uint, action string, actor identity.Identity) {
	kind, ok := apperr.KindOf(err)
	if !ok {
		s.log.Error().Err(err).Str("subject", subject).Uint("id", id).Str("action", action).Msg("moderation failed")
		return
	}
	s.log.Debug().
		Str("kind", string(kind)).
		Str("subject", subject).
		Uint("id", id).
		Str("action", action).
		Uint("actor_id", actor.ID).
		Msg(err.Error())
}

func blogColumns(b models.Blog) map[string]any {
	cols := map[string]any{
		"status":       string(b.Status),
		"published_at": nil,
		"is_featured":  b.IsFeatured,
		"is_deleted":   b.IsDeleted,
		"is_flagged":   b.IsFlagged,
		"flag_reason":  nil,
		"flag_details": nil,
		"flagged_by":   nil,
		"flagged_at":   nil,
		"version":      gorm.Expr("version + 1"),
	}
	if b.PublishedAt != nil {
		cols["published_at"] = *b.PublishedAt
	}
	if b.FlagReason != nil {
		cols["flag_reason"] = string(*b.FlagReason)
	}
	if b.FlagDetails != nil {
		cols["flag_details"] = *b.FlagDetails
	}
	if b.FlaggedBy != nil {
		cols["flagged_by"] = *b.FlaggedBy
	}
	if b.FlaggedAt != nil {
		cols["flagged_at"] = *b.FlaggedAt
	}
	return cols
}
