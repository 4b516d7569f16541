package company

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Kyz7/reviewhub/internal/apperr"
	"github.com/Kyz7/reviewhub/internal/identity"
	"github.com/Kyz7/reviewhub/internal/models"
	"github.com/Kyz7/reviewhub/internal/rating"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

var policy = bluemonday.StrictPolicy()

type Service struct {
	db     *gorm.DB
	engine *rating.Engine
	log    zerolog.Logger
}

func NewService(db *gorm.DB, engine *rating.Engine, log zerolog.Logger) *Service {
	return &Service{db: db, engine: engine, log: log}
}

type CreateInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	// OperatorID is honoured for admins only; operators always own what they create.
	OperatorID uint `json:"operator_id"`
}

func (s *Service) Create(ctx context.Context, actor identity.Identity, in CreateInput) (models.Company, error) {
	name := strings.TrimSpace(policy.Sanitize(in.Name))
	if name == "" {
		return models.Company{}, apperr.Invalid("validation failed", map[string]string{"name": "name is required"})
	}

	operatorID := actor.ID
	if actor.Is(models.RoleAdmin) {
		operatorID = in.OperatorID
	}
	if operatorID != 0 {
		var op models.User
		err := s.db.WithContext(ctx).First(&op, operatorID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Company{}, apperr.NotFoundf("operator %d", operatorID)
		}
		if err != nil {
			return models.Company{}, fmt.Errorf("load operator: %w", err)
		}
		if op.Role != models.RoleOperator {
			return models.Company{}, apperr.Invalid("validation failed", map[string]string{"operator_id": "user is not an operator"})
		}
	}

	c := models.Company{
		Name:        name,
		Description: strings.TrimSpace(policy.Sanitize(in.Description)),
		Status:      models.CompanyPending,
		OperatorID:  operatorID,
	}
	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		return models.Company{}, fmt.Errorf("create company: %w", err)
	}
	return c, nil
}

// Get hides companies that are not approved from non-privileged audiences.
func (s *Service) Get(ctx context.Context, actor identity.Identity, id uint) (models.Company, error) {
	var c models.Company
	err := s.db.WithContext(ctx).First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Company{}, apperr.NotFoundf("company %d", id)
	}
	if err != nil {
		return models.Company{}, fmt.Errorf("load company %d: %w", id, err)
	}
	if c.Status != models.CompanyApproved && !actor.Privileged() {
		return models.Company{}, apperr.NotFoundf("company %d", id)
	}
	return c, nil
}

func (s *Service) List(ctx context.Context, actor identity.Identity, page, limit int) ([]models.Company, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Company{})
	if !actor.Privileged() {
		q = q.Where("status = ?", models.CompanyApproved)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count companies: %w", err)
	}

	var companies []models.Company
	err := q.Order("ratings_aggregate DESC, id ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&companies).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list companies: %w", err)
	}
	return companies, total, nil
}

var statusTransitions = map[models.CompanyStatus][]models.CompanyStatus{
	models.CompanyPending:  {models.CompanyApproved, models.CompanyRejected},
	models.CompanyRejected: {models.CompanyApproved},
}

// SetStatus is an admin decision on a company listing. It bumps the company
// version, so a concurrent recompute re-reads before writing.
func (s *Service) SetStatus(ctx context.Context, actor identity.Identity, id uint, status models.CompanyStatus) (models.Company, error) {
	if !actor.Is(models.RoleAdmin) {
		return models.Company{}, apperr.Denied("only admins may change company status")
	}

	var c models.Company
	err := s.db.WithContext(ctx).First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Company{}, apperr.NotFoundf("company %d", id)
	}
	if err != nil {
		return models.Company{}, fmt.Errorf("load company %d: %w", id, err)
	}

	allowed := false
	for _, next := range statusTransitions[c.Status] {
		if next == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return models.Company{}, apperr.Transition("company cannot move from %s to %s", c.Status, status)
	}

	res := s.db.WithContext(ctx).Model(&models.Company{}).
		Where("id = ? AND version = ?", id, c.Version).
		Updates(map[string]any{"status": string(status), "version": gorm.Expr("version + 1")})
	if res.Error != nil {
		return models.Company{}, fmt.Errorf("update company %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return models.Company{}, apperr.Conflict("company %d changed concurrently", id)
	}

	c.Status = status
	c.Version++
	s.log.Info().Uint("company_id", id).Str("status", string(status)).Uint("actor_id", actor.ID).Msg("company status changed")
	return c, nil
}

// Recompute is the manual repair trigger for a company aggregate.
func (s *Service) Recompute(ctx context.Context, actor identity.Identity, id uint) (rating.Summary, error) {
	if !actor.Is(models.RoleAdmin) {
		return rating.Summary{}, apperr.Denied("only admins may trigger a recompute")
	}

	var exists int64
	if err := s.db.WithContext(ctx).Model(&models.Company{}).Where("id = ?", id).Count(&exists).Error; err != nil {
		return rating.Summary{}, fmt.Errorf("load company %d: %w", id, err)
	}
	if exists == 0 {
		return rating.Summary{}, apperr.NotFoundf("company %d", id)
	}
	return s.engine.Recompute(ctx, id)
}
