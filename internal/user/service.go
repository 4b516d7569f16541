package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Kyz7/reviewhub/internal/apperr"
	"github.com/Kyz7/reviewhub/internal/auth"
	"github.com/Kyz7/reviewhub/internal/identity"
	"github.com/Kyz7/reviewhub/internal/models"
	"github.com/Kyz7/reviewhub/internal/permission"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

var ErrEmailTaken = errors.New("user with this email already exists")

// Service is the admin surface over principals. Accounts are never removed;
// deletion only sets the soft marker.
type Service struct {
	db    *gorm.DB
	trees *permission.GormTreeStore
	log   zerolog.Logger
}

func NewService(db *gorm.DB, trees *permission.GormTreeStore, log zerolog.Logger) *Service {
	return &Service{db: db, trees: trees, log: log}
}

type CreateInput struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

// Create provisions an account. Operators and sub-admins get their default
// permission tree in the same transaction.
func (s *Service) Create(ctx context.Context, actor identity.Identity, in CreateInput) (models.User, error) {
	if !actor.Is(models.RoleAdmin) {
		return models.User{}, apperr.Denied("only admins may create accounts")
	}

	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	problems := map[string]string{}
	if strings.TrimSpace(in.Name) == "" {
		problems["name"] = "name is required"
	}
	if in.Email == "" {
		problems["email"] = "email is required"
	}
	if len(in.Password) < 8 {
		problems["password"] = "password must be at least 8 characters"
	}
	if !in.Role.Valid() {
		problems["role"] = "role must be one of admin, operator, sub_admin, user"
	}
	if len(problems) > 0 {
		return models.User{}, apperr.Invalid("validation failed", problems)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	u := models.User{
		Name:     strings.TrimSpace(in.Name),
		Email:    in.Email,
		Password: hash,
		Role:     in.Role,
		IsActive: true,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", u.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrEmailTaken
		}
		if err := tx.Create(&u).Error; err != nil {
			return err
		}
		if tree, ok := permission.DefaultTree(u.Role); ok {
			return s.trees.WithTx(tx).SaveTree(ctx, u.ID, actor.ID, tree)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) || errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}

	s.log.Info().Uint("user_id", u.ID).Str("role", string(u.Role)).Uint("actor_id", actor.ID).Msg("account provisioned")
	return u, nil
}

func (s *Service) List(ctx context.Context, page, limit int, role models.Role) ([]models.User, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.User{})
	if role != "" {
		q = q.Where("role = ?", role)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	var users []models.User
	if err := q.Order("id ASC").Offset((page - 1) * limit).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

func (s *Service) Get(ctx context.Context, id uint) (models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, apperr.NotFoundf("user %d", id)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("load user %d: %w", id, err)
	}
	return u, nil
}

func (s *Service) SetActive(ctx context.Context, actor identity.Identity, id uint, active bool) (models.User, error) {
	return s.setFlag(ctx, actor, id, "is_active", active)
}

func (s *Service) SoftDelete(ctx context.Context, actor identity.Identity, id uint) (models.User, error) {
	return s.setFlag(ctx, actor, id, "is_deleted", true)
}

func (s *Service) setFlag(ctx context.Context, actor identity.Identity, id uint, column string, value bool) (models.User, error) {
	if !actor.Is(models.RoleAdmin) {
		return models.User{}, apperr.Denied("only admins may change account status")
	}
	if actor.ID == id {
		return models.User{}, apperr.Invalid("cannot change your own account status", nil)
	}

	u, err := s.Get(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	if err := s.db.WithContext(ctx).Model(&u).Update(column, value).Error; err != nil {
		return models.User{}, fmt.Errorf("update user %d: %w", id, err)
	}
	return s.Get(ctx, id)
}
