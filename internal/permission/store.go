package permission

import (
	"context"
	"errors"
	"fmt"

	"github.com/Kyz7/reviewhub/internal/apperr"
	"github.com/Kyz7/reviewhub/internal/identity"
	"github.com/Kyz7/reviewhub/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormTreeStore struct {
	db *gorm.DB
}

func NewGormTreeStore(db *gorm.DB) *GormTreeStore {
	return &GormTreeStore{db: db}
}

// WithTx returns a store bound to an open transaction.
func (s *GormTreeStore) WithTx(tx *gorm.DB) *GormTreeStore {
	return &GormTreeStore{db: tx}
}

func (s *GormTreeStore) LoadTree(ctx context.Context, principalID uint) (Tree, bool, error) {
	var row models.PermissionTree
	err := s.db.WithContext(ctx).Where("user_id = ?", principalID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	tree, err := DecodeTree(row.Document)
	if err != nil {
		return nil, false, err
	}
	return tree, true, nil
}

// SaveTree creates or replaces the tree of a principal.
func (s *GormTreeStore) SaveTree(ctx context.Context, principalID, updatedBy uint, tree Tree) error {
	doc, err := EncodeTree(tree)
	if err != nil {
		return err
	}
	row := models.PermissionTree{
		UserID:    principalID,
		Document:  datatypes.JSON(doc),
		UpdatedBy: updatedBy,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"document", "updated_by", "updated_at"}),
	}).Create(&row).Error
}

// TreeService lets admins read and replace permission trees.
type TreeService struct {
	db    *gorm.DB
	store *GormTreeStore
}

func NewTreeService(db *gorm.DB, store *GormTreeStore) *TreeService {
	return &TreeService{db: db, store: store}
}

func (s *TreeService) Get(ctx context.Context, actor identity.Identity, principalID uint) (Tree, error) {
	if !actor.Is(models.RoleAdmin) {
		return nil, apperr.Denied("only admins may read permission trees")
	}
	if err := s.ensurePrincipal(ctx, principalID); err != nil {
		return nil, err
	}
	tree, found, err := s.store.LoadTree(ctx, principalID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperr.NotFoundf("permission tree for user %d", principalID)
	}
	return tree, nil
}

func (s *TreeService) Replace(ctx context.Context, actor identity.Identity, principalID uint, raw []byte) (Tree, error) {
	if !actor.Is(models.RoleAdmin) {
		return nil, apperr.Denied("only admins may edit permission trees")
	}
	tree, err := ValidateDocument(raw)
	if err != nil {
		return nil, err
	}
	if err := s.ensurePrincipal(ctx, principalID); err != nil {
		return nil, err
	}
	if err := s.store.SaveTree(ctx, principalID, actor.ID, tree); err != nil {
		return nil, fmt.Errorf("save permission tree: %w", err)
	}
	return tree, nil
}

func (s *TreeService) ensurePrincipal(ctx context.Context, principalID uint) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", principalID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return apperr.NotFoundf("user %d", principalID)
	}
	return nil
}
