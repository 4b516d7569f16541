package blog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Kyz7/reviewhub/internal/apperr"
	"github.com/Kyz7/reviewhub/internal/identity"
	"github.com/Kyz7/reviewhub/internal/models"
	"github.com/Kyz7/reviewhub/internal/viewtrack"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
)

var (
	bodyPolicy  = bluemonday.UGCPolicy()
	titlePolicy = bluemonday.StrictPolicy()
)

type Service struct {
	db      *gorm.DB
	tracker *viewtrack.Tracker
	now     func() time.Time
}

func NewService(db *gorm.DB, tracker *viewtrack.Tracker, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{db: db, tracker: tracker, now: now}
}

type CreateInput struct {
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Status models.BlogStatus `json:"status"`
}

type UpdateInput struct {
	Title *string `json:"title"`
	Body  *string `json:"body"`
}

type ListQuery struct {
	Page     int
	Limit    int
	Query    string
	AuthorID uint
	From     string
	To       string
	SortBy   string
	Order    string
	Status   models.BlogStatus
	Featured bool
	Flagged  bool
	Deleted  bool
}

// Create stores a new blog owned by actor. Authors may publish directly on
// creation; later publishing goes through moderation.
func (s *Service) Create(ctx context.Context, actor identity.Identity, in CreateInput) (models.Blog, error) {
	title := strings.TrimSpace(titlePolicy.Sanitize(in.Title))
	problems := map[string]string{}
	if title == "" {
		problems["title"] = "title is required"
	}
	if in.Status == "" {
		in.Status = models.BlogDraft
	}
	if in.Status != models.BlogDraft && in.Status != models.BlogPublished {
		problems["status"] = "status must be draft or published"
	}
	if len(problems) > 0 {
		return models.Blog{}, apperr.Invalid("validation failed", problems)
	}

	b := models.Blog{
		AuthorID: actor.ID,
		Title:    title,
		Body:     bodyPolicy.Sanitize(in.Body),
		Status:   in.Status,
	}
	if b.Status == models.BlogPublished {
		now := s.now()
		b.PublishedAt = &now
	}
	if err := s.db.WithContext(ctx).Create(&b).Error; err != nil {
		return models.Blog{}, fmt.Errorf("create blog: %w", err)
	}
	return b, nil
}

func (s *Service) Get(ctx context.Context, actor identity.Identity, id uint) (models.Blog, error) {
	b, err := s.load(ctx, id)
	if err != nil {
		return models.Blog{}, err
	}
	if !visible(b, actor) {
		return models.Blog{}, apperr.NotFoundf("blog %d", id)
	}
	return b, nil
}

func (s *Service) List(ctx context.Context, actor identity.Identity, q ListQuery) ([]models.Blog, int64, error) {
	db := s.db.WithContext(ctx).Model(&models.Blog{})
	if actor.Privileged() {
		db = db.Where("is_deleted = ?", q.Deleted)
		if q.Status != "" {
			db = db.Where("status = ?", q.Status)
		}
		if q.Flagged {
			db = db.Where("is_flagged = ?", true)
		}
	} else {
		db = db.Where("status = ? AND is_deleted = ?", models.BlogPublished, false)
	}
	if q.Featured {
		db = db.Where("is_featured = ?", true)
	}
	if q.AuthorID != 0 {
		db = db.Where("author_id = ?", q.AuthorID)
	}
	db = applyKeyword(db, q.Query)
	db = applyDateRange(db, q.From, q.To)

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count blogs: %w", err)
	}

	var blogs []models.Blog
	err := applySorting(db, q.SortBy, q.Order).
		Offset((q.Page - 1) * q.Limit).
		Limit(q.Limit).
		Find(&blogs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list blogs: %w", err)
	}
	return blogs, total, nil
}

// Update edits title and body. Status and facets change through moderation.
func (s *Service) Update(ctx context.Context, actor identity.Identity, id uint, in UpdateInput) (models.Blog, error) {
	cur, err := s.load(ctx, id)
	if err != nil {
		return models.Blog{}, err
	}
	if actor.ID != cur.AuthorID && !actor.Privileged() {
		return models.Blog{}, apperr.Denied("only the author, admins and operators may edit a blog")
	}
	if cur.IsDeleted {
		return models.Blog{}, apperr.Transition("blog %d is deleted", id)
	}

	cols := map[string]any{}
	if in.Title != nil {
		title := strings.TrimSpace(titlePolicy.Sanitize(*in.Title))
		if title == "" {
			return models.Blog{}, apperr.Invalid("validation failed", map[string]string{"title": "title is required"})
		}
		cur.Title = title
		cols["title"] = title
	}
	if in.Body != nil {
		cur.Body = bodyPolicy.Sanitize(*in.Body)
		cols["body"] = cur.Body
	}
	if len(cols) == 0 {
		return cur, nil
	}
	cols["version"] = gorm.Expr("version + 1")

	res := s.db.WithContext(ctx).Model(&models.Blog{}).Where("id = ? AND version = ?", id, cur.Version).Updates(cols)
	if res.Error != nil {
		return models.Blog{}, fmt.Errorf("update blog %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return models.Blog{}, apperr.Conflict("blog %d changed concurrently", id)
	}
	cur.Version++
	return cur, nil
}

// View counts viewer once per blog. Only blogs the viewer may read are counted.
func (s *Service) View(ctx context.Context, actor identity.Identity, id uint, viewer string) (viewtrack.Result, error) {
	b, err := s.load(ctx, id)
	if err != nil {
		return viewtrack.Result{}, err
	}
	if !visible(b, actor) {
		return viewtrack.Result{}, apperr.NotFoundf("blog %d", id)
	}
	return s.tracker.RecordView(ctx, id, viewer)
}

func (s *Service) load(ctx context.Context, id uint) (models.Blog, error) {
	var b models.Blog
	err := s.db.WithContext(ctx).First(&b, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Blog{}, apperr.NotFoundf("blog %d", id)
	}
	if err != nil {
		return models.Blog{}, fmt.Errorf("load blog %d: %w", id, err)
	}
	return b, nil
}

// visible: deleted blogs are for privileged audiences only; drafts and
// archived blogs also show to their author.
func visible(b models.Blog, actor identity.Identity) bool {
	if actor.Privileged() {
		return true
	}
	if b.IsDeleted {
		return false
	}
	if b.Status == models.BlogPublished {
		return true
	}
	return !actor.Anonymous() && actor.ID == b.AuthorID
}
