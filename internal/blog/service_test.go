package blog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Kyz7/reviewhub/internal/apperr"
	"github.com/Kyz7/reviewhub/internal/blog"
	"github.com/Kyz7/reviewhub/internal/identity"
	"github.com/Kyz7/reviewhub/internal/models"
	"github.com/Kyz7/reviewhub/internal/testutils"
	"github.com/Kyz7/reviewhub/internal/viewtrack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var clock = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

type fixture struct {
	db       *gorm.DB
	svc      *blog.Service
	author   identity.Identity
	reader   identity.Identity
	operator identity.Identity
}

func setup(t *testing.T) fixture {
	db := testutils.TestDB(t)
	now := func() time.Time { return clock }
	tracker := viewtrack.NewTracker(viewtrack.NewGormLedger(db), now)
	return fixture{
		db:       db,
		svc:      blog.NewService(db, tracker, now),
		author:   identity.FromUser(*testutils.CreateTestUser(t, db, "author@example.com", "password123", models.RoleUser)),
		reader:   identity.FromUser(*testutils.CreateTestUser(t, db, "reader@example.com", "password123", models.RoleUser)),
		operator: identity.FromUser(*testutils.CreateTestUser(t, db, "operator@example.com", "password123", models.RoleOperator)),
	}
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	t.Run("Success - Draft by default", func(t *testing.T) {
		b, err := f.svc.Create(ctx, f.author, blog.CreateInput{Title: "First", Body: "<p>hi</p><script>x()</script>"})
		require.NoError(t, err)
		assert.Equal(t, models.BlogDraft, b.Status)
		assert.Nil(t, b.PublishedAt)
		assert.Equal(t, "<p>hi</p>", b.Body)
		assert.Equal(t, f.author.ID, b.AuthorID)
	})

	t.Run("Success - Published on creation is stamped", func(t *testing.T) {
		b, err := f.svc.Create(ctx, f.author, blog.CreateInput{Title: "Live", Status: models.BlogPublished})
		require.NoError(t, err)
		require.NotNil(t, b.PublishedAt)
		assert.True(t, clock.Equal(*b.PublishedAt))
	})

	t.Run("Error - Archived on creation", func(t *testing.T) {
		_, err := f.svc.Create(ctx, f.author, blog.CreateInput{Title: "Old", Status: models.BlogArchived})
		assert.True(t, errors.Is(err, apperr.ErrValidation))
	})

	t.Run("Error - Missing title", func(t *testing.T) {
		_, err := f.svc.Create(ctx, f.author, blog.CreateInput{Title: "   "})
		assert.True(t, errors.Is(err, apperr.ErrValidation))
	})
}

func TestVisibility(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	published := testutils.CreateTestBlog(t, f.db, f.author.ID, models.BlogPublished)
	draft := testutils.CreateTestBlog(t, f.db, f.author.ID, models.BlogDraft)
	deleted := testutils.CreateTestBlog(t, f.db, f.author.ID, models.BlogPublished)
	require.NoError(t, f.db.Model(deleted).Update("is_deleted", true).Error)

	cases := []struct {
		name    string
		actor   identity.Identity
		blogID  uint
		visible bool
	}{
		{"anonymous reads published", identity.Identity{}, published.ID, true},
		{"anonymous cannot read draft", identity.Identity{}, draft.ID, false},
		{"author reads own draft", f.author, draft.ID, true},
		{"reader cannot read draft", f.reader, draft.ID, false},
		{"author cannot read deleted", f.author, deleted.ID, false},
		{"operator reads deleted", f.operator, deleted.ID, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Get(ctx, tc.actor, tc.blogID)
			if tc.visible {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, apperr.ErrNotFound))
			}
		})
	}

	t.Run("Success - Public list shows published only", func(t *testing.T) {
		blogs, total, err := f.svc.List(ctx, identity.Identity{}, blog.ListQuery{Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, blogs, 1)
		assert.Equal(t, published.ID, blogs[0].ID)
	})

	t.Run("Success - Operator lists deleted blogs", func(t *testing.T) {
		blogs, _, err := f.svc.List(ctx, f.operator, blog.ListQuery{Page: 1, Limit: 10, Deleted: true})
		require.NoError(t, err)
		require.Len(t, blogs, 1)
		assert.Equal(t, deleted.ID, blogs[0].ID)
	})
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	b := testutils.CreateTestBlog(t, f.db, f.author.ID, models.BlogDraft)

	t.Run("Success - Author edits title", func(t *testing.T) {
		title := "Renamed"
		out, err := f.svc.Update(ctx, f.author, b.ID, blog.UpdateInput{Title: &title})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", out.Title)
		assert.Equal(t, b.Version+1, out.Version)

		var stored models.Blog
		require.NoError(t, f.db.First(&stored, b.ID).Error)
		assert.Equal(t, "Renamed", stored.Title)
		assert.Equal(t, out.Version, stored.Version)
	})

	t.Run("Error - Reader cannot edit", func(t *testing.T) {
		body := "hijack"
		_, err := f.svc.Update(ctx, f.reader, b.ID, blog.UpdateInput{Body: &body})
		assert.True(t, errors.Is(err, apperr.ErrPermissionDenied))
	})

	t.Run("Error - Blank title", func(t *testing.T) {
		title := ""
		_, err := f.svc.Update(ctx, f.author, b.ID, blog.UpdateInput{Title: &title})
		assert.True(t, errors.Is(err, apperr.ErrValidation))
	})
}

func TestView(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	published := testutils.CreateTestBlog(t, f.db, f.author.ID, models.BlogPublished)
	draft := testutils.CreateTestBlog(t, f.db, f.author.ID, models.BlogDraft)

	t.Run("Success - Repeat views count once", func(t *testing.T) {
		first, err := f.svc.View(ctx, f.reader, published.ID, f.reader.ViewerKey())
		require.NoError(t, err)
		assert.True(t, first.NewView)
		assert.Equal(t, 1, first.TotalViews)

		again, err := f.svc.View(ctx, f.reader, published.ID, f.reader.ViewerKey())
		require.NoError(t, err)
		assert.False(t, again.NewView)
		assert.Equal(t, 1, again.TotalViews)
	})

	t.Run("Error - Hidden draft is not counted", func(t *testing.T) {
		_, err := f.svc.View(ctx, identity.Identity{}, draft.ID, identity.AnonymousViewerKey("10.0.0.1", "curl"))
		assert.True(t, errors.Is(err, apperr.ErrNotFound))

		var stored models.Blog
		require.NoError(t, f.db.First(&stored, draft.ID).Error)
		assert.Zero(t, stored.Views)
	})
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	mk := func(title, body string, at time.Time) models.Blog {
		b := models.Blog{AuthorID: f.author.ID, Title: title, Body: body, Status: models.BlogPublished, PublishedAt: &at}
		require.NoError(t, f.db.Create(&b).Error)
		return b
	}
	goLang := mk("Go generics", "<p>type parameters</p>", time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	rust := mk("Rust traits", "<p>compared with GO interfaces</p>", time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	other := models.Blog{AuthorID: f.reader.ID, Title: "Gardening", Status: models.BlogPublished}
	require.NoError(t, f.db.Create(&other).Error)

	ids := func(blogs []models.Blog) []uint {
		var out []uint
		for _, b := range blogs {
			out = append(out, b.ID)
		}
		return out
	}

	t.Run("Success - Keyword matches title and body", func(t *testing.T) {
		blogs, total, err := f.svc.List(ctx, identity.Identity{}, blog.ListQuery{Page: 1, Limit: 10, Query: "go", SortBy: "published_at", Order: "asc"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Equal(t, []uint{goLang.ID, rust.ID}, ids(blogs))
	})

	t.Run("Success - Date range is inclusive", func(t *testing.T) {
		blogs, _, err := f.svc.List(ctx, identity.Identity{}, blog.ListQuery{Page: 1, Limit: 10, From: "2024-06-01", To: "2024-06-01"})
		require.NoError(t, err)
		assert.Equal(t, []uint{rust.ID}, ids(blogs))
	})

	t.Run("Success - Filter by author", func(t *testing.T) {
		blogs, _, err := f.svc.List(ctx, identity.Identity{}, blog.ListQuery{Page: 1, Limit: 10, AuthorID: f.reader.ID})
		require.NoError(t, err)
		assert.Equal(t, []uint{other.ID}, ids(blogs))
	})
}
