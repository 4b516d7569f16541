package server

import (
	"time"

	"github.com/Kyz7/reviewhub/internal/auth"
	"github.com/Kyz7/reviewhub/internal/blog"
	"github.com/Kyz7/reviewhub/internal/company"
	"github.com/Kyz7/reviewhub/internal/config"
	"github.com/Kyz7/reviewhub/internal/moderation"
	"github.com/Kyz7/reviewhub/internal/permission"
	"github.com/Kyz7/reviewhub/internal/rating"
	"github.com/Kyz7/reviewhub/internal/review"
	"github.com/Kyz7/reviewhub/internal/user"
	"github.com/Kyz7/reviewhub/internal/viewtrack"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Deps are the collaborators the HTTP surface is built from. Locker defaults
// to an in-process lock and Now to time.Now.
type Deps struct {
	DB     *gorm.DB
	Config *config.Config
	Log    zerolog.Logger
	Locker rating.Locker
	Now    func() time.Time
}

type handlers struct {
	auth       *auth.Handler
	middleware *auth.Middleware
	evaluator  *permission.Evaluator
	users      *user.Handler
	trees      *permission.Handler
	companies  *company.Handler
	reviews    *review.Handler
	blogs      *blog.Handler
	moderation *moderation.Handler
}

func New(d Deps) *fiber.App {
	if d.Locker == nil {
		d.Locker = rating.NewLocalLocker()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	cfg := d.Config
	retries := cfg.ConflictRetries

	tokens := auth.NewTokens(cfg.JWTSecret, 15*time.Minute)
	treeStore := permission.NewGormTreeStore(d.DB)
	engine := rating.NewEngine(rating.NewGormStore(d.DB), d.Locker, d.Log.With().Str("component", "rating").Logger(), cfg.RecomputeAttempts)
	modSvc := moderation.NewService(d.DB, d.Log.With().Str("component", "moderation").Logger(), d.Now)
	tracker := viewtrack.NewTracker(viewtrack.NewGormLedger(d.DB), d.Now)

	h := handlers{
		auth:       auth.NewHandler(auth.NewService(d.DB, tokens, d.Log), d.DB),
		middleware: auth.NewMiddleware(d.DB, tokens),
		evaluator:  permission.NewEvaluator(treeStore, d.Log.With().Str("component", "permission").Logger()),
		users:      user.NewHandler(user.NewService(d.DB, treeStore, d.Log)),
		trees:      permission.NewHandler(permission.NewTreeService(d.DB, treeStore)),
		companies:  company.NewHandler(company.NewService(d.DB, engine, d.Log), retries),
		reviews:    review.NewHandler(review.NewService(d.DB, engine, modSvc, d.Log), retries),
		blogs:      blog.NewHandler(blog.NewService(d.DB, tracker, d.Now), retries),
		moderation: moderation.NewHandler(modSvc, retries),
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 4 * 1024 * 1024,
	})

	SetupRoutes(app, d.DB, h)

	return app
}
