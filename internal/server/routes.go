package server

import (
	"time"

	"github.com/Kyz7/reviewhub/internal/auth"
	"github.com/Kyz7/reviewhub/internal/models"
	"github.com/Kyz7/reviewhub/internal/permission"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, h handlers) {
	// Middleware
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS, PATCH",
	}))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		status := "ok"
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.UserContext()) != nil {
			status = "degraded"
		}
		return c.JSON(fiber.Map{
			"status":  status,
			"message": "Review API is running",
		})
	})

	jwt := h.middleware.JWTProtected()
	optional := h.middleware.OptionalJWT()
	adminOnly := auth.RoleProtected(models.RoleAdmin)
	require := func(m permission.Module, caps ...permission.Capability) fiber.Handler {
		return permission.Require(h.evaluator, permission.On(m, caps...))
	}

	// ==========================================
	// AUTH ROUTES
	// ==========================================
	authGroup := app.Group("/auth")
	authGroup.Use(limiter.New(limiter.Config{
		Max:        20,
		Expiration: 1 * time.Minute,
	}))
	authGroup.Post("/register", h.auth.Register)
	authGroup.Post("/login", limiter.New(limiter.Config{
		Max:        10,
		Expiration: 15 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}), h.auth.Login)
	authGroup.Get("/me", jwt, h.auth.Me)

	// ==========================================
	// USER MANAGEMENT
	// ==========================================
	userGroup := app.Group("/users", jwt)
	userGroup.Get("/", require(permission.ModuleUser, permission.Read), h.users.List)
	userGroup.Get("/:id", require(permission.ModuleUser, permission.Read), h.users.Get)
	userGroup.Post("/", adminOnly, h.users.Create)
	userGroup.Put("/:id/status", adminOnly, h.users.SetStatus)
	userGroup.Delete("/:id", adminOnly, h.users.Delete)
	userGroup.Get("/:id/permissions", adminOnly, h.trees.GetTree)
	userGroup.Put("/:id/permissions", adminOnly, h.trees.ReplaceTree)

	// ==========================================
	// COMPANIES & REVIEWS
	// ==========================================
	companyGroup := app.Group("/companies")
	companyGroup.Get("/", optional, h.companies.List)
	companyGroup.Post("/", jwt, require(permission.ModuleCompany, permission.Create), h.companies.Create)
	companyGroup.Get("/:id", optional, h.companies.Get)
	companyGroup.Put("/:id/status", jwt, adminOnly, h.companies.SetStatus)
	companyGroup.Post("/:id/recompute", jwt, adminOnly, h.companies.Recompute)
	companyGroup.Get("/:id/reviews", optional, h.reviews.List)
	companyGroup.Post("/:id/reviews", jwt, h.reviews.Create)

	reviewGroup := app.Group("/reviews", jwt)
	reviewGroup.Put("/:id", h.reviews.Update)
	reviewGroup.Delete("/:id", h.reviews.Delete)
	reviewGroup.Post("/:id/moderation", h.reviews.Moderate)

	// ==========================================
	// BLOGS
	// ==========================================
	blogGroup := app.Group("/blogs")
	blogGroup.Get("/", optional, h.blogs.List)
	blogGroup.Post("/", jwt, h.blogs.Create)
	blogGroup.Get("/:id", optional, h.blogs.Get)
	blogGroup.Put("/:id", jwt, h.blogs.Update)
	blogGroup.Post("/:id/view", optional, h.blogs.View)
	blogGroup.Post("/:id/moderation", jwt, h.moderation.ModerateBlog)
	blogGroup.Get("/:id/moderation", jwt, require(permission.ModuleBlog, permission.Read), h.moderation.BlogHistory)
}
