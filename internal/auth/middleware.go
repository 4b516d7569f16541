package auth

import (
	"strings"

	"github.com/Kyz7/reviewhub/internal/identity"
	"github.com/Kyz7/reviewhub/internal/models"
	"github.com/Kyz7/reviewhub/internal/response"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Middleware turns a bearer token into an identity on the request.
type Middleware struct {
	db     *gorm.DB
	tokens *Tokens
}

func NewMiddleware(db *gorm.DB, tokens *Tokens) *Middleware {
	return &Middleware{db: db, tokens: tokens}
}

func (m *Middleware) JWTProtected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return response.Error(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "Missing authorization token", nil)
		}

		raw, ok := bearer(authHeader)
		if !ok {
			return response.Error(c, fiber.StatusUnauthorized, "INVALID_TOKEN_FORMAT", "Invalid token format", nil)
		}

		id, code, msg := m.resolve(c, raw)
		if code != "" {
			return response.Error(c, fiber.StatusUnauthorized, code, msg, nil)
		}

		identity.Store(c, id)
		return c.Next()
	}
}

// OptionalJWT stores an identity when a valid token is present and lets the
// request through anonymously otherwise.
func (m *Middleware) OptionalJWT() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if raw, ok := bearer(c.Get("Authorization")); ok {
			if id, code, _ := m.resolve(c, raw); code == "" {
				identity.Store(c, id)
			}
		}
		return c.Next()
	}
}

func RoleProtected(allowed ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := identity.From(c)
		if id.Anonymous() {
			return response.Unauthorized(c, "Unauthorized")
		}
		if !id.Is(allowed...) {
			return response.Forbidden(c, "You don't have permission to access this resource")
		}
		return c.Next()
	}
}

func (m *Middleware) resolve(c *fiber.Ctx, raw string) (identity.Identity, string, string) {
	userID, err := m.tokens.Parse(raw)
	if err != nil {
		return identity.Identity{}, "INVALID_TOKEN", "Invalid or expired token"
	}

	var u models.User
	if err := m.db.WithContext(c.UserContext()).First(&u, userID).Error; err != nil {
		return identity.Identity{}, "UNAUTHORIZED", "User not found"
	}
	if u.IsDeleted || !u.IsActive {
		return identity.Identity{}, "ACCOUNT_DISABLED", "Account is disabled"
	}
	return identity.FromUser(u), "", ""
}

func bearer(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
