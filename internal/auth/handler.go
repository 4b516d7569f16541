package auth

import (
	"errors"

	"github.com/Kyz7/reviewhub/internal/identity"
	"github.com/Kyz7/reviewhub/internal/models"
	"github.com/Kyz7/reviewhub/internal/response"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type Handler struct {
	svc *Service
	db  *gorm.DB
}

func NewHandler(svc *Service, db *gorm.DB) *Handler {
	return &Handler{svc: svc, db: db}
}

func (h *Handler) Register(c *fiber.Ctx) error {
	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	problems := map[string]string{}
	if body.Name == "" {
		problems["name"] = "name is required"
	}
	if body.Email == "" {
		problems["email"] = "email is required"
	}
	if len(body.Password) < 8 {
		problems["password"] = "password must be at least 8 characters"
	}
	if len(problems) > 0 {
		return response.ValidationError(c, problems)
	}

	u, token, err := h.svc.Register(c.UserContext(), body.Name, body.Email, body.Password)
	if errors.Is(err, ErrEmailTaken) {
		return response.Conflict(c, "Email already registered")
	}
	if err != nil {
		return response.InternalError(c, "Failed to create user")
	}

	return response.Created(c, fiber.Map{
		"access_token": token,
		"expires_in":   int(h.svc.tokens.TTL().Seconds()),
		"user":         u,
	}, "Registration successful")
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	if body.Email == "" || body.Password == "" {
		return response.ValidationError(c, map[string]string{
			"email":    "email is required",
			"password": "password is required",
		})
	}

	u, token, err := h.svc.Login(c.UserContext(), body.Email, body.Password)
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return response.Unauthorized(c, "Invalid email or password")
	case errors.Is(err, ErrAccountDisabled):
		return response.Forbidden(c, "Account is disabled")
	case err != nil:
		return response.InternalError(c, "Failed to log in")
	}

	return response.Success(c, fiber.Map{
		"access_token": token,
		"expires_in":   int(h.svc.tokens.TTL().Seconds()),
		"user":         u,
	}, "Login successful")
}

func (h *Handler) Me(c *fiber.Ctx) error {
	id := identity.From(c)

	var u models.User
	if err := h.db.WithContext(c.UserContext()).First(&u, id.ID).Error; err != nil {
		return response.NotFound(c, "User")
	}
	return response.Success(c, u, "Profile retrieved successfully")
}
