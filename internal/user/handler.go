package user

import (
	"errors"

	"github.com/Kyz7/reviewhub/internal/identity"
	"github.com/Kyz7/reviewhub/internal/models"
	"github.com/Kyz7/reviewhub/internal/response"
	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Create(c *fiber.Ctx) error {
	var body CreateInput
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	u, err := h.svc.Create(c.UserContext(), identity.From(c), body)
	if errors.Is(err, ErrEmailTaken) {
		return response.Conflict(c, "User with this email already exists")
	}
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, u, "User created successfully")
}

func (h *Handler) List(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	users, total, err := h.svc.List(c.UserContext(), page, limit, models.Role(c.Query("role")))
	if err != nil {
		return response.InternalError(c, "Failed to fetch users")
	}
	return response.SuccessWithMeta(c, users, response.CalculateMeta(page, limit, total), "Users retrieved successfully")
}

func (h *Handler) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid user ID", nil)
	}

	u, err := h.svc.Get(c.UserContext(), uint(id))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, u, "User retrieved successfully")
}

func (h *Handler) SetStatus(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid user ID", nil)
	}

	var body struct {
		IsActive *bool `json:"is_active"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}
	if body.IsActive == nil {
		return response.ValidationError(c, map[string]string{"is_active": "is_active is required"})
	}

	u, err := h.svc.SetActive(c.UserContext(), identity.From(c), uint(id), *body.IsActive)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, u, "User status updated successfully")
}

func (h *Handler) Delete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid user ID", nil)
	}

	u, err := h.svc.SoftDelete(c.UserContext(), identity.From(c), uint(id))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, u, "User deleted successfully")
}
