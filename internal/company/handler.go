package company

import (
	"context"

	"github.com/Kyz7/reviewhub/internal/apperr"
	"github.com/Kyz7/reviewhub/internal/identity"
	"github.com/Kyz7/reviewhub/internal/models"
	"github.com/Kyz7/reviewhub/internal/rating"
	"github.com/Kyz7/reviewhub/internal/response"
	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	svc     *Service
	retries int
}

func NewHandler(svc *Service, retries int) *Handler {
	return &Handler{svc: svc, retries: retries}
}

func (h *Handler) Create(c *fiber.Ctx) error {
	var body CreateInput
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	company, err := h.svc.Create(c.UserContext(), identity.From(c), body)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, company, "Company created successfully")
}

func (h *Handler) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid company ID", nil)
	}

	company, err := h.svc.Get(c.UserContext(), identity.From(c), uint(id))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, company, "Company retrieved successfully")
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

	companies, total, err := h.svc.List(c.UserContext(), identity.From(c), page, limit)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMeta(c, companies, response.CalculateMeta(page, limit, total), "Companies retrieved successfully")
}

func (h *Handler) SetStatus(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid company ID", nil)
	}

	var body struct {
		Status models.CompanyStatus `json:"status"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}
	if body.Status == "" {
		return response.ValidationError(c, map[string]string{"status": "status is required"})
	}

	var company models.Company
	err = apperr.RetryConflicts(c.UserContext(), h.retries, func(ctx context.Context) error {
		var err error
		company, err = h.svc.SetStatus(ctx, identity.From(c), uint(id), body.Status)
		return err
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, company, "Company status updated successfully")
}

func (h *Handler) Recompute(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid company ID", nil)
	}

	var summary rating.Summary
	err = apperr.RetryConflicts(c.UserContext(), h.retries, func(ctx context.Context) error {
		var err error
		summary, err = h.svc.Recompute(ctx, identity.From(c), uint(id))
		return err
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, summary, "Company rating recomputed")
}
