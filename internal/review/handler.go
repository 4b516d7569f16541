package review

import (
	"context"

	"github.com/Kyz7/reviewhub/internal/apperr"
	"github.com/Kyz7/reviewhub/internal/identity"
	"github.com/Kyz7/reviewhub/internal/models"
	"github.com/Kyz7/reviewhub/internal/moderation"
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
	companyID, err := c.ParamsInt("id")
	if err != nil || companyID <= 0 {
		return response.BadRequest(c, "Invalid company ID", nil)
	}

	var body CreateInput
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	r, err := h.svc.Create(c.UserContext(), identity.From(c), uint(companyID), body)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, r, "Review created successfully")
}

func (h *Handler) List(c *fiber.Ctx) error {
	companyID, err := c.ParamsInt("id")
	if err != nil || companyID <= 0 {
		return response.BadRequest(c, "Invalid company ID", nil)
	}

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	reviews, total, err := h.svc.ListByCompany(c.UserContext(), identity.From(c), uint(companyID), page, limit)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMeta(c, reviews, response.CalculateMeta(page, limit, total), "Reviews retrieved successfully")
}

func (h *Handler) Update(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid review ID", nil)
	}

	var body UpdateInput
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	var r models.Review
	err = apperr.RetryConflicts(c.UserContext(), h.retries, func(ctx context.Context) error {
		var err error
		r, err = h.svc.Update(ctx, identity.From(c), uint(id), body)
		return err
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, r, "Review updated successfully")
}

func (h *Handler) Delete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid review ID", nil)
	}

	err = apperr.RetryConflicts(c.UserContext(), h.retries, func(ctx context.Context) error {
		return h.svc.Delete(ctx, identity.From(c), uint(id))
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.NoContent(c)
}

func (h *Handler) Moderate(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid review ID", nil)
	}

	var body struct {
		Action moderation.ReviewAction `json:"action"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}
	if body.Action == "" {
		return response.ValidationError(c, map[string]string{"action": "action is required"})
	}

	var r models.Review
	err = apperr.RetryConflicts(c.UserContext(), h.retries, func(ctx context.Context) error {
		var err error
		r, err = h.svc.Moderate(ctx, identity.From(c), uint(id), body.Action)
		return err
	})
	if err != nil {
		return response.FromError(c, err)
	}
	if body.Action == moderation.ReviewPermanentDelete {
		return response.Success(c, fiber.Map{"id": id, "deleted": true}, "Review permanently deleted")
	}
	return response.Success(c, r, "Review moderation applied")
}
