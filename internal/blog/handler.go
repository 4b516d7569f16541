package blog

import (
	"context"

	"github.com/Kyz7/reviewhub/internal/apperr"
	"github.com/Kyz7/reviewhub/internal/identity"
	"github.com/Kyz7/reviewhub/internal/models"
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

	b, err := h.svc.Create(c.UserContext(), identity.From(c), body)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, b, "Blog created successfully")
}

func (h *Handler) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid blog ID", nil)
	}

	b, err := h.svc.Get(c.UserContext(), identity.From(c), uint(id))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, b, "Blog retrieved successfully")
}

func (h *Handler) List(c *fiber.Ctx) error {
	q := ListQuery{
		Page:     c.QueryInt("page", 1),
		Limit:    c.QueryInt("limit", 20),
		Query:    c.Query("q"),
		AuthorID: uint(c.QueryInt("author_id", 0)),
		From:     c.Query("from_date"),
		To:       c.Query("to_date"),
		SortBy:   c.Query("sort_by"),
		Order:    c.Query("order"),
		Status:   models.BlogStatus(c.Query("status")),
		Featured: c.QueryBool("featured", false),
		Flagged:  c.QueryBool("flagged", false),
		Deleted:  c.QueryBool("deleted", false),
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 20
	}

	blogs, total, err := h.svc.List(c.UserContext(), identity.From(c), q)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMeta(c, blogs, response.CalculateMeta(q.Page, q.Limit, total), "Blogs retrieved successfully")
}

func (h *Handler) Update(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid blog ID", nil)
	}

	var body UpdateInput
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	var b models.Blog
	err = apperr.RetryConflicts(c.UserContext(), h.retries, func(ctx context.Context) error {
		var err error
		b, err = h.svc.Update(ctx, identity.From(c), uint(id), body)
		return err
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, b, "Blog updated successfully")
}

// View records a view keyed by the principal, or by a fingerprint of the
// client address and user agent for anonymous visitors.
func (h *Handler) View(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid blog ID", nil)
	}

	actor := identity.From(c)
	viewer := actor.ViewerKey()
	if actor.Anonymous() {
		viewer = identity.AnonymousViewerKey(c.IP(), c.Get(fiber.HeaderUserAgent))
	}

	result, err := h.svc.View(c.UserContext(), actor, uint(id), viewer)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, result, "View recorded")
}
