package moderation

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

type blogActionRequest struct {
	Action  BlogAction `json:"action"`
	Reason  string     `json:"reason"`
	Details string     `json:"details"`
}

func (h *Handler) ModerateBlog(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid blog ID", nil)
	}

	var body blogActionRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}
	if body.Action == "" {
		return response.ValidationError(c, map[string]string{"action": "action is required"})
	}

	actor := identity.From(c)
	var blog models.Blog
	err = apperr.RetryConflicts(c.UserContext(), h.retries, func(ctx context.Context) error {
		var err error
		blog, err = h.svc.ApplyBlog(ctx, actor, uint(id), body.Action, Payload{Reason: body.Reason, Details: body.Details})
		return err
	})
	if err != nil {
		return response.FromError(c, err)
	}

	if body.Action == BlogPermanentDelete {
		return response.Success(c, fiber.Map{"id": id, "deleted": true}, "Blog permanently deleted")
	}
	return response.Success(c, blog, "Blog moderation applied")
}

// BlogHistory lists moderation events of a blog. The route requires blog read
// in the caller's permission tree; admins bypass it.
func (h *Handler) BlogHistory(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid blog ID", nil)
	}

	events, err := h.svc.History(c.UserContext(), models.SubjectBlog, uint(id))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, events, "Moderation history retrieved successfully")
}
