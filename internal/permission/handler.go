package permission

import (
	"github.com/Kyz7/reviewhub/internal/identity"
	"github.com/Kyz7/reviewhub/internal/response"
	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	svc *TreeService
}

func NewHandler(svc *TreeService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) GetTree(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid user ID", nil)
	}

	tree, err := h.svc.Get(c.UserContext(), identity.From(c), uint(id))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, documentOf(tree), "Permission tree retrieved successfully")
}

func (h *Handler) ReplaceTree(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid user ID", nil)
	}

	tree, err := h.svc.Replace(c.UserContext(), identity.From(c), uint(id), c.Body())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, documentOf(tree), "Permission tree updated successfully")
}

func documentOf(t Tree) map[string]map[string]Capabilities {
	doc := map[string]map[string]Capabilities{}
	for p, caps := range t {
		ns := string(p.Namespace)
		if doc[ns] == nil {
			doc[ns] = map[string]Capabilities{}
		}
		doc[ns][string(p.Module)] = caps
	}
	return doc
}
