package permission

import (
	"github.com/Kyz7/reviewhub/internal/identity"
	"github.com/Kyz7/reviewhub/internal/models"
	"github.com/Kyz7/reviewhub/internal/response"
	"github.com/gofiber/fiber/v2"
)

// Rule describes one route's module check.
type Rule struct {
	Paths        []string
	Capabilities []Capability
	Bypass       []models.Role
}

// Require guards a route with a module check. It expects an authenticated
// identity on the request.
func Require(ev *Evaluator, rule Rule) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := identity.From(c)
		if id.Anonymous() {
			return response.Unauthorized(c, "Unauthorized")
		}

		d, err := ev.Evaluate(c.UserContext(), id, rule.Paths, rule.Capabilities, rule.Bypass)
		if err != nil {
			return response.InternalError(c, "Failed to evaluate permissions")
		}
		if !d.Allowed {
			return response.Forbidden(c, d.Reason)
		}
		return c.Next()
	}
}

// On is shorthand for a rule over one module, checked first in the specific
// namespace and then in the common one.
func On(m Module, caps ...Capability) Rule {
	return Rule{
		Paths:        []string{Specific(m).String(), Common(m).String()},
		Capabilities: caps,
		Bypass:       []models.Role{models.RoleAdmin},
	}
}
