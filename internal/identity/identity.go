// Package identity carries the acting principal through a request.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/Kyz7/reviewhub/internal/models"
	"github.com/gofiber/fiber/v2"
)

const localsKey = "identity"

// Identity is an immutable snapshot of the authenticated principal. The zero
// value is an anonymous visitor.
type Identity struct {
	ID        uint
	Role      models.Role
	IsActive  bool
	IsDeleted bool
}

func FromUser(u models.User) Identity {
	return Identity{ID: u.ID, Role: u.Role, IsActive: u.IsActive, IsDeleted: u.IsDeleted}
}

func (i Identity) Anonymous() bool { return i.ID == 0 }

func (i Identity) Is(roles ...models.Role) bool {
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}

// Privileged reports whether the principal moderates content platform-wide.
func (i Identity) Privileged() bool {
	return i.Is(models.RoleAdmin, models.RoleOperator)
}

func (i Identity) ViewerKey() string {
	return fmt.Sprintf("user_%d", i.ID)
}

// AnonymousViewerKey derives a stable viewer key from connection metadata.
func AnonymousViewerKey(addr, userAgent string) string {
	sum := sha256.Sum256([]byte(addr + "|" + userAgent))
	return "anon_" + hex.EncodeToString(sum[:16])
}

func Store(c *fiber.Ctx, id Identity) {
	c.Locals(localsKey, id)
}

// From returns the identity stored on the request, or the anonymous identity.
func From(c *fiber.Ctx) Identity {
	id, _ := c.Locals(localsKey).(Identity)
	return id
}
