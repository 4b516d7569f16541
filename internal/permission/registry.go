// Package permission decides whether a principal may act on a named module.
//
// Module paths come from a closed registry: a namespace and a module joined by
// a dot, e.g. "commonPermissions.company". Documents stored per principal are
// normalized into a Tree at load time, so evaluation is a plain map lookup.
package permission

import "strings"

type Namespace string

const (
	NamespaceCommon   Namespace = "commonPermissions"
	NamespaceSpecific Namespace = "specific"
)

type Module string

const (
	ModuleCompany    Module = "company"
	ModuleReview     Module = "review"
	ModuleBlog       Module = "blog"
	ModuleEvent      Module = "event"
	ModuleProduct    Module = "product"
	ModuleUser       Module = "user"
	ModulePermission Module = "permission"
)

var (
	namespaces = map[Namespace]bool{NamespaceCommon: true, NamespaceSpecific: true}
	modules    = map[Module]bool{
		ModuleCompany: true, ModuleReview: true, ModuleBlog: true, ModuleEvent: true,
		ModuleProduct: true, ModuleUser: true, ModulePermission: true,
	}
)

type ModulePath struct {
	Namespace Namespace
	Module    Module
}

func (p ModulePath) String() string {
	return string(p.Namespace) + "." + string(p.Module)
}

func Common(m Module) ModulePath   { return ModulePath{Namespace: NamespaceCommon, Module: m} }
func Specific(m Module) ModulePath { return ModulePath{Namespace: NamespaceSpecific, Module: m} }

// ParsePath resolves a dotted path against the registry. Bare module names
// belong to the common namespace. ok is false for anything unregistered.
func ParsePath(s string) (ModulePath, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ModulePath{}, false
	}

	parts := strings.Split(s, ".")
	switch len(parts) {
	case 1:
		parts = []string{string(NamespaceCommon), parts[0]}
	case 2:
	default:
		return ModulePath{}, false
	}

	p := ModulePath{Namespace: Namespace(parts[0]), Module: Module(parts[1])}
	if !namespaces[p.Namespace] || !modules[p.Module] {
		return ModulePath{}, false
	}
	return p, true
}

type Capability string

const (
	Create Capability = "create"
	Read   Capability = "read"
	Update Capability = "update"
	Delete Capability = "delete"
)

var AllCapabilities = []Capability{Create, Read, Update, Delete}

func (c Capability) valid() bool {
	switch c {
	case Create, Read, Update, Delete:
		return true
	}
	return false
}

type Capabilities struct {
	Create bool `json:"create"`
	Read   bool `json:"read"`
	Update bool `json:"update"`
	Delete bool `json:"delete"`
}

func Full() Capabilities {
	return Capabilities{Create: true, Read: true, Update: true, Delete: true}
}

func (c Capabilities) Has(cap Capability) bool {
	switch cap {
	case Create:
		return c.Create
	case Read:
		return c.Read
	case Update:
		return c.Update
	case Delete:
		return c.Delete
	}
	return false
}

func (c *Capabilities) set(cap Capability, v bool) {
	switch cap {
	case Create:
		c.Create = v
	case Read:
		c.Read = v
	case Update:
		c.Update = v
	case Delete:
		c.Delete = v
	}
}

// HasAll reports whether every required capability is granted.
func (c Capabilities) HasAll(required []Capability) bool {
	for _, cap := range required {
		if !c.Has(cap) {
			return false
		}
	}
	return true
}
