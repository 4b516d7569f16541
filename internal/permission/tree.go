package permission

import (
	"encoding/json"
	"fmt"

	"github.com/Kyz7/reviewhub/internal/apperr"
)

// Tree is a normalized permission document.
type Tree map[ModulePath]Capabilities

// DecodeTree normalizes a stored document. A module leaf may be the shorthand
// true (every capability) or an object of capabilities, where each capability
// is either a boolean or {"value": bool}. Unregistered paths and unknown
// shapes grant nothing. Only malformed JSON is an error.
func DecodeTree(raw []byte) (Tree, error) {
	tree := Tree{}
	if len(raw) == 0 {
		return tree, nil
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode permission document: %w", err)
	}

	for ns, nsRaw := range doc {
		if !namespaces[Namespace(ns)] {
			continue
		}
		var mods map[string]json.RawMessage
		if err := json.Unmarshal(nsRaw, &mods); err != nil {
			continue
		}
		for mod, leaf := range mods {
			if !modules[Module(mod)] {
				continue
			}
			if caps, ok := decodeLeaf(leaf); ok {
				tree[ModulePath{Namespace: Namespace(ns), Module: Module(mod)}] = caps
			}
		}
	}
	return tree, nil
}

func decodeLeaf(raw json.RawMessage) (Capabilities, bool) {
	var short bool
	if err := json.Unmarshal(raw, &short); err == nil {
		if short {
			return Full(), true
		}
		return Capabilities{}, true
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Capabilities{}, false
	}

	var caps Capabilities
	for name, v := range fields {
		cap := Capability(name)
		if !cap.valid() {
			continue
		}
		granted, _ := decodeGrant(v)
		caps.set(cap, granted)
	}
	return caps, true
}

func decodeGrant(raw json.RawMessage) (bool, bool) {
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, true
	}
	var wrapped struct {
		Value *bool `json:"value"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Value != nil {
		return *wrapped.Value, true
	}
	return false, false
}

// EncodeTree writes the canonical object form of a tree.
func EncodeTree(t Tree) ([]byte, error) {
	doc := map[Namespace]map[Module]Capabilities{}
	for p, caps := range t {
		if doc[p.Namespace] == nil {
			doc[p.Namespace] = map[Module]Capabilities{}
		}
		doc[p.Namespace][p.Module] = caps
	}
	return json.Marshal(doc)
}

// ValidateDocument is the strict check applied when an admin writes a tree.
func ValidateDocument(raw []byte) (Tree, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, apperr.Invalid("permission document must be a JSON object", err.Error())
	}

	problems := map[string]string{}
	for ns, nsRaw := range doc {
		if !namespaces[Namespace(ns)] {
			problems[ns] = "unknown namespace"
			continue
		}
		var mods map[string]json.RawMessage
		if err := json.Unmarshal(nsRaw, &mods); err != nil {
			problems[ns] = "namespace must be an object"
			continue
		}
		for mod, leaf := range mods {
			path := ns + "." + mod
			if !modules[Module(mod)] {
				problems[path] = "unknown module"
				continue
			}
			if msg := validateLeaf(leaf); msg != "" {
				problems[path] = msg
			}
		}
	}
	if len(problems) > 0 {
		return nil, apperr.Invalid("invalid permission document", problems)
	}
	return DecodeTree(raw)
}

func validateLeaf(raw json.RawMessage) string {
	var short bool
	if err := json.Unmarshal(raw, &short); err == nil {
		return ""
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return "module must be true or an object of capabilities"
	}
	for name, v := range fields {
		if !Capability(name).valid() {
			return fmt.Sprintf("unknown capability %q", name)
		}
		if _, ok := decodeGrant(v); !ok {
			return fmt.Sprintf("capability %q must be a boolean or {\"value\": boolean}", name)
		}
	}
	return ""
}
