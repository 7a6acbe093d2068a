package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Patch operations form a closed set: three ops over four known fields.
// The wire shape matches RFC 6902 documents ({op, path, value}) so existing
// clients keep working, but application is validated against the schema
// below instead of reflecting over arbitrary paths.
const (
	OpReplace = "replace"
	OpAdd     = "add"
	OpRemove  = "remove"
)

type PatchOp struct {
	Op    string          `json:"op"`
	Path  string          `json:"path"`
	Value json.RawMessage `json:"value,omitempty"`
}

type patchField int

const (
	fieldTitle patchField = iota
	fieldContent
	fieldTags
	fieldArchived
)

// field resolves the op's path case-insensitively; the original client
// sends paths like "/IsArchived".
func (op PatchOp) field() (patchField, error) {
	switch strings.ToLower(strings.TrimPrefix(op.Path, "/")) {
	case "title":
		return fieldTitle, nil
	case "content":
		return fieldContent, nil
	case "tags":
		return fieldTags, nil
	case "isarchived", "archived":
		return fieldArchived, nil
	}
	return 0, &PatchError{Msg: fmt.Sprintf("unknown path %q", op.Path)}
}

// ApplyPatch applies ops to the note in order, stopping at the first
// invalid one. The note is mutated in place; on error it may be partially
// patched, so callers apply to a copy they only persist on success.
func ApplyPatch(n *Note, ops []PatchOp) error {
	if len(ops) == 0 {
		return &PatchError{Msg: "empty patch document"}
	}
	for _, op := range ops {
		f, err := op.field()
		if err != nil {
			return err
		}
		switch op.Op {
		case OpReplace, OpAdd:
			if err := applyValue(n, f, op); err != nil {
				return err
			}
		case OpRemove:
			applyRemove(n, f)
		default:
			return &PatchError{Msg: fmt.Sprintf("unknown op %q", op.Op)}
		}
	}
	return nil
}

func applyValue(n *Note, f patchField, op PatchOp) error {
	bad := func() error {
		return &PatchError{Msg: fmt.Sprintf("invalid value for %q", op.Path)}
	}
	switch f {
	case fieldTitle:
		var v string
		if err := json.Unmarshal(op.Value, &v); err != nil {
			return bad()
		}
		n.Title = v
	case fieldContent:
		var v string
		if err := json.Unmarshal(op.Value, &v); err != nil {
			return bad()
		}
		n.Content = v
	case fieldTags:
		if op.Op == OpAdd {
			var v string
			if err := json.Unmarshal(op.Value, &v); err == nil {
				n.Tags = append(n.Tags, v)
				return nil
			}
		}
		var v []string
		if err := json.Unmarshal(op.Value, &v); err != nil {
			return bad()
		}
		n.Tags = v
	case fieldArchived:
		var v bool
		if err := json.Unmarshal(op.Value, &v); err != nil {
			return bad()
		}
		n.IsArchived = v
	}
	return nil
}

func applyRemove(n *Note, f patchField) {
	switch f {
	case fieldTitle:
		n.Title = ""
	case fieldContent:
		n.Content = ""
	case fieldTags:
		n.Tags = []string{}
	case fieldArchived:
		n.IsArchived = false
	}
}
