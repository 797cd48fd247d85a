package model

import "fmt"

// ChangeOp is the event type carried by the event stream.
type ChangeOp string

const (
	OpAdd    ChangeOp = "add"
	OpUpdate ChangeOp = "update"
	OpDelete ChangeOp = "delete"
)

func ParseChangeOp(s string) (ChangeOp, error) {
	switch ChangeOp(s) {
	case OpAdd, OpUpdate, OpDelete:
		return ChangeOp(s), nil
	}
	return "", fmt.Errorf("unknown change op %q", s)
}

// ChangeRecord is one decoded add/update/delete for a single resource.
// For OpAdd Attributes is the full state, for OpUpdate a partial patch,
// and for OpDelete it is ignored.
type ChangeRecord struct {
	Op         ChangeOp
	Identity   ResourceIdentity
	Attributes Attributes
}

func Add(rec ResourceRecord) ChangeRecord {
	return ChangeRecord{Op: OpAdd, Identity: rec.Identity, Attributes: rec.Attributes}
}

func Update(id ResourceIdentity, patch Attributes) ChangeRecord {
	return ChangeRecord{Op: OpUpdate, Identity: id, Attributes: patch}
}

func Delete(id ResourceIdentity) ChangeRecord {
	return ChangeRecord{Op: OpDelete, Identity: id}
}

// Classification describes the effect a merged change had on the store.
type Classification uint8

const (
	NoOp Classification = iota
	Created
	Updated
	Deleted
)

func (c Classification) String() string {
	switch c {
	case NoOp:
		return "noop"
	case Created:
		return "created"
	case Updated:
		return "updated"
	case Deleted:
		return "deleted"
	default:
		return "unknown"
	}
}
