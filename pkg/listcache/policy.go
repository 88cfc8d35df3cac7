package listcache

import (
	"context"
	"maps"

	"github.com/fivetwenty-io/storeadmin/pkg/admin"
)

// WriteKind identifies the write a policy reconciles.
type WriteKind string

// Write kinds.
const (
	WriteCreate WriteKind = "create"
	WriteUpdate WriteKind = "update"
	WritePatch  WriteKind = "patch"
	WriteDelete WriteKind = "delete"
)

// Write describes a successful write.
type Write struct {
	Kind WriteKind
	ID   string
	// Record is the record returned by the backend; nil for deletes.
	Record admin.Record
}

// Target is what a WritePolicy reconciles after a write.
type Target interface {
	// Refresh reloads everything the cache holds from the backend.
	Refresh(ctx context.Context) error
	// ApplyLocal folds w into the held collection without a collection
	// fetch.
	ApplyLocal(ctx context.Context, w Write) error
}

// WritePolicy decides how a cache catches up with a successful write.
type WritePolicy interface {
	AfterWrite(ctx context.Context, target Target, w Write) error
}

// RefetchPolicy reloads the whole collection after every write. It is the
// default: the view never diverges from the backend at the cost of one
// extra request per write.
type RefetchPolicy struct{}

// AfterWrite implements WritePolicy.
func (RefetchPolicy) AfterWrite(ctx context.Context, target Target, _ Write) error {
	return target.Refresh(ctx)
}

// LocalPatchPolicy applies the record returned by a write to the held
// collection: creates are appended, updates replace the record with the same
// id, patches are merged over it and deletes remove it. A response without a
// record id, such as a bare acknowledgement, cannot be placed and falls back
// to a refresh.
type LocalPatchPolicy struct{}

// AfterWrite implements WritePolicy.
func (LocalPatchPolicy) AfterWrite(ctx context.Context, target Target, w Write) error {
	if w.Kind != WriteDelete && w.Record.ID() == "" {
		return target.Refresh(ctx)
	}

	return target.ApplyLocal(ctx, w)
}

// patchRecords returns a new collection with w applied. records is never
// modified.
func patchRecords(records []admin.Record, w Write) []admin.Record {
	id := w.ID
	if id == "" && w.Record != nil {
		id = w.Record.ID()
	}

	out := make([]admin.Record, 0, len(records)+1)
	replaced := false

	for _, record := range records {
		if id == "" || record.ID() != id {
			out = append(out, record)

			continue
		}

		switch {
		case w.Kind == WriteDelete:
		case w.Kind == WritePatch && w.Record != nil:
			merged := record.Clone()
			maps.Copy(merged, w.Record)
			out = append(out, merged)
			replaced = true
		case w.Record != nil:
			out = append(out, w.Record)
			replaced = true
		default:
			out = append(out, record)
			replaced = true
		}
	}

	if !replaced && w.Kind != WriteDelete && w.Record != nil {
		out = append(out, w.Record)
	}

	return out
}
