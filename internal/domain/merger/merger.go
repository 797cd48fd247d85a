// Package merger applies decoded change records to the resource store.
//
// Every change is a total function of the current store contents: an add for
// a known identity replaces it, an update for an unknown identity creates it,
// and a delete for an unknown identity does nothing. None of them fail.
package merger

import (
	"hue-bridge-client/internal/domain/model"
	"hue-bridge-client/internal/domain/store"
)

// Result is the effect of one merged change.
type Result struct {
	Classification model.Classification
	Identity       model.ResourceIdentity
	// Record is the effective record after the change. For a delete it is the
	// last known value (the tombstone); for a no-op delete it holds only the identity.
	Record model.ResourceRecord
}

func (r Result) Tombstone() bool {
	return r.Classification == model.Deleted || r.Classification == model.NoOp
}

type Merger struct {
	store *store.Store
}

func New(s *store.Store) *Merger {
	return &Merger{store: s}
}

func (m *Merger) Apply(change model.ChangeRecord) Result {
	switch change.Op {
	case model.OpAdd:
		rec := model.ResourceRecord{Identity: change.Identity, Attributes: change.Attributes}
		class := model.Updated
		if m.store.Put(rec) {
			class = model.Created
		}
		return Result{Classification: class, Identity: change.Identity, Record: rec.Clone()}

	case model.OpUpdate:
		rec, created := m.store.Upsert(change.Identity, change.Attributes)
		class := model.Updated
		if created {
			class = model.Created
		}
		return Result{Classification: class, Identity: change.Identity, Record: rec}

	case model.OpDelete:
		rec, ok := m.store.Remove(change.Identity)
		if !ok {
			return Result{Classification: model.NoOp, Identity: change.Identity, Record: model.ResourceRecord{Identity: change.Identity}}
		}
		return Result{Classification: model.Deleted, Identity: change.Identity, Record: rec}
	}
	return Result{Classification: model.NoOp, Identity: change.Identity, Record: model.ResourceRecord{Identity: change.Identity}}
}

// Seed puts every record into the store, replacing what is there.
func (m *Merger) Seed(records []model.ResourceRecord) []Result {
	results := make([]Result, 0, len(records))
	for _, rec := range records {
		results = append(results, m.Apply(model.Add(rec)))
	}
	return results
}

// Reconcile replaces the store contents within scope with a fresh snapshot.
// Every fetched record is merged as an add (full replace). Records in scope
// that the snapshot no longer contains are deleted. A nil scope covers every kind.
func (m *Merger) Reconcile(records []model.ResourceRecord, scope func(model.ResourceKind) bool) []Result {
	fresh := make(map[model.ResourceIdentity]struct{}, len(records))
	results := make([]Result, 0, len(records))
	for _, rec := range records {
		fresh[rec.Identity] = struct{}{}
		results = append(results, m.Apply(model.Add(rec)))
	}

	for _, id := range m.store.Identities() {
		if scope != nil && !scope(id.Kind) {
			continue
		}
		if _, ok := fresh[id]; ok {
			continue
		}
		results = append(results, m.Apply(model.Delete(id)))
	}
	return results
}
