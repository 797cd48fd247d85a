// Package store holds the local mirror of the bridge resource graph.
package store

import (
	"fmt"
	"sort"
	"sync"

	"hue-bridge-client/internal/domain/model"
)

type entry struct {
	record model.ResourceRecord
	// seq orders records by first observation; it survives replaces and patches.
	seq uint64
}

// Store maps resource identities to records. Writers are serialized; readers
// always get a deep copy, never an alias into the store.
type Store struct {
	mu     sync.RWMutex
	byKind map[model.ResourceKind]map[string]*entry
	seq    uint64
}

func New() *Store {
	return &Store{byKind: make(map[model.ResourceKind]map[string]*entry)}
}

func (s *Store) Get(id model.ResourceIdentity) (model.ResourceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.byKind[id.Kind][id.ID]
	if !ok {
		return model.ResourceRecord{}, fmt.Errorf("%s: %w", id, model.ErrNotFound)
	}
	return e.record.Clone(), nil
}

func (s *Store) Has(id model.ResourceIdentity) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byKind[id.Kind][id.ID]
	return ok
}

// List returns the records of one kind in order of first observation.
func (s *Store) List(kind model.ResourceKind) []model.ResourceRecord {
	s.mu.RLock()
	entries := make([]*entry, 0, len(s.byKind[kind]))
	for _, e := range s.byKind[kind] {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	out := make([]model.ResourceRecord, len(entries))
	for i, e := range entries {
		out[i] = e.record.Clone()
	}
	s.mu.RUnlock()
	return out
}

// Kinds returns every kind that currently has at least one record.
func (s *Store) Kinds() []model.ResourceKind {
	s.mu.RLock()
	defer s.mu.RUnlock()
	kinds := make([]model.ResourceKind, 0, len(s.byKind))
	for k, m := range s.byKind {
		if len(m) > 0 {
			kinds = append(kinds, k)
		}
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Identities returns the identities of all records of the given kinds, or all
// records when no kind is given. Kinds are sorted by name and records within a
// kind by first observation.
func (s *Store) Identities(kinds ...model.ResourceKind) []model.ResourceIdentity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(kinds) == 0 {
		for k := range s.byKind {
			kinds = append(kinds, k)
		}
		sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	}
	var ids []model.ResourceIdentity
	for _, k := range kinds {
		entries := make([]*entry, 0, len(s.byKind[k]))
		for _, e := range s.byKind[k] {
			entries = append(entries, e)
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
		for _, e := range entries {
			ids = append(ids, e.record.Identity)
		}
	}
	return ids
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, m := range s.byKind {
		n += len(m)
	}
	return n
}

// Put inserts or fully replaces a record and reports whether it was new.
func (s *Store) Put(rec model.ResourceRecord) (created bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.lookup(rec.Identity); ok {
		e.record = rec.Clone()
		return false
	}
	s.insert(rec)
	return true
}

// Patch merges attrs shallowly into an existing record and returns the result.
func (s *Store) Patch(id model.ResourceIdentity, attrs model.Attributes) (model.ResourceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.lookup(id)
	if !ok {
		return model.ResourceRecord{}, fmt.Errorf("%s: %w", id, model.ErrNotFound)
	}
	e.record.Attributes = e.record.Attributes.Merge(attrs)
	return e.record.Clone(), nil
}

// Upsert patches an existing record, or inserts attrs as the full state of a
// new one. Both paths run under one write lock.
func (s *Store) Upsert(id model.ResourceIdentity, attrs model.Attributes) (rec model.ResourceRecord, created bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.lookup(id); ok {
		e.record.Attributes = e.record.Attributes.Merge(attrs)
		return e.record.Clone(), false
	}
	e := s.insert(model.ResourceRecord{Identity: id, Attributes: attrs})
	return e.record.Clone(), true
}

// Remove deletes a record and returns the last value it held.
func (s *Store) Remove(id model.ResourceIdentity) (model.ResourceRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.lookup(id)
	if !ok {
		return model.ResourceRecord{}, false
	}
	delete(s.byKind[id.Kind], id.ID)
	if len(s.byKind[id.Kind]) == 0 {
		delete(s.byKind, id.Kind)
	}
	return e.record, true
}

// Clear drops every record.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byKind = make(map[model.ResourceKind]map[string]*entry)
}

func (s *Store) lookup(id model.ResourceIdentity) (*entry, bool) {
	e, ok := s.byKind[id.Kind][id.ID]
	return e, ok
}

func (s *Store) insert(rec model.ResourceRecord) *entry {
	m, ok := s.byKind[rec.Identity.Kind]
	if !ok {
		m = make(map[string]*entry)
		s.byKind[rec.Identity.Kind] = m
	}
	s.seq++
	e := &entry{record: rec.Clone(), seq: s.seq}
	m[rec.Identity.ID] = e
	return e
}
