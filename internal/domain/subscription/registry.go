// Package subscription dispatches merged resource changes to listeners.
//
// Listeners are matched in three tiers: a filter naming an id fires first,
// then filters naming only a kind, then global filters. Within a tier
// listeners fire in registration order. A failing listener never prevents the
// others from running; its error goes to the error sink.
package subscription

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"hue-bridge-client/internal/domain/model"
	"hue-bridge-client/internal/ports"
)

// Filter selects the changes a listener receives. The zero Filter matches
// everything. An ID without a Kind matches that id in any kind.
type Filter struct {
	Kind model.ResourceKind
	ID   string
}

func (f Filter) Matches(id model.ResourceIdentity) bool {
	if f.Kind != "" && f.Kind != id.Kind {
		return false
	}
	if f.ID != "" && f.ID != id.ID {
		return false
	}
	return true
}

type tier uint8

const (
	tierSpecific tier = iota
	tierKind
	tierGlobal
)

func (f Filter) tier() tier {
	switch {
	case f.ID != "":
		return tierSpecific
	case f.Kind != "":
		return tierKind
	default:
		return tierGlobal
	}
}

// Notification is delivered to listeners after a change has been committed.
type Notification struct {
	Classification model.Classification
	Identity       model.ResourceIdentity
	Record         model.ResourceRecord
}

// Callback handles a notification. A returned error or a panic is reported
// to the error sink and otherwise ignored.
type Callback func(Notification) error

// Handle identifies a subscription for Unsubscribe.
type Handle string

type subscription struct {
	handle   Handle
	filter   Filter
	callback Callback
}

type Registry struct {
	mu   sync.RWMutex
	subs []*subscription
	sink ports.ErrorSink
}

func NewRegistry(sink ports.ErrorSink) *Registry {
	return &Registry{sink: sink}
}

func (r *Registry) Subscribe(filter Filter, cb Callback) Handle {
	h := Handle(uuid.NewString())
	r.mu.Lock()
	r.subs = append(r.subs, &subscription{handle: h, filter: filter, callback: cb})
	r.mu.Unlock()
	return h
}

// Unsubscribe removes a subscription and reports whether it existed.
func (r *Registry) Unsubscribe(h Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range r.subs {
		if s.handle == h {
			r.subs = append(r.subs[:i:i], r.subs[i+1:]...)
			return true
		}
	}
	return false
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

// Clear drops every subscription.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.subs = nil
	r.mu.Unlock()
}

// Notify runs every matching listener synchronously. Each listener receives
// its own copy of the record.
func (r *Registry) Notify(class model.Classification, id model.ResourceIdentity, rec model.ResourceRecord) {
	r.mu.RLock()
	var tiers [3][]*subscription
	for _, s := range r.subs {
		if s.filter.Matches(id) {
			t := s.filter.tier()
			tiers[t] = append(tiers[t], s)
		}
	}
	r.mu.RUnlock()

	for _, matched := range tiers {
		for _, s := range matched {
			n := Notification{Classification: class, Identity: id, Record: rec.Clone()}
			if err := invoke(s.callback, n); err != nil {
				r.report(&model.CallbackError{Subscription: string(s.handle), Identity: id, Err: err})
			}
		}
	}
}

func (r *Registry) report(err error) {
	if r.sink != nil {
		r.sink.Report(err)
	}
}

func invoke(cb Callback, n Notification) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return cb(n)
}
