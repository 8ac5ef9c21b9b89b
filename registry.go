package stash

import "sync"

// hookSet holds the ordered handler lists of every hook.
type hookSet struct {
	buildKey         []Handler[KeyArgs, KeyUpdate]
	beforeSetItem    []Handler[SetItemArgs, SetItemUpdate]
	afterSetItem     []Handler[SetItemResultArgs, SetItemResultUpdate]
	beforeGetItem    []Handler[KeyArgs, KeyUpdate]
	afterGetItem     []Handler[GetItemResultArgs, GetItemResultUpdate]
	beforeHasItem    []Handler[KeyArgs, KeyUpdate]
	afterHasItem     []Handler[ResultArgs, ResultUpdate]
	beforeRemoveItem []Handler[KeyArgs, KeyUpdate]
	afterRemoveItem  []Handler[ResultArgs, ResultUpdate]
	beforeSetExtra   []Handler[SetExtraArgs, SetExtraUpdate]
	afterSetExtra    []Handler[ExtraResultArgs, ExtraResultUpdate]
	beforeGetExtra   []Handler[KeyArgs, KeyUpdate]
	afterGetExtra    []Handler[ExtraResultArgs, ExtraResultUpdate]
}

func appendHandler[A, U any](list []Handler[A, U], h Handler[A, U]) []Handler[A, U] {
	if h == nil {
		return list
	}
	return append(list, h)
}

// Registry accumulates hook handlers. Registration is additive: handlers
// are never replaced or removed, and invocation order is registration
// order across all Register calls.
type Registry struct {
	mu    sync.RWMutex
	hooks hookSet
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends the handlers of each plugin, in order.
func (r *Registry) Register(plugins ...Plugin) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h := &r.hooks
	for _, p := range plugins {
		h.buildKey = appendHandler(h.buildKey, p.BuildKey)
		h.beforeSetItem = appendHandler(h.beforeSetItem, p.BeforeSetItem)
		h.afterSetItem = appendHandler(h.afterSetItem, p.AfterSetItem)
		h.beforeGetItem = appendHandler(h.beforeGetItem, p.BeforeGetItem)
		h.afterGetItem = appendHandler(h.afterGetItem, p.AfterGetItem)
		h.beforeHasItem = appendHandler(h.beforeHasItem, p.BeforeHasItem)
		h.afterHasItem = appendHandler(h.afterHasItem, p.AfterHasItem)
		h.beforeRemoveItem = appendHandler(h.beforeRemoveItem, p.BeforeRemoveItem)
		h.afterRemoveItem = appendHandler(h.afterRemoveItem, p.AfterRemoveItem)
		h.beforeSetExtra = appendHandler(h.beforeSetExtra, p.BeforeSetExtra)
		h.afterSetExtra = appendHandler(h.afterSetExtra, p.AfterSetExtra)
		h.beforeGetExtra = appendHandler(h.beforeGetExtra, p.BeforeGetExtra)
		h.afterGetExtra = appendHandler(h.afterGetExtra, p.AfterGetExtra)
	}
}

// Len returns the number of handlers registered for hook.
func (r *Registry) Len(hook Hook) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h := r.hooks
	switch hook {
	case HookBuildKey:
		return len(h.buildKey)
	case HookBeforeSetItem:
		return len(h.beforeSetItem)
	case HookAfterSetItem:
		return len(h.afterSetItem)
	case HookBeforeGetItem:
		return len(h.beforeGetItem)
	case HookAfterGetItem:
		return len(h.afterGetItem)
	case HookBeforeHasItem:
		return len(h.beforeHasItem)
	case HookAfterHasItem:
		return len(h.afterHasItem)
	case HookBeforeRemoveItem:
		return len(h.beforeRemoveItem)
	case HookAfterRemoveItem:
		return len(h.afterRemoveItem)
	case HookBeforeSetExtra:
		return len(h.beforeSetExtra)
	case HookAfterSetExtra:
		return len(h.afterSetExtra)
	case HookBeforeGetExtra:
		return len(h.beforeGetExtra)
	case HookAfterGetExtra:
		return len(h.afterGetExtra)
	}
	return 0
}

// snapshot returns the handlers registered so far. Lists only ever grow
// by appending, so sharing their backing arrays with later registrations
// is safe.
func (r *Registry) snapshot() hookSet {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hooks
}
