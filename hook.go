package stash

import "context"

// Hook names an extension point of the operation pipeline.
type Hook string

// Hooks run around the six operations.
const (
	HookBuildKey         Hook = "buildKey"
	HookBeforeSetItem    Hook = "beforeSetItem"
	HookAfterSetItem     Hook = "afterSetItem"
	HookBeforeGetItem    Hook = "beforeGetItem"
	HookAfterGetItem     Hook = "afterGetItem"
	HookBeforeHasItem    Hook = "beforeHasItem"
	HookAfterHasItem     Hook = "afterHasItem"
	HookBeforeRemoveItem Hook = "beforeRemoveItem"
	HookAfterRemoveItem  Hook = "afterRemoveItem"
	HookBeforeSetExtra   Hook = "beforeSetExtra"
	HookAfterSetExtra    Hook = "afterSetExtra"
	HookBeforeGetExtra   Hook = "beforeGetExtra"
	HookAfterGetExtra    Hook = "afterGetExtra"
)

// AllHooks lists every hook in pipeline order.
var AllHooks = []Hook{
	HookBuildKey,
	HookBeforeSetItem,
	HookAfterSetItem,
	HookBeforeGetItem,
	HookAfterGetItem,
	HookBeforeHasItem,
	HookAfterHasItem,
	HookBeforeRemoveItem,
	HookAfterRemoveItem,
	HookBeforeSetExtra,
	HookAfterSetExtra,
	HookBeforeGetExtra,
	HookAfterGetExtra,
}

// Handler is a hook handler. It receives the accumulated state of the hook
// chain and returns the fields it wants to change. Nil fields of the update
// leave the state untouched. A returned error aborts the operation.
type Handler[A, U any] func(ctx context.Context, args A) (U, error)

// KeyArgs is the state of buildKey and of the before hooks of GetItem,
// HasItem, RemoveItem and GetExtra.
type KeyArgs struct {
	Storage Storage
	Key     Key
}

// KeyUpdate represents updates to KeyArgs.
type KeyUpdate struct {
	Key *Key
}

func (a KeyArgs) apply(u KeyUpdate) KeyArgs {
	if u.Key != nil {
		a.Key = *u.Key
	}
	return a
}

// SetItemArgs is the state of beforeSetItem.
type SetItemArgs struct {
	Storage Storage
	Key     Key
	Value   Value
	Extra   Extra
}

// SetItemUpdate represents updates to SetItemArgs.
type SetItemUpdate struct {
	Key   *Key
	Value *Value
	Extra *Extra
}

func (a SetItemArgs) apply(u SetItemUpdate) SetItemArgs {
	if u.Key != nil {
		a.Key = *u.Key
	}
	if u.Value != nil {
		a.Value = *u.Value
	}
	if u.Extra != nil {
		a.Extra = *u.Extra
	}
	return a
}

// SetItemResultArgs is the state of afterSetItem. Item is what the
// adapter stored.
type SetItemResultArgs struct {
	Storage Storage
	Key     Key
	Value   Value
	Extra   Extra
	Item    Item
}

// SetItemResultUpdate represents updates to SetItemResultArgs.
type SetItemResultUpdate struct {
	Key   *Key
	Value *Value
	Extra *Extra
	Item  *Item
}

func (a SetItemResultArgs) apply(u SetItemResultUpdate) SetItemResultArgs {
	if u.Key != nil {
		a.Key = *u.Key
	}
	if u.Value != nil {
		a.Value = *u.Value
	}
	if u.Extra != nil {
		a.Extra = *u.Extra
	}
	if u.Item != nil {
		a.Item = *u.Item
	}
	return a
}

// GetItemResultArgs is the state of afterGetItem. Item is nil when the
// adapter found nothing.
type GetItemResultArgs struct {
	Storage Storage
	Key     Key
	Item    *Item
}

// GetItemResultUpdate represents updates to GetItemResultArgs. Setting
// Item to a pointer to nil reports the item as not found.
type GetItemResultUpdate struct {
	Key  *Key
	Item **Item
}

func (a GetItemResultArgs) apply(u GetItemResultUpdate) GetItemResultArgs {
	if u.Key != nil {
		a.Key = *u.Key
	}
	if u.Item != nil {
		a.Item = *u.Item
	}
	return a
}

// ResultArgs is the state of afterHasItem and afterRemoveItem.
type ResultArgs struct {
	Storage Storage
	Key     Key
	Result  bool
}

// ResultUpdate represents updates to ResultArgs.
type ResultUpdate struct {
	Key    *Key
	Result *bool
}

func (a ResultArgs) apply(u ResultUpdate) ResultArgs {
	if u.Key != nil {
		a.Key = *u.Key
	}
	if u.Result != nil {
		a.Result = *u.Result
	}
	return a
}

// SetExtraArgs is the state of beforeSetExtra.
type SetExtraArgs struct {
	Storage Storage
	Key     Key
	Extra   Extra
}

// SetExtraUpdate represents updates to SetExtraArgs.
type SetExtraUpdate struct {
	Key   *Key
	Extra *Extra
}

func (a SetExtraArgs) apply(u SetExtraUpdate) SetExtraArgs {
	if u.Key != nil {
		a.Key = *u.Key
	}
	if u.Extra != nil {
		a.Extra = *u.Extra
	}
	return a
}

// ExtraResultArgs is the state of afterSetExtra and afterGetExtra. Extra
// holds the adapter's result and is nil when the item does not exist.
type ExtraResultArgs struct {
	Storage Storage
	Key     Key
	Extra   Extra
}

// ExtraResultUpdate represents updates to ExtraResultArgs. Setting Extra
// to a pointer to a nil Extra reports the item as not found.
type ExtraResultUpdate struct {
	Key   *Key
	Extra *Extra
}

func (a ExtraResultArgs) apply(u ExtraResultUpdate) ExtraResultArgs {
	if u.Key != nil {
		a.Key = *u.Key
	}
	if u.Extra != nil {
		a.Extra = *u.Extra
	}
	return a
}

type patcher[A, U any] interface {
	apply(U) A
}

// fold runs handlers in order, merging each update into the state handed
// to the next one. It stops at the first error.
func fold[A patcher[A, U], U any](ctx context.Context, handlers []Handler[A, U], args A) (A, error) {
	for _, h := range handlers {
		upd, err := h(ctx, args)
		if err != nil {
			return args, err
		}
		args = args.apply(upd)
	}
	return args, nil
}
