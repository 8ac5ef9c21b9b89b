package stash

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Stash runs storage operations through registered plugin hooks against a
// single adapter.
type Stash struct {
	adapter  Adapter
	storage  Storage
	registry *Registry
	log      *zap.Logger
}

// New returns a Stash backed by adapter with no plugins registered.
func New(log *zap.Logger, adapter Adapter) *Stash {
	if log == nil {
		log = zap.NewNop()
	}
	return &Stash{
		adapter:  adapter,
		storage:  storageRef{adapter},
		registry: NewRegistry(),
		log:      log,
	}
}

// RegisterPlugins appends the handlers of plugins to the pipeline.
func (s *Stash) RegisterPlugins(plugins ...Plugin) {
	for _, p := range plugins {
		s.log.Debug("Registering plugin", zap.String("plugin", p.Name), zap.Int("hooks", len(p.Hooks())))
	}
	s.registry.Register(plugins...)
}

// CheckStorage runs the adapter's self-test. Hooks are not involved.
func (s *Stash) CheckStorage(ctx context.Context) error {
	return s.adapter.CheckStorage(ctx)
}

// SetItem stores value and extra under key. A nil extra is stored as an
// empty object.
func (s *Stash) SetItem(ctx context.Context, key Key, value Value, extra Extra) (Item, error) {
	if extra == nil {
		extra = Extra{}
	}

	var item Item
	err := s.run(ctx, "SetItem", func(ctx context.Context, hooks hookSet) error {
		built, err := s.buildKey(ctx, hooks, key)
		if err != nil {
			return err
		}

		before, err := fold(ctx, hooks.beforeSetItem, SetItemArgs{Storage: s.storage, Key: built, Value: value, Extra: extra})
		if err != nil {
			return err
		}

		stored, err := s.adapter.SetItem(ctx, before.Key, before.Value, before.Extra)
		if err != nil {
			return err
		}

		after, err := fold(ctx, hooks.afterSetItem, SetItemResultArgs{
			Storage: s.storage,
			Key:     before.Key,
			Value:   before.Value,
			Extra:   before.Extra,
			Item:    stored,
		})
		if err != nil {
			return err
		}

		item = after.Item
		return nil
	})
	if err != nil {
		return Item{}, err
	}
	return item, nil
}

// GetItem returns the item stored under key, or nil if there is none.
func (s *Stash) GetItem(ctx context.Context, key Key) (*Item, error) {
	var item *Item
	err := s.run(ctx, "GetItem", func(ctx context.Context, hooks hookSet) error {
		before, err := s.keyStage(ctx, hooks, hooks.beforeGetItem, key)
		if err != nil {
			return err
		}

		found, err := s.adapter.GetItem(ctx, before.Key)
		if err != nil {
			return err
		}

		after, err := fold(ctx, hooks.afterGetItem, GetItemResultArgs{Storage: s.storage, Key: before.Key, Item: found})
		if err != nil {
			return err
		}

		item = after.Item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// HasItem reports whether an item is stored under key.
func (s *Stash) HasItem(ctx context.Context, key Key) (bool, error) {
	return s.resultOp(ctx, "HasItem", key, s.adapter.HasItem,
		func(h hookSet) []Handler[KeyArgs, KeyUpdate] { return h.beforeHasItem },
		func(h hookSet) []Handler[ResultArgs, ResultUpdate] { return h.afterHasItem },
	)
}

// RemoveItem deletes the item stored under key and reports whether it
// existed.
func (s *Stash) RemoveItem(ctx context.Context, key Key) (bool, error) {
	return s.resultOp(ctx, "RemoveItem", key, s.adapter.RemoveItem,
		func(h hookSet) []Handler[KeyArgs, KeyUpdate] { return h.beforeRemoveItem },
		func(h hookSet) []Handler[ResultArgs, ResultUpdate] { return h.afterRemoveItem },
	)
}

// SetExtra replaces the extra of the item stored under key. It returns nil
// and creates nothing when there is no such item.
func (s *Stash) SetExtra(ctx context.Context, key Key, extra Extra) (Extra, error) {
	var result Extra
	err := s.run(ctx, "SetExtra", func(ctx context.Context, hooks hookSet) error {
		built, err := s.buildKey(ctx, hooks, key)
		if err != nil {
			return err
		}

		before, err := fold(ctx, hooks.beforeSetExtra, SetExtraArgs{Storage: s.storage, Key: built, Extra: extra})
		if err != nil {
			return err
		}

		stored, err := s.adapter.SetExtra(ctx, before.Key, before.Extra)
		if err != nil {
			return err
		}

		after, err := fold(ctx, hooks.afterSetExtra, ExtraResultArgs{Storage: s.storage, Key: before.Key, Extra: stored})
		if err != nil {
			return err
		}

		result = after.Extra
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetExtra returns the extra of the item stored under key, or nil if there
// is no such item.
func (s *Stash) GetExtra(ctx context.Context, key Key) (Extra, error) {
	var result Extra
	err := s.run(ctx, "GetExtra", func(ctx context.Context, hooks hookSet) error {
		before, err := s.keyStage(ctx, hooks, hooks.beforeGetExtra, key)
		if err != nil {
			return err
		}

		found, err := s.adapter.GetExtra(ctx, before.Key)
		if err != nil {
			return err
		}

		after, err := fold(ctx, hooks.afterGetExtra, ExtraResultArgs{Storage: s.storage, Key: before.Key, Extra: found})
		if err != nil {
			return err
		}

		result = after.Extra
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Stash) resultOp(
	ctx context.Context,
	op string,
	key Key,
	call func(context.Context, Key) (bool, error),
	beforeHooks func(hookSet) []Handler[KeyArgs, KeyUpdate],
	afterHooks func(hookSet) []Handler[ResultArgs, ResultUpdate],
) (bool, error) {
	var result bool
	err := s.run(ctx, op, func(ctx context.Context, hooks hookSet) error {
		before, err := s.keyStage(ctx, hooks, beforeHooks(hooks), key)
		if err != nil {
			return err
		}

		ok, err := call(ctx, before.Key)
		if err != nil {
			return err
		}

		after, err := fold(ctx, afterHooks(hooks), ResultArgs{Storage: s.storage, Key: before.Key, Result: ok})
		if err != nil {
			return err
		}

		result = after.Result
		return nil
	})
	if err != nil {
		return false, err
	}
	return result, nil
}

// run brackets fn with Connect and Disconnect. Disconnect runs on every
// exit path once Connect succeeded. When fn failed, a Disconnect error is
// logged and fn's error is returned as is.
func (s *Stash) run(ctx context.Context, op string, fn func(context.Context, hookSet) error) (err error) {
	hooks := s.registry.snapshot()

	if err := s.adapter.Connect(ctx); err != nil {
		return err
	}
	defer func() {
		derr := s.adapter.Disconnect(context.WithoutCancel(ctx))
		if derr == nil {
			return
		}
		if err != nil {
			s.log.Warn("Failed to disconnect after failed operation",
				zap.String("op", op), zap.Error(derr), zap.NamedError("cause", err))
			return
		}
		err = derr
	}()

	return fn(ctx, hooks)
}

func (s *Stash) buildKey(ctx context.Context, hooks hookSet, key Key) (Key, error) {
	args, err := fold(ctx, hooks.buildKey, KeyArgs{Storage: s.storage, Key: key})
	if err != nil {
		return "", err
	}
	return args.Key, nil
}

// keyStage runs buildKey followed by a key-only before chain.
func (s *Stash) keyStage(ctx context.Context, hooks hookSet, before []Handler[KeyArgs, KeyUpdate], key Key) (KeyArgs, error) {
	built, err := s.buildKey(ctx, hooks, key)
	if err != nil {
		return KeyArgs{}, err
	}
	return fold(ctx, before, KeyArgs{Storage: s.storage, Key: built})
}

// storageRef exposes only the data operations of an adapter to hook
// handlers. The lifecycle methods stay out of reach.
type storageRef struct {
	s Storage
}

// String names the type of the adapter behind r.
func (r storageRef) String() string {
	return fmt.Sprintf("%T", r.s)
}

func (r storageRef) SetItem(ctx context.Context, key Key, value Value, extra Extra) (Item, error) {
	return r.s.SetItem(ctx, key, value, extra)
}

func (r storageRef) GetItem(ctx context.Context, key Key) (*Item, error) {
	return r.s.GetItem(ctx, key)
}

func (r storageRef) HasItem(ctx context.Context, key Key) (bool, error) {
	return r.s.HasItem(ctx, key)
}

func (r storageRef) RemoveItem(ctx context.Context, key Key) (bool, error) {
	return r.s.RemoveItem(ctx, key)
}

func (r storageRef) SetExtra(ctx context.Context, key Key, extra Extra) (Extra, error) {
	return r.s.SetExtra(ctx, key, extra)
}

func (r storageRef) GetExtra(ctx context.Context, key Key) (Extra, error) {
	return r.s.GetExtra(ctx, key)
}
