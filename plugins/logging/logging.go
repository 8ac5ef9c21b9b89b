// Package logging records every hook invocation of a stash.
package logging

import (
	"context"
	"fmt"

	"github.com/influxdata/stash"
	"github.com/influxdata/stash/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Name of the plugin.
const Name = "logging"

// New returns a plugin logging the arguments of all hooks at level. A
// logger carried by the operation's context takes precedence over log.
// Handlers change nothing.
func New(log *zap.Logger, level zapcore.Level) stash.Plugin {
	if log == nil {
		log = zap.NewNop()
	}
	l := hookLogger{log: log, level: level}

	return stash.Plugin{
		Name: Name,
		BuildKey: func(ctx context.Context, args stash.KeyArgs) (stash.KeyUpdate, error) {
			l.write(ctx, stash.HookBuildKey, args.Storage, args.Key)
			return stash.KeyUpdate{}, nil
		},
		BeforeSetItem: func(ctx context.Context, args stash.SetItemArgs) (stash.SetItemUpdate, error) {
			l.write(ctx, stash.HookBeforeSetItem, args.Storage, args.Key,
				zap.Any("value", args.Value), zap.Any("extra", args.Extra))
			return stash.SetItemUpdate{}, nil
		},
		AfterSetItem: func(ctx context.Context, args stash.SetItemResultArgs) (stash.SetItemResultUpdate, error) {
			l.write(ctx, stash.HookAfterSetItem, args.Storage, args.Key,
				zap.Any("value", args.Value), zap.Any("extra", args.Extra), zap.Any("item", args.Item))
			return stash.SetItemResultUpdate{}, nil
		},
		BeforeGetItem: func(ctx context.Context, args stash.KeyArgs) (stash.KeyUpdate, error) {
			l.write(ctx, stash.HookBeforeGetItem, args.Storage, args.Key)
			return stash.KeyUpdate{}, nil
		},
		AfterGetItem: func(ctx context.Context, args stash.GetItemResultArgs) (stash.GetItemResultUpdate, error) {
			l.write(ctx, stash.HookAfterGetItem, args.Storage, args.Key, zap.Any("item", args.Item))
			return stash.GetItemResultUpdate{}, nil
		},
		BeforeHasItem: func(ctx context.Context, args stash.KeyArgs) (stash.KeyUpdate, error) {
			l.write(ctx, stash.HookBeforeHasItem, args.Storage, args.Key)
			return stash.KeyUpdate{}, nil
		},
		AfterHasItem: func(ctx context.Context, args stash.ResultArgs) (stash.ResultUpdate, error) {
			l.write(ctx, stash.HookAfterHasItem, args.Storage, args.Key, zap.Bool("result", args.Result))
			return stash.ResultUpdate{}, nil
		},
		BeforeRemoveItem: func(ctx context.Context, args stash.KeyArgs) (stash.KeyUpdate, error) {
			l.write(ctx, stash.HookBeforeRemoveItem, args.Storage, args.Key)
			return stash.KeyUpdate{}, nil
		},
		AfterRemoveItem: func(ctx context.Context, args stash.ResultArgs) (stash.ResultUpdate, error) {
			l.write(ctx, stash.HookAfterRemoveItem, args.Storage, args.Key, zap.Bool("result", args.Result))
			return stash.ResultUpdate{}, nil
		},
		BeforeSetExtra: func(ctx context.Context, args stash.SetExtraArgs) (stash.SetExtraUpdate, error) {
			l.write(ctx, stash.HookBeforeSetExtra, args.Storage, args.Key, zap.Any("extra", args.Extra))
			return stash.SetExtraUpdate{}, nil
		},
		AfterSetExtra: func(ctx context.Context, args stash.ExtraResultArgs) (stash.ExtraResultUpdate, error) {
			l.write(ctx, stash.HookAfterSetExtra, args.Storage, args.Key, zap.Any("extra", args.Extra))
			return stash.ExtraResultUpdate{}, nil
		},
		BeforeGetExtra: func(ctx context.Context, args stash.KeyArgs) (stash.KeyUpdate, error) {
			l.write(ctx, stash.HookBeforeGetExtra, args.Storage, args.Key)
			return stash.KeyUpdate{}, nil
		},
		AfterGetExtra: func(ctx context.Context, args stash.ExtraResultArgs) (stash.ExtraResultUpdate, error) {
			l.write(ctx, stash.HookAfterGetExtra, args.Storage, args.Key, zap.Any("extra", args.Extra))
			return stash.ExtraResultUpdate{}, nil
		},
	}
}

type hookLogger struct {
	log   *zap.Logger
	level zapcore.Level
}

func (l hookLogger) write(ctx context.Context, hook stash.Hook, s stash.Storage, key stash.Key, fields ...zap.Field) {
	log := logger.FromContextOr(ctx, l.log)
	ce := log.Check(l.level, "Hook")
	if ce == nil {
		return
	}
	ce.Write(append([]zap.Field{
		zap.String("hook", string(hook)),
		zap.String("adapter", adapterName(s)),
		zap.String("key", key),
	}, fields...)...)
}

// adapterName names the adapter behind s by its type.
func adapterName(s stash.Storage) string {
	if n, ok := s.(fmt.Stringer); ok {
		return n.String()
	}
	return fmt.Sprintf("%T", s)
}
