package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/influxdata/stash"
	"github.com/influxdata/stash/kit/cli"
	"github.com/influxdata/stash/kit/errors"
	"github.com/influxdata/stash/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type command struct {
	opts options
	out  io.Writer
	// logOut receives log output; stderr unless replaced in tests.
	logOut io.Writer
}

func newRootCommand(v *viper.Viper, out io.Writer) (*cobra.Command, error) {
	c := &command{out: out, logOut: os.Stderr}

	root, err := cli.NewCommand(v, &cli.Program{
		Name:       "stash",
		Opts:       c.opts.opts(),
		ConfigFlag: "config",
	})
	if err != nil {
		return nil, err
	}
	root.Short = "Store, read and remove items through a stash adapter"

	var extra string
	set := &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Store a JSON value under KEY",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := parseJSON("value", args[1])
			if err != nil {
				return err
			}
			var e stash.Extra
			if extra != "" {
				if e, err = parseExtra(extra); err != nil {
					return err
				}
			}
			return c.run(cmd.Context(), func(ctx context.Context, s *stash.Stash) (interface{}, error) {
				return s.SetItem(ctx, args[0], value, e)
			})
		},
	}
	set.Flags().StringVar(&extra, "extra", "", "JSON object stored as the item's extra")

	root.AddCommand(
		&cobra.Command{
			Use:   "check",
			Short: "Run the adapter self-test",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.run(cmd.Context(), func(ctx context.Context, s *stash.Stash) (interface{}, error) {
					return true, s.CheckStorage(ctx)
				})
			},
		},
		set,
		c.keyCommand("get KEY", "Print the item stored under KEY", func(ctx context.Context, s *stash.Stash, key stash.Key) (interface{}, error) {
			return s.GetItem(ctx, key)
		}),
		c.keyCommand("has KEY", "Print whether an item is stored under KEY", func(ctx context.Context, s *stash.Stash, key stash.Key) (interface{}, error) {
			return s.HasItem(ctx, key)
		}),
		c.keyCommand("remove KEY", "Remove the item stored under KEY", func(ctx context.Context, s *stash.Stash, key stash.Key) (interface{}, error) {
			return s.RemoveItem(ctx, key)
		}),
		c.keyCommand("get-extra KEY", "Print the extra of the item stored under KEY", func(ctx context.Context, s *stash.Stash, key stash.Key) (interface{}, error) {
			return s.GetExtra(ctx, key)
		}),
		&cobra.Command{
			Use:   "set-extra KEY EXTRA",
			Short: "Replace the extra of the item stored under KEY",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				e, err := parseExtra(args[1])
				if err != nil {
					return err
				}
				return c.run(cmd.Context(), func(ctx context.Context, s *stash.Stash) (interface{}, error) {
					extra, err := s.SetExtra(ctx, args[0], e)
					if err != nil || extra == nil {
						return false, err
					}
					return extra, nil
				})
			},
		},
	)
	return root, nil
}

func (c *command) keyCommand(use, short string, fn func(context.Context, *stash.Stash, stash.Key) (interface{}, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd.Context(), func(ctx context.Context, s *stash.Stash) (interface{}, error) {
				return fn(ctx, s, args[0])
			})
		},
	}
}

// run builds the stash described by the options, runs fn against it and
// prints fn's result as JSON.
func (c *command) run(ctx context.Context, fn func(context.Context, *stash.Stash) (interface{}, error)) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}

	conf := logger.NewConfig()
	conf.Level = c.opts.logLevel
	conf.Format = c.opts.logFormat
	log, err := conf.New(c.logOut)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	adapter, release, err := c.opts.newAdapter(ctx, log)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, release())
	}()

	plugins, err := c.opts.plugins(log)
	if err != nil {
		return err
	}
	s := stash.New(log.With(zap.String("adapter", c.opts.adapter)), adapter)
	s.RegisterPlugins(plugins...)

	result, err := fn(logger.NewContextWithLogger(ctx, log), s)
	if err != nil {
		return err
	}
	return json.NewEncoder(c.out).Encode(result)
}

func parseJSON(what, s string) (interface{}, error) {
	var v interface{}
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, &errors.Error{
			Code: errors.EInvalid,
			Msg:  what + " is not valid JSON",
			Err:  err,
		}
	}
	return v, nil
}

func parseExtra(s string) (stash.Extra, error) {
	v, err := parseJSON("extra", s)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, errors.Invalidf("extra must be a JSON object")
	}
	return stash.Extra(m), nil
}

// reportError writes err to w. With the json log format the error is
// written as a JSON document carrying its code, message and op.
func reportError(w io.Writer, format string, err error) {
	if format == logger.FormatJSON {
		report, ok := err.(*errors.Error)
		if !ok {
			report = errors.NewError(
				errors.WithErrorCode(errors.ErrorCode(err)),
				errors.WithErrorMsg(errors.ErrorMessage(err)),
				errors.WithErrorOp(errors.ErrorOp(err)),
				errors.WithErrorErr(err),
			)
		}
		if b, jerr := json.Marshal(report); jerr == nil {
			fmt.Fprintln(w, string(b))
			return
		}
	}
	fmt.Fprintf(w, "Error: %s\n", err)
}
