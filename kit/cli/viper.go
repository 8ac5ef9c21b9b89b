package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// Opt is a single command-line option
type Opt struct {
	DestP   interface{} // pointer to the destination
	Flag    string
	Default interface{}
	Desc    string
	// Persistent options are inherited by subcommands.
	Persistent bool
}

// NewOpt creates a new command line option.
func NewOpt(destP interface{}, flag string, dflt interface{}, desc string) Opt {
	return Opt{
		DestP:   destP,
		Flag:    flag,
		Default: dflt,
		Desc:    desc,
	}
}

// Program parses CLI options
type Program struct {
	// Run is invoked by cobra on execute.
	Run func(cmd *cobra.Command, args []string) error
	// Name is the name of the program in help usage and the env var prefix.
	Name string
	// Opts are the command line/env var options to the program
	Opts []Opt
	// ConfigFlag names a flag holding the path of a TOML config file.
	// Leave empty to disable config files.
	ConfigFlag string
}

// NewCommand creates a new cobra command to be executed that respects env vars
// and, when ConfigFlag is set, a TOML config file.
//
// Uses the upper-case version of the program's name as a prefix
// to all environment variables. Precedence is flag, env, config file, default.
func NewCommand(v *viper.Viper, p *Program) (*cobra.Command, error) {
	var configPath string
	cmd := &cobra.Command{
		Use:           p.Name,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if configPath != "" {
				if err := LoadConfigFile(v, configPath); err != nil {
					return err
				}
			}
			return ResolveOptions(v, p.Opts)
		},
	}
	if p.Run != nil {
		cmd.RunE = p.Run
	}

	v.SetEnvPrefix(strings.ToUpper(p.Name))
	v.AutomaticEnv()
	// This normalizes "-" to an underscore in env names.
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	if p.ConfigFlag != "" {
		cmd.PersistentFlags().StringVar(&configPath, p.ConfigFlag, "", "path to a TOML config file")
	}

	if err := BindOptions(v, cmd, p.Opts); err != nil {
		return nil, err
	}
	return cmd, nil
}

// LoadConfigFile merges the TOML file at path into v. Nested tables are
// flattened into dash separated keys so that
//
//	[sqlite]
//	path = "stash.db"
//
// sets the sqlite-path option.
func LoadConfigFile(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("unable to read config file %s: %w", path, err)
	}

	var raw map[string]interface{}
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return fmt.Errorf("unable to parse config file %s: %w", path, err)
	}

	flat := map[string]interface{}{}
	flatten("", raw, flat)
	return v.MergeConfigMap(flat)
}

func flatten(prefix string, in map[string]interface{}, out map[string]interface{}) {
	for k, val := range in {
		key := k
		if prefix != "" {
			key = prefix + "-" + k
		}
		if nested, ok := val.(map[string]interface{}); ok {
			flatten(key, nested, out)
			continue
		}
		out[key] = val
	}
}

// BindOptions adds opts to the specified command and automatically
// registers those options with viper.
func BindOptions(v *viper.Viper, cmd *cobra.Command, opts []Opt) error {
	for _, o := range opts {
		flags := cmd.Flags()
		if o.Persistent {
			flags = cmd.PersistentFlags()
		}

		switch destP := o.DestP.(type) {
		case *string:
			var d string
			if o.Default != nil {
				d = o.Default.(string)
			}
			flags.StringVar(destP, o.Flag, d, o.Desc)
		case *int:
			var d int
			if o.Default != nil {
				d = o.Default.(int)
			}
			flags.IntVar(destP, o.Flag, d, o.Desc)
		case *bool:
			var d bool
			if o.Default != nil {
				d = o.Default.(bool)
			}
			flags.BoolVar(destP, o.Flag, d, o.Desc)
		case *time.Duration:
			var d time.Duration
			if o.Default != nil {
				d = o.Default.(time.Duration)
			}
			flags.DurationVar(destP, o.Flag, d, o.Desc)
		case *[]string:
			var d []string
			if o.Default != nil {
				d = o.Default.([]string)
			}
			flags.StringSliceVar(destP, o.Flag, d, o.Desc)
		case *zapcore.Level:
			var d zapcore.Level
			if o.Default != nil {
				d = o.Default.(zapcore.Level)
			}
			LevelVar(flags, destP, o.Flag, d, o.Desc)
		default:
			return fmt.Errorf("unknown destination type %T for flag %q", o.DestP, o.Flag)
		}

		if err := v.BindPFlag(o.Flag, flags.Lookup(o.Flag)); err != nil {
			return err
		}
	}
	return nil
}

// ResolveOptions copies the values viper resolved for opts into their
// destinations.
func ResolveOptions(v *viper.Viper, opts []Opt) error {
	for _, o := range opts {
		if !v.IsSet(o.Flag) {
			continue
		}
		switch destP := o.DestP.(type) {
		case *string:
			*destP = v.GetString(o.Flag)
		case *int:
			*destP = v.GetInt(o.Flag)
		case *bool:
			*destP = v.GetBool(o.Flag)
		case *time.Duration:
			*destP = v.GetDuration(o.Flag)
		case *[]string:
			*destP = v.GetStringSlice(o.Flag)
		case *zapcore.Level:
			if err := destP.Set(v.GetString(o.Flag)); err != nil {
				return fmt.Errorf("invalid value for %s: %w", o.Flag, err)
			}
		default:
			return fmt.Errorf("unknown destination type %T for flag %q", o.DestP, o.Flag)
		}
	}
	return nil
}
