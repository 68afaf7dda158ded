// cmd/server/config.go
package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type Config struct {
	bind            string
	port            int
	nopeWindow      time.Duration
	cleanupInterval time.Duration
	verbose         bool
}

func (c *Config) validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.nopeWindow <= 0 {
		return fmt.Errorf("nope-window must be positive: %s", c.nopeWindow)
	}
	if c.cleanupInterval <= 0 {
		return fmt.Errorf("cleanup-interval must be positive: %s", c.cleanupInterval)
	}
	return nil
}

// newCmd builds the root command. Flags take precedence over EK_* environment
// variables, which take precedence over the built-in defaults; the resolved
// values land in cfg before RunE executes.
func newCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "exploding-kitten",
		Short:         "Server-authoritative multiplayer card game over websockets.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		SilenceUsage:  true,
		Version:       releaseVersion,
	}

	fs := cmd.Flags()
	fs.StringP("bind", "b", "0.0.0.0", "address to bind to (env: EK_BIND)")
	fs.IntP("port", "p", 8080, "port to listen on (env: EK_PORT)")
	fs.Duration("nope-window", 5*time.Second, "grace period during which plays can be noped (env: EK_NOPE_WINDOW)")
	fs.Duration("cleanup-interval", 5*time.Minute, "how often abandoned rooms are reclaimed (env: EK_CLEANUP_INTERVAL)")
	fs.BoolP("verbose", "v", false, "display additional output (env: EK_VERBOSE)")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		v := viper.New()
		v.SetEnvPrefix("EK")
		v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
		v.AutomaticEnv()
		if err := v.BindPFlags(fs); err != nil {
			return err
		}
		resolve(cfg, v)
		if err := cfg.validate(); err != nil {
			return err
		}
		return serve(cmd.Context(), cfg)
	}

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("exploding-kitten v{{.Version}}\n")

	return cmd
}

func resolve(cfg *Config, v *viper.Viper) {
	cfg.bind = v.GetString("bind")
	cfg.port = v.GetInt("port")
	cfg.nopeWindow = v.GetDuration("nope-window")
	cfg.cleanupInterval = v.GetDuration("cleanup-interval")
	cfg.verbose = v.GetBool("verbose")
}
