// Package cli implements the offfetch command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/unkn0wn-root/offcache/config"
	"github.com/unkn0wn-root/offcache/internal/logging"
	"github.com/unkn0wn-root/offcache/log"
	zaplog "github.com/unkn0wn-root/offcache/log/zap"
)

// app carries what PersistentPreRunE prepared for the subcommands.
type app struct {
	cfgPath string
	envFile string
	debug   bool

	cfg *config.Config
	zl  *zap.Logger
	log log.Logger
}

// NewRootCmd builds the command tree writing results to out.
func NewRootCmd(out io.Writer) *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "offfetch",
		Short: "Offline-aware fetches backed by a persistent response cache",
		Long: `offfetch performs HTTP requests through the offcache orchestrator:
responses are cached on success and served from the cache while the
network is unreachable, according to the chosen delivery policy.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.zl != nil {
				_ = a.zl.Sync()
			}
		},
	}
	root.SetOut(out)

	f := root.PersistentFlags()
	f.StringVar(&a.cfgPath, "config", "", "config file (yaml, toml or json)")
	f.StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before the config")
	f.BoolVar(&a.debug, "debug", false, "enable debug logging")

	root.AddCommand(newGetCmd(a), newCacheCmd(a), newConnectivityCmd(a))
	root.CompletionOptions.DisableDefaultCmd = true
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if a.envFile != "" {
		if err := godotenv.Load(a.envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", a.envFile, err)
		}
	}
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	if a.debug {
		cfg.Logging.Level = "debug"
	}
	zl, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	a.cfg, a.zl, a.log = cfg, zl, zaplog.ZapLogger{L: zl}
	return nil
}

// Execute runs the CLI against os.Args.
func Execute(ctx context.Context) error {
	return NewRootCmd(os.Stdout).ExecuteContext(ctx)
}
