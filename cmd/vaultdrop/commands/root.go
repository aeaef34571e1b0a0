package commands

import (
	"context"
	"fmt"
	"os"

	"vaultdrop/withdrawal"

	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	dataDir    string
	verbose    bool
	jsonOutput bool
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit string) error {
	return newRootCommand(version, commit).ExecuteContext(ctx)
}

func newRootCommand(version, commit string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vaultdrop",
		Short: "Queue and inspect withdrawal requests",
		Long: `vaultdrop writes withdrawal request files into the inbox scanned by the
withdrawal plugin and reports on the state of the request queues.`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", envOr("VAULTDROP_DATA_DIR", "data/withdrawal"), "plugin data folder")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	rootCmd.AddCommand(newEnqueueCommand())
	rootCmd.AddCommand(newInspectCommand())
	rootCmd.AddCommand(newStatusCommand())

	return rootCmd
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// cliPlugin gives the withdrawal package the data folder and a zap backed logger.
type cliPlugin struct {
	dir    string
	logger runtime.Logger
}

func (p *cliPlugin) DataFolder() string      { return p.dir }
func (p *cliPlugin) Logger() runtime.Logger { return p.logger }

func newPlugin() (*cliPlugin, func(), error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return &cliPlugin{dir: dataDir, logger: withdrawal.NewZapLogger(logger)}, func() { _ = logger.Sync() }, nil
}
