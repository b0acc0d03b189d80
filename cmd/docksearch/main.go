// docksearch is a client for the code dock strong search service. It drives
// a search session over the service's WebSocket protocol and renders agent
// activity, progress, and the final answer in the terminal.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/codedock/docksearch/internal/history"
)

var (
	serverURL  string
	verbose    bool
	historyDir string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "docksearch",
	Short: "Agent-powered code search against a dock server",
	Long: `docksearch drives long-running "strong search" jobs on a code dock
server over a persistent WebSocket connection, streaming the agent's tool
activity and progress until the final answer arrives.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		config.OutputPaths = []string{"stderr"}
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		} else {
			config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultServer(),
		"dock server base URL (env DOCKSEARCH_SERVER)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable debug logging")
	rootCmd.PersistentFlags().StringVar(&historyDir, "history-dir", history.DefaultBaseDir(),
		"directory for saved search results")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(codebasesCmd)
	rootCmd.AddCommand(historyCmd)
}

func defaultServer() string {
	if v := os.Getenv("DOCKSEARCH_SERVER"); v != "" {
		return v
	}
	return "http://localhost:30089"
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
