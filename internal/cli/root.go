package cli

import (
	"log/slog"
	"os"

	"github.com/me/schedlab/internal/logging"
	"github.com/spf13/cobra"
)

var (
	flagServer    string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	logger *slog.Logger
	client *Client
)

// defaultServer returns the default server URL, checking SCHEDLAB_SERVER env var first.
func defaultServer() string {
	if s := os.Getenv("SCHEDLAB_SERVER"); s != "" {
		return s
	}
	return "http://localhost:8080"
}

// NewRootCmd creates the root cobra command for the schedlab CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "schedlab",
		Short: "schedlab: run scheduling algorithms from the command line",
		Long:  "schedlab lists the algorithms a schedlab server offers, shows their parameters, and runs them with inputs from a YAML file.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagDebug {
				flagLogLevel = "debug"
			}
			logger = logging.NewLoggerWithWriter(logging.ParseLevel(flagLogLevel), flagLogFormat, cmd.ErrOrStderr())
			client = NewClient(flagServer, logger)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagServer, "server", defaultServer(), "schedlab server URL (or SCHEDLAB_SERVER env)")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newAlgorithmsCmd(),
		newShowCmd(),
		newRunCmd(),
		newRunsCmd(),
		newStatusCmd(),
	)

	return root
}
