package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vntrieu/moodscreen/internal/config"
	"github.com/vntrieu/moodscreen/internal/logging"
)

var (
	verbose  bool
	addr     string
	score    int
	toolArgs string

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "screenctl",
	Short: "Moodscreen backend and console tools",
	Long: `screenctl runs the moodscreen HTTP backend and offers console access to
the PHQ-9 scorer, the supportive chat and the tools available to the model.

Configuration comes from the environment and an optional .env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		level := cfg.LogLevel
		if verbose {
			level = "debug"
		}
		var err error
		logger, err = logging.New(level, cfg.LogFormat)
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

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP backend",
	RunE:  runServe,
}

var scoreCmd = &cobra.Command{
	Use:   "score [answer...]",
	Short: "Score PHQ-9 answers given as option values in question order",
	Long: `Scores one answer per question. Each answer is an option value (0-3 for
PHQ-9). With no arguments the questions and options are printed.

Example:
  screenctl score 1 2 1 0 3 2 1 0 0`,
	RunE: runScore,
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the supportive chat in the terminal",
	RunE:  runChat,
}

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools exposed to the chat model",
	RunE:  runToolsList,
}

var toolsCallCmd = &cobra.Command{
	Use:   "call [name]",
	Short: "Invoke a tool with JSON arguments",
	Long: `Invokes a tool the same way the chat model would and prints its JSON result.

Example:
  screenctl tools call fda_drug_lookup --args '{"drug_name":"sertraline"}'`,
	Args: cobra.ExactArgs(1),
	RunE: runToolsCall,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations to DATABASE_URL",
	RunE:  runMigrate,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	serveCmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides HTTP_ADDR)")
	chatCmd.Flags().IntVar(&score, "score", -1, "Start the chat with the severity of this PHQ-9 score")
	toolsCallCmd.Flags().StringVar(&toolArgs, "args", "{}", "Tool arguments as a JSON object")

	toolsCmd.AddCommand(toolsCallCmd)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
