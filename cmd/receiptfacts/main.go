package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/receipt-facts/internal/common"
	"github.com/joseph-ayodele/receipt-facts/internal/llm"
	"github.com/joseph-ayodele/receipt-facts/internal/llm/openai"
	"github.com/joseph-ayodele/receipt-facts/internal/parser"
	"github.com/joseph-ayodele/receipt-facts/internal/receipts"
)

// app is what every subcommand runs against, built once in PersistentPreRunE.
type app struct {
	cfg    *common.Config
	logger *slog.Logger
	svc    *receipts.Service
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
}

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var envFile string

	root := &cobra.Command{
		Use:           "receiptfacts",
		Short:         "Extract payment facts from OCR text of payment receipts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(envFile)
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	root.AddCommand(
		newParseCmd(a),
		newAICmd(a),
		newProcessCmd(a),
		newBatchCmd(a),
		newWatchCmd(a),
	)
	return root
}

func (a *app) init(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	a.cfg = common.LoadConfig()
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	a.logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(a.cfg.Log.Level),
	}))
	slog.SetDefault(a.logger)

	p := parser.New(parser.WithLogger(a.logger), parser.WithMaxInput(a.cfg.Parser.MaxInputRunes))

	// a nil extractor disables escalation and the ai command
	var extractor llm.FieldExtractor
	if a.cfg.AIConfigured() {
		aiCfg, err := openai.ConfigFromEnv(a.cfg.AI)
		if err != nil {
			return err
		}
		extractor = openai.NewClient(aiCfg, a.logger)
		a.logger.Debug("ai extractor configured", "model", aiCfg.Model, "timeout", aiCfg.Timeout)
	}
	a.svc = receipts.NewService(p, extractor, a.logger)
	return nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
