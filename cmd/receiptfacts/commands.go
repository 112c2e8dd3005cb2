package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/receipt-facts/constants"
	"github.com/joseph-ayodele/receipt-facts/internal/common"
	"github.com/joseph-ayodele/receipt-facts/internal/core/async"
	"github.com/joseph-ayodele/receipt-facts/internal/ingest"
	"github.com/joseph-ayodele/receipt-facts/internal/llm"
	"github.com/joseph-ayodele/receipt-facts/internal/receipts"
)

const defaultEscalateBelow = 0.7

func newParseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "parse [file|-]",
		Short: "Run the heuristic parser on one OCR text",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), a.svc.Parse(text))
		},
	}
}

func newAICmd(a *app) *cobra.Command {
	var (
		bank   string
		amount string
		date   string
	)
	cmd := &cobra.Command{
		Use:   "ai [file|-]",
		Short: "Run the AI fallback extractor on one OCR text",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			var hints llm.Hints
			if bank != "" {
				code, ok := constants.Canonicalize(bank)
				if !ok {
					return fmt.Errorf("unknown bank %q", bank)
				}
				hints.BankHint = code
			}
			if amount != "" {
				d, err := decimal.NewFromString(strings.ReplaceAll(amount, ",", "."))
				if err != nil {
					return fmt.Errorf("invalid --amount: %w", err)
				}
				hints.KnownAmount = decimal.NewNullDecimal(d)
			}
			hints.KnownDate = date

			ctx := common.WithRequestID(cmd.Context(), uuid.New().String())
			res, err := a.svc.Fallback(ctx, text, hints)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&bank, "bank", "", "bank hint: "+bankList()+" or a bank name")
	cmd.Flags().StringVar(&amount, "amount", "", "amount already known to the caller")
	cmd.Flags().StringVar(&date, "date", "", "date already known to the caller (YYYY-MM-DD)")
	return cmd
}

func newProcessCmd(a *app) *cobra.Command {
	var escalateBelow float64
	cmd := &cobra.Command{
		Use:   "process [file|-]",
		Short: "Parse one OCR text and escalate to the AI extractor below a confidence threshold",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			id := "-"
			if len(args) == 1 {
				id = args[0]
			}
			ctx := common.WithRequestID(cmd.Context(), uuid.New().String())
			return writeJSON(cmd.OutOrStdout(), a.svc.Process(ctx, receipts.Document{ID: id, Text: text}, escalateBelow))
		},
	}
	cmd.Flags().Float64Var(&escalateBelow, "escalate-below", defaultEscalateBelow, "heuristic confidence under which the AI extractor is asked (0 disables)")
	return cmd
}

func newBatchCmd(a *app) *cobra.Command {
	var (
		dir           string
		exts          []string
		includeHidden bool
		escalateBelow float64
		workers       int
	)
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Process every OCR text dump in a directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if workers <= 0 {
				workers = a.cfg.Batch.Workers
			}
			results, stats, err := a.svc.ProcessDirectory(cmd.Context(), dir, receipts.BatchOptions{
				Workers:       workers,
				EscalateBelow: escalateBelow,
				IncludeExts:   exts,
				SkipHidden:    !includeHidden,
				FileTimeout:   a.cfg.AI.Timeout * 2,
			})
			if err != nil && results == nil {
				return err
			}
			if werr := writeJSON(cmd.OutOrStdout(), map[string]any{"results": results, "stats": stats}); werr != nil {
				return werr
			}
			return err
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "directory with OCR text dumps (required)")
	cmd.Flags().StringSliceVar(&exts, "ext", nil, "file extensions to include (default txt, text, ocr)")
	cmd.Flags().BoolVar(&includeHidden, "include-hidden", false, "also process hidden files and directories")
	cmd.Flags().Float64Var(&escalateBelow, "escalate-below", defaultEscalateBelow, "heuristic confidence under which the AI extractor is asked (0 disables)")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent files (default BATCH_WORKERS)")
	_ = cmd.MarkFlagRequired("dir")
	return cmd
}

func newWatchCmd(a *app) *cobra.Command {
	var (
		dir           string
		existing      bool
		escalateBelow float64
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Process OCR text dumps as they appear in a directory, one JSON line each",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
				Roots:       []string{dir},
				InitialScan: existing,
				SkipHidden:  true,
				Debounce:    defaultDebounce,
				Logger:      a.logger,
			})
			if err != nil {
				return err
			}

			out := newLineWriter(cmd.OutOrStdout())
			q := async.NewWorkerQueue(func(jobCtx context.Context, job async.Job) error {
				res, err := a.svc.ProcessFile(jobCtx, job.Path, escalateBelow)
				if err != nil {
					return out.write(receipts.FileResult{Path: job.Path, Err: err.Error()})
				}
				return out.write(receipts.FileResult{Path: job.Path, Outcome: &res})
			}, a.logger, async.WithWorkers(a.cfg.Batch.Workers), async.WithProcessTimeout(a.cfg.AI.Timeout*2),
				async.WithBaseContext(ctx))
			defer q.Shutdown(context.Background())

			a.logger.Info("watch.started", "dir", dir)
			for {
				select {
				case <-ctx.Done():
					a.logger.Info("watch.stopped", "dir", dir)
					return nil
				case p, ok := <-events:
					if !ok {
						return nil
					}
					if err := q.Enqueue(ctx, async.NewJob(p)); err != nil {
						a.logger.Warn("watch.enqueue_failed", "path", p, "error", err)
					}
				case err, ok := <-errs:
					if !ok {
						errs = nil
						continue
					}
					a.logger.Warn("watch.error", "error", err)
				}
			}
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "directory to watch (required)")
	cmd.Flags().BoolVar(&existing, "existing", false, "also process files already in the directory")
	cmd.Flags().Float64Var(&escalateBelow, "escalate-below", defaultEscalateBelow, "heuristic confidence under which the AI extractor is asked (0 disables)")
	_ = cmd.MarkFlagRequired("dir")
	return cmd
}

// readInput returns the text of the named file, or stdin for "-" or no argument.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), ingest.MaxFileBytes))
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	return ingest.ReadText(args[0])
}

func bankList() string {
	var codes []string
	for _, b := range constants.AllBanks() {
		codes = append(codes, string(b))
	}
	return strings.Join(codes, ", ")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
