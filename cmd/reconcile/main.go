package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/scanreview/reconciler/internal/common"
	"github.com/scanreview/reconciler/internal/dedup"
	"github.com/scanreview/reconciler/internal/entity"
	"github.com/scanreview/reconciler/internal/export"
	"github.com/scanreview/reconciler/internal/match"
	"github.com/scanreview/reconciler/internal/parse"
	"github.com/scanreview/reconciler/internal/reconcile"
	"github.com/scanreview/reconciler/internal/repository"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "reconcile",
		Short:         "Receipt-to-product reconciliation against a local history store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newScoreCmd(), newIngestCmd(), newDupcheckCmd(), newMatchCmd(), newExportCmd())
	return root
}

func openLocal(ctx context.Context) (*repository.LocalStore, error) {
	cfg := common.LoadConfig()
	return repository.OpenLocal(ctx, cfg.Local.Path, slog.Default())
}

func newScoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score <candidate> <target>",
		Short: "Print the match score between a line designation and a product name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := match.DefaultWeights.Score(args[0], args[1])
			fmt.Fprintf(cmd.OutOrStdout(), "%.4f (%.0f%%)\n", s, s*100)
			return nil
		},
	}
}

func newIngestCmd() *cobra.Command {
	var userID, filename string
	cmd := &cobra.Command{
		Use:   "ingest <parsed-receipt.json>",
		Short: "Store a parsed receipt payload in the local history store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uid, err := uuid.Parse(userID)
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			pr, err := parse.Decode(raw)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := openLocal(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			rec := &entity.Receipt{
				ID:             uuid.New(),
				UserID:         uid,
				SourceFilename: filename,
				UploadedAt:     time.Now().UTC(),
			}
			if d, ok := dedup.ParseDate(pr.PurchaseDate); ok {
				rec.PurchaseDate = &d
			}
			if a, ok := dedup.ParseAmount(pr.TotalAmount); ok {
				rec.Total = &a
			}
			if err := store.CreateReceipt(ctx, rec); err != nil {
				return err
			}
			if err := store.CreateLineItems(ctx, parse.ToLineItems(pr, rec.ID)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored receipt %s (%d line items)\n", rec.ID, len(pr.LineItems))
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "owning user id (UUID)")
	cmd.Flags().StringVar(&filename, "filename", "", "original upload filename")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newDupcheckCmd() *cobra.Command {
	var userID, storeName, date, total, filename string
	cmd := &cobra.Command{
		Use:   "dupcheck",
		Short: "Check a receipt fingerprint against the local history",
		RunE: func(cmd *cobra.Command, args []string) error {
			uid, err := uuid.Parse(userID)
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}

			ctx := cmd.Context()
			store, err := openLocal(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			det := dedup.NewDetector(store, store, slog.Default())
			decision, err := det.Check(ctx, uid, uuid.Nil, dedup.Fingerprint{
				StoreName:      storeName,
				PurchaseDate:   date,
				TotalAmount:    total,
				SourceFilename: filename,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !decision.IsDuplicate {
				fmt.Fprintln(out, "no duplicate found")
				return nil
			}
			fmt.Fprintf(out, "duplicate of %s (basis: %s)\n", decision.MatchedReceiptID, decision.Basis)
			if decision.Advisory {
				fmt.Fprintln(out, "weak filename evidence only; confirm before merging")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "owning user id (UUID)")
	cmd.Flags().StringVar(&storeName, "store", "", "store name from the parsed receipt")
	cmd.Flags().StringVar(&date, "date", "", "purchase date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&total, "total", "", "total amount")
	cmd.Flags().StringVar(&filename, "filename", "", "uploaded filename")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newMatchCmd() *cobra.Command {
	var receiptID, targetName, targetCode string
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Find the receipt line best matching a product name",
		RunE: func(cmd *cobra.Command, args []string) error {
			rid, err := uuid.Parse(receiptID)
			if err != nil {
				return fmt.Errorf("invalid --receipt: %w", err)
			}

			ctx := cmd.Context()
			store, err := openLocal(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			cfg := common.LoadConfig()
			svc := reconcile.NewService(store, store, cfg.MatchConfig(), slog.Default())
			outcome, err := svc.MatchLineItems(ctx, rid, entity.TargetProduct{Code: targetCode, Name: targetName})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outcome.Result.Item == nil {
				fmt.Fprintf(out, "no confident match, best effort was %.0f%%\n", outcome.Result.Score*100)
				return nil
			}
			fmt.Fprintf(out, "best match: %q (%.0f%%)\n", outcome.Result.Item.Designation, outcome.Result.Score*100)
			if outcome.AutoApprovable {
				fmt.Fprintln(out, "confidence high enough for auto-approval")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&receiptID, "receipt", "", "receipt id (UUID)")
	cmd.Flags().StringVar(&targetName, "target", "", "target product name")
	cmd.Flags().StringVar(&targetCode, "code", "", "target product code")
	_ = cmd.MarkFlagRequired("receipt")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

func newExportCmd() *cobra.Command {
	var userID, outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a reconciliation report workbook for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			uid, err := uuid.Parse(userID)
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}

			ctx := cmd.Context()
			store, err := openLocal(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			b, err := export.NewService(store, slog.Default()).ExportReceiptsXLSX(ctx, uid)
			if err != nil {
				return err
			}
			if err := os.WriteFile(outPath, b, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", outPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "owning user id (UUID)")
	cmd.Flags().StringVar(&outPath, "out", "reconciliation.xlsx", "output path")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
