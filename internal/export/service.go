package export

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/scanreview/reconciler/internal/repository"
)

// Service is a tiny façade over the receipt repository that produces XLSX
// bytes for reconciliation reports.
type Service struct {
	receipts repository.ReceiptRepository
	logger   *slog.Logger
}

func NewService(receipts repository.ReceiptRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{receipts: receipts, logger: logger}
}

// ExportReceiptsXLSX returns an XLSX workbook (as bytes) listing a user's
// receipts with their line items and any computed match scores.
func (s *Service) ExportReceiptsXLSX(ctx context.Context, userID uuid.UUID) ([]byte, error) {
	recs, err := s.receipts.ListOtherReceipts(ctx, userID, uuid.Nil)
	if err != nil {
		return nil, fmt.Errorf("query receipts: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Reconciliation"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Purchase Date",
		"Store",
		"Total",
		"Source File",
		"Line Item",
		"Line Total",
		"Match Score",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	write := func(col, row int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}

	row := 2
	for _, r := range recs {
		date := ""
		if r.PurchaseDate != nil {
			date = r.PurchaseDate.Format("2006-01-02")
		}
		store := ""
		if r.StoreID != nil {
			store = r.StoreID.String()
		}
		total := ""
		if r.Total != nil {
			total = r.Total.StringFixed(2)
		}

		items, err := s.receipts.ListLineItems(ctx, r.ID)
		if err != nil {
			return nil, fmt.Errorf("query line items: %w", err)
		}
		if len(items) == 0 {
			write(1, row, date)
			write(2, row, store)
			write(3, row, total)
			write(4, row, r.SourceFilename)
			row++
			continue
		}
		for _, it := range items {
			write(1, row, date)
			write(2, row, store)
			write(3, row, total)
			write(4, row, r.SourceFilename)
			write(5, row, truncate(it.Designation, 140))
			write(6, row, it.TotalPrice.StringFixed(2))
			if it.MatchScore != nil {
				write(7, row, fmt.Sprintf("%.0f%%", *it.MatchScore*100))
			}
			row++
		}
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 14)
	_ = f.SetColWidth(sheet, "B", "B", 24)
	_ = f.SetColWidth(sheet, "D", "E", 36)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	s.logger.Info("export.receipts.ok", "user_id", userID, "receipts", len(recs), "rows", row-2)
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
