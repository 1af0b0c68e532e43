package repository

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/scanreview/reconciler/internal/common"
	"github.com/scanreview/reconciler/internal/entity"
)

type pgReceiptRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewReceiptRepository(pool *pgxpool.Pool, logger *slog.Logger) ReceiptRepository {
	return &pgReceiptRepo{pool: pool, logger: logger}
}

const receiptColumns = `id, user_id, store_id, purchase_date, total::text, source_filename, uploaded_at`

func (r *pgReceiptRepo) GetReceipt(ctx context.Context, id uuid.UUID) (*entity.Receipt, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+receiptColumns+` FROM receipts WHERE id = $1`, id)
	rec, err := scanReceipt(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		r.logger.Error("failed to get receipt", "receipt_id", id, "error", err)
		return nil, common.WrapError(err, "get receipt")
	}
	return rec, nil
}

func (r *pgReceiptRepo) CreateReceipt(ctx context.Context, rec *entity.Receipt) error {
	var total *string
	if rec.Total != nil {
		s := rec.Total.String()
		total = &s
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO receipts (id, user_id, store_id, purchase_date, total, source_filename, uploaded_at)
		 VALUES ($1, $2, $3, $4, $5::numeric, $6, $7)`,
		rec.ID, rec.UserID, rec.StoreID, rec.PurchaseDate, total, rec.SourceFilename, rec.UploadedAt)
	if err != nil {
		r.logger.Error("failed to create receipt", "receipt_id", rec.ID, "error", err)
		return common.WrapError(err, "create receipt")
	}
	return nil
}

func (r *pgReceiptRepo) DeleteReceipt(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM receipts WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("failed to delete receipt", "receipt_id", id, "error", err)
		return common.WrapError(err, "delete receipt")
	}
	return nil
}

func (r *pgReceiptRepo) ListOtherReceipts(ctx context.Context, userID, excludeReceiptID uuid.UUID) ([]*entity.Receipt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+receiptColumns+` FROM receipts
		 WHERE user_id = $1 AND id <> $2
		 ORDER BY uploaded_at DESC`,
		userID, excludeReceiptID)
	if err != nil {
		r.logger.Error("failed to list receipts", "user_id", userID, "error", err)
		return nil, common.WrapError(err, "list receipts")
	}
	defer rows.Close()

	var recs []*entity.Receipt
	for rows.Next() {
		rec, err := scanReceipt(rows)
		if err != nil {
			return nil, common.WrapError(err, "scan receipt")
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (r *pgReceiptRepo) ListLineItems(ctx context.Context, receiptID uuid.UUID) ([]*entity.ReceiptLineItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, receipt_id, designation, quantity::text, unit_price::text, total_price::text, line_order, match_score
		 FROM receipt_line_items WHERE receipt_id = $1 ORDER BY line_order`,
		receiptID)
	if err != nil {
		r.logger.Error("failed to list line items", "receipt_id", receiptID, "error", err)
		return nil, common.WrapError(err, "list line items")
	}
	defer rows.Close()

	var items []*entity.ReceiptLineItem
	for rows.Next() {
		var (
			it                  entity.ReceiptLineItem
			qty, unit, totalStr string
		)
		if err := rows.Scan(&it.ID, &it.ReceiptID, &it.Designation, &qty, &unit, &totalStr, &it.LineOrder, &it.MatchScore); err != nil {
			return nil, common.WrapError(err, "scan line item")
		}
		it.Quantity = mustDecimal(qty)
		it.UnitPrice = mustDecimal(unit)
		it.TotalPrice = mustDecimal(totalStr)
		items = append(items, &it)
	}
	return items, rows.Err()
}

func (r *pgReceiptRepo) CreateLineItems(ctx context.Context, items []*entity.ReceiptLineItem) error {
	for _, it := range items {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO receipt_line_items (id, receipt_id, designation, quantity, unit_price, total_price, line_order)
			 VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6::numeric, $7)`,
			it.ID, it.ReceiptID, it.Designation,
			it.Quantity.String(), it.UnitPrice.String(), it.TotalPrice.String(), it.LineOrder)
		if err != nil {
			r.logger.Error("failed to create line item", "line_item_id", it.ID, "error", err)
			return common.WrapError(err, "create line item")
		}
	}
	return nil
}

func (r *pgReceiptRepo) SetLineItemScore(ctx context.Context, lineItemID uuid.UUID, score float64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE receipt_line_items SET match_score = $2 WHERE id = $1`, lineItemID, score)
	if err != nil {
		r.logger.Error("failed to set line item score", "line_item_id", lineItemID, "error", err)
		return common.WrapError(err, "set line item score")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReceipt(row rowScanner) (*entity.Receipt, error) {
	var (
		rec   entity.Receipt
		total *string
	)
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.StoreID, &rec.PurchaseDate, &total, &rec.SourceFilename, &rec.UploadedAt); err != nil {
		return nil, err
	}
	if total != nil {
		d := mustDecimal(*total)
		rec.Total = &d
	}
	return &rec, nil
}

// mustDecimal parses values the database itself emitted as numeric text.
func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
