package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/scanreview/reconciler/internal/common"
	"github.com/scanreview/reconciler/internal/entity"
)

// LocalStore is an embedded sqlite history store backing the CLI. It
// implements the same collaborator contracts as the Postgres repositories.
type LocalStore struct {
	db     *sql.DB
	logger *slog.Logger
}

const localSchema = `
CREATE TABLE IF NOT EXISTS stores (
	id   TEXT PRIMARY KEY,
	name TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS receipts (
	id              TEXT PRIMARY KEY,
	user_id         TEXT NOT NULL,
	store_id        TEXT REFERENCES stores(id),
	purchase_date   TEXT,
	total           TEXT,
	source_filename TEXT NOT NULL DEFAULT '',
	uploaded_at     TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS receipt_line_items (
	id          TEXT PRIMARY KEY,
	receipt_id  TEXT NOT NULL REFERENCES receipts(id) ON DELETE CASCADE,
	designation TEXT NOT NULL,
	quantity    TEXT NOT NULL DEFAULT '0',
	unit_price  TEXT NOT NULL DEFAULT '0',
	total_price TEXT NOT NULL DEFAULT '0',
	line_order  INTEGER NOT NULL,
	match_score REAL
);
`

// OpenLocal opens (and if needed initializes) the embedded store at path.
func OpenLocal(ctx context.Context, path string, logger *slog.Logger) (*LocalStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, common.WrapError(err, "open local store")
	}
	if _, err := db.ExecContext(ctx, localSchema); err != nil {
		_ = db.Close()
		return nil, common.WrapError(err, "init local schema")
	}
	logger.Debug("local store ready", "path", path)
	return &LocalStore{db: db, logger: logger}, nil
}

func (s *LocalStore) Close() error {
	return s.db.Close()
}

func (s *LocalStore) GetReceipt(ctx context.Context, id uuid.UUID) (*entity.Receipt, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, store_id, purchase_date, total, source_filename, uploaded_at
		 FROM receipts WHERE id = ?`, id.String())
	rec, err := scanLocalReceipt(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, common.WrapError(err, "get receipt")
	}
	return rec, nil
}

func (s *LocalStore) CreateReceipt(ctx context.Context, rec *entity.Receipt) error {
	var storeID, purchaseDate, total *string
	if rec.StoreID != nil {
		v := rec.StoreID.String()
		storeID = &v
	}
	if rec.PurchaseDate != nil {
		v := rec.PurchaseDate.Format("2006-01-02")
		purchaseDate = &v
	}
	if rec.Total != nil {
		v := rec.Total.String()
		total = &v
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO receipts (id, user_id, store_id, purchase_date, total, source_filename, uploaded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID.String(), rec.UserID.String(), storeID, purchaseDate, total,
		rec.SourceFilename, rec.UploadedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		s.logger.Error("failed to create receipt", "receipt_id", rec.ID, "error", err)
		return common.WrapError(err, "create receipt")
	}
	return nil
}

func (s *LocalStore) DeleteReceipt(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM receipts WHERE id = ?`, id.String()); err != nil {
		return common.WrapError(err, "delete receipt")
	}
	return nil
}

func (s *LocalStore) ListOtherReceipts(ctx context.Context, userID, excludeReceiptID uuid.UUID) ([]*entity.Receipt, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, store_id, purchase_date, total, source_filename, uploaded_at
		 FROM receipts WHERE user_id = ? AND id <> ?
		 ORDER BY uploaded_at DESC`,
		userID.String(), excludeReceiptID.String())
	if err != nil {
		return nil, common.WrapError(err, "list receipts")
	}
	defer rows.Close()

	var recs []*entity.Receipt
	for rows.Next() {
		rec, err := scanLocalReceipt(rows)
		if err != nil {
			return nil, common.WrapError(err, "scan receipt")
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (s *LocalStore) ListLineItems(ctx context.Context, receiptID uuid.UUID) ([]*entity.ReceiptLineItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, receipt_id, designation, quantity, unit_price, total_price, line_order, match_score
		 FROM receipt_line_items WHERE receipt_id = ? ORDER BY line_order`,
		receiptID.String())
	if err != nil {
		return nil, common.WrapError(err, "list line items")
	}
	defer rows.Close()

	var items []*entity.ReceiptLineItem
	for rows.Next() {
		var (
			it              entity.ReceiptLineItem
			id, recID       string
			qty, unit, tot  string
		)
		if err := rows.Scan(&id, &recID, &it.Designation, &qty, &unit, &tot, &it.LineOrder, &it.MatchScore); err != nil {
			return nil, common.WrapError(err, "scan line item")
		}
		it.ID, _ = uuid.Parse(id)
		it.ReceiptID, _ = uuid.Parse(recID)
		it.Quantity = mustDecimal(qty)
		it.UnitPrice = mustDecimal(unit)
		it.TotalPrice = mustDecimal(tot)
		items = append(items, &it)
	}
	return items, rows.Err()
}

func (s *LocalStore) CreateLineItems(ctx context.Context, items []*entity.ReceiptLineItem) error {
	for _, it := range items {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO receipt_line_items (id, receipt_id, designation, quantity, unit_price, total_price, line_order)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			it.ID.String(), it.ReceiptID.String(), it.Designation,
			it.Quantity.String(), it.UnitPrice.String(), it.TotalPrice.String(), it.LineOrder)
		if err != nil {
			return common.WrapError(err, "create line item")
		}
	}
	return nil
}

func (s *LocalStore) SetLineItemScore(ctx context.Context, lineItemID uuid.UUID, score float64) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE receipt_line_items SET match_score = ? WHERE id = ?`, score, lineItemID.String()); err != nil {
		return common.WrapError(err, "set line item score")
	}
	return nil
}

func (s *LocalStore) ResolveStores(ctx context.Context, nameFragment string) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM stores WHERE LOWER(name) LIKE '%' || LOWER(?) || '%'`, nameFragment)
	if err != nil {
		return nil, common.WrapError(err, "resolve stores")
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, common.WrapError(err, "scan store id")
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *LocalStore) CreateStore(ctx context.Context, store *entity.StoreIdentity) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO stores (id, name) VALUES (?, ?)`, store.ID.String(), store.Name); err != nil {
		return common.WrapError(err, "create store")
	}
	return nil
}

func scanLocalReceipt(row rowScanner) (*entity.Receipt, error) {
	var (
		rec                          entity.Receipt
		id, userID, uploadedAt       string
		storeID, purchaseDate, total *string
	)
	if err := row.Scan(&id, &userID, &storeID, &purchaseDate, &total, &rec.SourceFilename, &uploadedAt); err != nil {
		return nil, err
	}
	rec.ID, _ = uuid.Parse(id)
	rec.UserID, _ = uuid.Parse(userID)
	if storeID != nil {
		if v, err := uuid.Parse(*storeID); err == nil {
			rec.StoreID = &v
		}
	}
	if purchaseDate != nil {
		if t, err := time.Parse("2006-01-02", *purchaseDate); err == nil {
			rec.PurchaseDate = &t
		}
	}
	if total != nil {
		d := mustDecimal(*total)
		rec.Total = &d
	}
	if t, err := time.Parse(time.RFC3339Nano, uploadedAt); err == nil {
		rec.UploadedAt = t
	}
	return &rec, nil
}
