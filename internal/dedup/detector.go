package dedup

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/scanreview/reconciler/internal/entity"
)

// Basis describes what evidence backed a duplicate decision.
type Basis string

const (
	BasisFields   Basis = "EXACT_FIELDS"
	BasisFilename Basis = "FILENAME_HEURISTIC"
	BasisNone     Basis = "NONE"
)

// Decision is the outcome of one duplicate check. Advisory is set on
// filename-only matches: those are surfaced as "possible duplicate" for
// user confirmation rather than silently merged.
type Decision struct {
	IsDuplicate      bool       `json:"is_duplicate"`
	MatchedReceiptID *uuid.UUID `json:"matched_receipt_id,omitempty"`
	Basis            Basis      `json:"confidence_basis"`
	Advisory         bool       `json:"advisory,omitempty"`
}

// HistoryProvider supplies a user's previously stored receipts, most
// recently uploaded first, excluding the receipt under inspection.
type HistoryProvider interface {
	ListOtherReceipts(ctx context.Context, userID, excludeReceiptID uuid.UUID) ([]*entity.Receipt, error)
}

// StoreResolver resolves a free-text store name to the identities whose
// catalog name contains it case-insensitively. Fuzzy lookup over the
// catalog is the collaborator's concern; the detector only compares the
// returned identifiers.
type StoreResolver interface {
	ResolveStores(ctx context.Context, nameFragment string) ([]uuid.UUID, error)
}

// Field tolerances. Amount is absolute currency units; the date window
// absorbs timezone and OCR misreads.
var defaultAmountTolerance = decimal.NewFromFloat(0.5)

const defaultDateToleranceDays = 1

// Detector decides whether a freshly uploaded receipt duplicates one
// already on file.
type Detector struct {
	history         HistoryProvider
	stores          StoreResolver
	amountTolerance decimal.Decimal
	dateToleranceD  int
	logger          *slog.Logger
}

func NewDetector(history HistoryProvider, stores StoreResolver, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{
		history:         history,
		stores:          stores,
		amountTolerance: defaultAmountTolerance,
		dateToleranceD:  defaultDateToleranceDays,
		logger:          logger,
	}
}

// Check runs the duplicate decision for a new receipt's fingerprint against
// the user's history. Field tests (amount +/- 0.5, date +/- 1 day, store
// identity) apply only when the fingerprint field is usable and are ANDed;
// at least one must be applicable for a field-based match. When none hits,
// the filename heuristic may produce an advisory weak match. History
// failures propagate outward untouched: a collaborator error is never
// interpreted as "no duplicates".
func (d *Detector) Check(ctx context.Context, userID, newReceiptID uuid.UUID, fp Fingerprint) (Decision, error) {
	amount, amountOK := ParseAmount(fp.TotalAmount)
	date, dateOK := ParseDate(fp.PurchaseDate)
	storeName := strings.TrimSpace(fp.StoreName)

	var storeIDs map[uuid.UUID]struct{}
	if storeName != "" {
		ids, err := d.stores.ResolveStores(ctx, storeName)
		if err != nil {
			return Decision{Basis: BasisNone}, fmt.Errorf("resolve stores %q: %w", storeName, err)
		}
		storeIDs = make(map[uuid.UUID]struct{}, len(ids))
		for _, id := range ids {
			storeIDs[id] = struct{}{}
		}
	}

	candidates, err := d.history.ListOtherReceipts(ctx, userID, newReceiptID)
	if err != nil {
		return Decision{Basis: BasisNone}, fmt.Errorf("list receipt history: %w", err)
	}

	if amountOK || dateOK || storeName != "" {
		for _, rec := range candidates {
			if d.fieldsMatch(rec, amount, amountOK, date, dateOK, storeName != "", storeIDs) {
				id := rec.ID
				d.logger.Info("dedup.fields.hit",
					"user_id", userID,
					"matched_receipt_id", id,
					"amount_test", amountOK,
					"date_test", dateOK,
					"store_test", storeName != "",
				)
				return Decision{IsDuplicate: true, MatchedReceiptID: &id, Basis: BasisFields}, nil
			}
		}
	}

	if rec := d.weakFilenameMatch(candidates, fp.SourceFilename); rec != nil {
		id := rec.ID
		d.logger.Info("dedup.filename.hit", "user_id", userID, "matched_receipt_id", id)
		return Decision{IsDuplicate: true, MatchedReceiptID: &id, Basis: BasisFilename, Advisory: true}, nil
	}

	return Decision{Basis: BasisNone}, nil
}

func (d *Detector) fieldsMatch(rec *entity.Receipt, amount decimal.Decimal, amountOK bool, date time.Time, dateOK, storeOK bool, storeIDs map[uuid.UUID]struct{}) bool {
	if amountOK {
		if rec.Total == nil {
			return false
		}
		if rec.Total.Sub(amount).Abs().GreaterThan(d.amountTolerance) {
			return false
		}
	}
	if dateOK {
		if rec.PurchaseDate == nil {
			return false
		}
		if daysApart(*rec.PurchaseDate, date) > d.dateToleranceD {
			return false
		}
	}
	if storeOK {
		if rec.StoreID == nil {
			return false
		}
		if _, ok := storeIDs[*rec.StoreID]; !ok {
			return false
		}
	}
	return true
}

// weakFilenameMatch returns the most recently uploaded receipt whose stored
// filename contains any qualifying token of the new filename, or, with zero
// qualifying tokens, whose filename is substring-equal outright.
func (d *Detector) weakFilenameMatch(candidates []*entity.Receipt, filename string) *entity.Receipt {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return nil
	}
	tokens := FilenameTokens(filename)
	lowered := strings.ToLower(filename)

	var best *entity.Receipt
	for _, rec := range candidates {
		stored := strings.ToLower(strings.TrimSpace(rec.SourceFilename))
		if stored == "" {
			continue
		}
		weak := false
		if len(tokens) == 0 {
			weak = strings.Contains(stored, lowered) || strings.Contains(lowered, stored)
		} else {
			for _, tok := range tokens {
				if strings.Contains(stored, tok) {
					weak = true
					break
				}
			}
		}
		if weak && (best == nil || rec.UploadedAt.After(best.UploadedAt)) {
			best = rec
		}
	}
	return best
}

// daysApart counts whole calendar days between two timestamps, ignoring
// the time of day.
func daysApart(a, b time.Time) int {
	au := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bu := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	diff := au.Sub(bu)
	if diff < 0 {
		diff = -diff
	}
	return int(diff / (24 * time.Hour))
}
