package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/scanreview/reconciler/internal/entity"
)

// ReceiptRepository is the receipt history collaborator consumed by the
// duplicate detector and the reconciliation flow.
type ReceiptRepository interface {
	GetReceipt(ctx context.Context, id uuid.UUID) (*entity.Receipt, error)
	CreateReceipt(ctx context.Context, rec *entity.Receipt) error
	// DeleteReceipt removes a receipt and, by cascade, its line items.
	DeleteReceipt(ctx context.Context, id uuid.UUID) error
	// ListOtherReceipts returns a user's receipts excluding the given one,
	// most recently uploaded first.
	ListOtherReceipts(ctx context.Context, userID, excludeReceiptID uuid.UUID) ([]*entity.Receipt, error)
	ListLineItems(ctx context.Context, receiptID uuid.UUID) ([]*entity.ReceiptLineItem, error)
	CreateLineItems(ctx context.Context, items []*entity.ReceiptLineItem) error
	SetLineItemScore(ctx context.Context, lineItemID uuid.UUID, score float64) error
}

// StoreRepository resolves free-text store names to identities and manages
// the store catalog.
type StoreRepository interface {
	// ResolveStores returns the identities whose name contains the fragment,
	// case-insensitively.
	ResolveStores(ctx context.Context, nameFragment string) ([]uuid.UUID, error)
	CreateStore(ctx context.Context, store *entity.StoreIdentity) error
}
