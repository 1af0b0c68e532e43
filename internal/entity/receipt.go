package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Receipt represents a stored receipt for data transfer between layers.
// Store, purchase date and total are optional: they are best-effort output
// of the parsing collaborator and may be absent or unusable.
type Receipt struct {
	ID             uuid.UUID        `json:"id"`
	UserID         uuid.UUID        `json:"user_id"`
	StoreID        *uuid.UUID       `json:"store_id,omitempty"`
	PurchaseDate   *time.Time       `json:"purchase_date,omitempty"`
	Total          *decimal.Decimal `json:"total,omitempty"`
	SourceFilename string           `json:"source_filename,omitempty"`
	UploadedAt     time.Time        `json:"uploaded_at"`
}
