package entity

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReceiptLineItem represents one parsed row of a receipt.
// LineOrder is the original scan order and is the stable secondary key for
// display sorting. MatchScore is the only field the reconciliation flow
// mutates; it is nil until a matching pass has run.
type ReceiptLineItem struct {
	ID          uuid.UUID       `json:"id"`
	ReceiptID   uuid.UUID       `json:"receipt_id"`
	Designation string          `json:"designation"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	LineOrder   int             `json:"line_order"`
	MatchScore  *float64        `json:"match_score,omitempty"`
}
