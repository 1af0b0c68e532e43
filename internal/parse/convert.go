package parse

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/scanreview/reconciler/internal/dedup"
	"github.com/scanreview/reconciler/internal/entity"
)

// ToFingerprint derives the duplicate-comparison fingerprint from a parsed
// receipt and the uploaded file's name.
func ToFingerprint(pr ParsedReceipt, sourceFilename string) dedup.Fingerprint {
	return dedup.Fingerprint{
		StoreName:      pr.StoreName,
		PurchaseDate:   pr.PurchaseDate,
		TotalAmount:    pr.TotalAmount,
		SourceFilename: sourceFilename,
	}
}

// ToLineItems converts parsed rows to entities attached to a receipt,
// preserving scan order. Unparsable numbers degrade to zero.
func ToLineItems(pr ParsedReceipt, receiptID uuid.UUID) []*entity.ReceiptLineItem {
	items := make([]*entity.ReceiptLineItem, 0, len(pr.LineItems))
	for i, row := range pr.LineItems {
		items = append(items, &entity.ReceiptLineItem{
			ID:          uuid.New(),
			ReceiptID:   receiptID,
			Designation: row.Designation,
			Quantity:    lenientDecimal(row.Quantity),
			UnitPrice:   lenientDecimal(row.UnitPrice),
			TotalPrice:  lenientDecimal(row.TotalPrice),
			LineOrder:   i,
		})
	}
	return items
}

func lenientDecimal(s string) decimal.Decimal {
	if d, ok := dedup.ParseAmount(s); ok {
		return d
	}
	return decimal.Zero
}
