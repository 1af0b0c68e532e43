package parse

// ParsedReceipt is the normalized shape we expect from the external
// OCR/LLM collaborator. Every field is best-effort: the service may omit
// or garble any of them, so nothing here is validated beyond shape.
type ParsedReceipt struct {
	StoreName    string           `json:"store_name,omitempty"`
	PurchaseDate string           `json:"purchase_date,omitempty"` // YYYY-MM-DD
	TotalAmount  string           `json:"total_amount,omitempty"`  // decimal
	LineItems    []ParsedLineItem `json:"line_items,omitempty"`
}

// ParsedLineItem is one extracted receipt row.
type ParsedLineItem struct {
	Designation string `json:"designation"`
	Quantity    string `json:"quantity,omitempty"`    // decimal
	UnitPrice   string `json:"unit_price,omitempty"`  // decimal
	TotalPrice  string `json:"total_price,omitempty"` // decimal
}
