package entity

// TargetProduct is the catalog product a receipt line should be matched
// against. Read-only input to matching; owned by the external catalog.
type TargetProduct struct {
	Code string `json:"code"`
	Name string `json:"name"`
}
