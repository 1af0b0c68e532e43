package entity

import "github.com/google/uuid"

// StoreIdentity is one known store in the catalog. Receipts reference a
// store identity; duplicate detection resolves free-text store names to a
// set of identities before comparing.
type StoreIdentity struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}
