package models

type Item struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   bool   `json:"available"`
	OwnerID     int64  `json:"owner_id"`
	// RequestID points at the item request this item was listed in answer to.
	RequestID *int64 `json:"request_id,omitempty"`
}

// IsOwnedBy reports whether userID listed the item.
func (i *Item) IsOwnedBy(userID int64) bool {
	return i != nil && i.OwnerID == userID
}

// ItemPatch lists the item columns to change. Nil fields keep their stored
// value, so availability is only written when the caller sets it.
type ItemPatch struct {
	Name        *string
	Description *string
	Available   *bool
}
