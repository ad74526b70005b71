package models

import "time"

type Booking struct {
	ID       int64     `json:"id"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	ItemID   int64     `json:"item_id"`
	BookerID int64     `json:"booker_id"`
	Status   string    `json:"status"` // WAITING, APPROVED, REJECTED

	// Populated by joined reads.
	Item   *Item `json:"item,omitempty"`
	Booker *User `json:"booker,omitempty"`
}

// CanBeViewedBy reports whether userID is the booker or the owner of the booked item.
func (b *Booking) CanBeViewedBy(userID int64) bool {
	if b.BookerID == userID {
		return true
	}
	return b.Item != nil && b.Item.OwnerID == userID
}

// IsWaiting reports whether the booking still awaits the owner's decision.
func (b *Booking) IsWaiting() bool {
	return b.Status == StatusWaiting
}

// BookingFilter selects bookings for one booker or for all items of one owner.
// Exactly one of BookerID and OwnerID is set.
type BookingFilter struct {
	BookerID int64
	OwnerID  int64
	State    BookingState
	Now      time.Time
	Limit    int
	Offset   int
}
