package models

import "time"

const (
	StatusWaiting  = "WAITING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

// BookingState selects bookings by their position relative to "now" or by status.
type BookingState string

const (
	StateAll      BookingState = "ALL"
	StateCurrent  BookingState = "CURRENT"
	StatePast     BookingState = "PAST"
	StateFuture   BookingState = "FUTURE"
	StateWaiting  BookingState = "WAITING"
	StateRejected BookingState = "REJECTED"
)

// ParseBookingState maps the raw query value onto a known state. An empty value means ALL.
func ParseBookingState(raw string) (BookingState, bool) {
	if raw == "" {
		return StateAll, true
	}
	switch s := BookingState(raw); s {
	case StateAll, StateCurrent, StatePast, StateFuture, StateWaiting, StateRejected:
		return s, true
	default:
		return "", false
	}
}

const (
	// UserIDHeader carries the acting user id. It is trusted as is.
	UserIDHeader = "X-Sharer-User-Id"

	// RequestIDHeader correlates gateway and server log lines.
	RequestIDHeader = "X-Request-Id"
)

const (
	MaxUserNameLength    = 50
	MaxEmailLength       = 100
	MaxItemNameLength    = 255
	MaxDescriptionLength = 512
	MaxCommentLength     = 512

	DefaultPageFrom = 0
	DefaultPageSize = 10

	// DefaultStartGrace tolerates clock skew between a client and the server
	// when checking that a booking does not start in the past.
	DefaultStartGrace = 5 * time.Second
)
