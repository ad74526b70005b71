package models

// Wire representations shared by the server and the gateway.

type UserDto struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserUpdateDto carries a partial update; nil fields are left untouched.
type UserUpdateDto struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

type ItemDto struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   *bool  `json:"available"`
	RequestID   *int64 `json:"requestId,omitempty"`
	OwnerID     int64  `json:"ownerId"`
}

// ItemUpdateDto carries a partial update; nil fields are left untouched.
type ItemUpdateDto struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Available   *bool   `json:"available"`
}

type ItemWithBookingsDto struct {
	ID          int64              `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Available   bool               `json:"available"`
	OwnerID     int64              `json:"ownerId"`
	RequestID   *int64             `json:"requestId,omitempty"`
	LastBooking *BookingForItemDto `json:"lastBooking"`
	NextBooking *BookingForItemDto `json:"nextBooking"`
	Comments    []CommentDto       `json:"comments"`
}

// BookingShortDto is the booking creation payload. Dates stay raw so that both
// services report parse failures the same way.
type BookingShortDto struct {
	ItemID int64  `json:"itemId"`
	Start  string `json:"start"`
	End    string `json:"end"`
}

type BookingDto struct {
	ID     int64   `json:"id"`
	Start  string  `json:"start"`
	End    string  `json:"end"`
	Item   ItemDto `json:"item"`
	Booker UserDto `json:"booker"`
	Status string  `json:"status"`
}

type BookingForItemDto struct {
	ID       int64  `json:"id"`
	Start    string `json:"start"`
	End      string `json:"end"`
	ItemID   int64  `json:"itemId"`
	BookerID int64  `json:"bookerId"`
	Status   string `json:"status"`
}

type CommentDto struct {
	ID         int64  `json:"id"`
	Text       string `json:"text"`
	ItemID     int64  `json:"itemId"`
	AuthorName string `json:"authorName"`
	Created    string `json:"created"`
}

type ItemRequestDto struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	RequesterID int64  `json:"requesterId"`
	Created     string `json:"created"`
}

type ItemRequestResponseDto struct {
	ID          int64               `json:"id"`
	Description string              `json:"description"`
	RequesterID int64               `json:"requesterId"`
	Created     string              `json:"created"`
	Items       []ItemForRequestDto `json:"items"`
}

// ItemForRequestDto is an item offered in answer to a request.
type ItemForRequestDto struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   bool   `json:"available"`
	RequestID   int64  `json:"requestId"`
	OwnerID     int64  `json:"ownerId"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}
