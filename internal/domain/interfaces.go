package domain

import (
	"context"
	"time"

	"shareit/internal/models"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id int64) error
	GetAllUsers(ctx context.Context) ([]*models.User, error)
}

type ItemRepository interface {
	CreateItem(ctx context.Context, item *models.Item) error
	GetItemByID(ctx context.Context, id int64) (*models.Item, error)
	UpdateItem(ctx context.Context, id int64, patch models.ItemPatch) error
	GetItemsByOwner(ctx context.Context, ownerID int64, limit, offset int) ([]*models.Item, error)
	SearchItems(ctx context.Context, text string, limit, offset int) ([]*models.Item, error)
	GetItemsByRequestIDs(ctx context.Context, requestIDs []int64) ([]*models.Item, error)
}

type BookingRepository interface {
	CreateBookingWithLock(ctx context.Context, booking *models.Booking) error
	ResolveBooking(ctx context.Context, id int64, status string) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	ListBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error)
	GetLastBooking(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error)
	GetNextBooking(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error)
	HasFinishedBooking(ctx context.Context, itemID, bookerID int64, now time.Time) (bool, error)
}

type RequestRepository interface {
	CreateRequest(ctx context.Context, req *models.ItemRequest) error
	GetRequestByID(ctx context.Context, id int64) (*models.ItemRequest, error)
	GetRequestsByRequester(ctx context.Context, requesterID int64) ([]*models.ItemRequest, error)
	GetRequestsExcept(ctx context.Context, requesterID int64, limit, offset int) ([]*models.ItemRequest, error)
}

type CommentRepository interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetCommentsByItem(ctx context.Context, itemID int64) ([]*models.Comment, error)
}

type Repository interface {
	UserRepository
	ItemRepository
	BookingRepository
	RequestRepository
	CommentRepository
	Ping(ctx context.Context) error
}

// RateLimitStore counts hits per key in fixed windows.
type RateLimitStore interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type UserService interface {
	Create(ctx context.Context, dto models.UserDto) (*models.UserDto, error)
	Update(ctx context.Context, id int64, dto models.UserUpdateDto) (*models.UserDto, error)
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*models.UserDto, error)
	List(ctx context.Context) ([]models.UserDto, error)
}

type ItemService interface {
	Create(ctx context.Context, ownerID int64, dto models.ItemDto) (*models.ItemDto, error)
	Update(ctx context.Context, ownerID, itemID int64, dto models.ItemUpdateDto) (*models.ItemDto, error)
	GetWithBookings(ctx context.Context, viewerID, itemID int64) (*models.ItemWithBookingsDto, error)
	ListForOwner(ctx context.Context, ownerID int64, from, size int) ([]models.ItemWithBookingsDto, error)
	Search(ctx context.Context, text string, from, size int) ([]models.ItemDto, error)
	CreateComment(ctx context.Context, authorID, itemID int64, dto models.CommentDto) (*models.CommentDto, error)
}

type BookingService interface {
	Create(ctx context.Context, bookerID int64, dto models.BookingShortDto) (*models.BookingDto, error)
	ApproveOrDeny(ctx context.Context, ownerID, bookingID int64, approved bool) (*models.BookingDto, error)
	Get(ctx context.Context, viewerID, bookingID int64) (*models.BookingDto, error)
	ListForBooker(ctx context.Context, bookerID int64, state string, from, size int) ([]models.BookingDto, error)
	ListForOwner(ctx context.Context, ownerID int64, state string, from, size int) ([]models.BookingDto, error)
}

type RequestService interface {
	Create(ctx context.Context, requesterID int64, dto models.ItemRequestDto) (*models.ItemRequestDto, error)
	GetOne(ctx context.Context, requesterID, requestID int64) (*models.ItemRequestResponseDto, error)
	ListMine(ctx context.Context, requesterID int64) ([]models.ItemRequestResponseDto, error)
	ListOthers(ctx context.Context, requesterID int64, from, size int) ([]models.ItemRequestResponseDto, error)
}
