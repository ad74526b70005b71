package service

import (
	"context"
	"io"
	"testing"
	"time"

	"shareit/internal/database"
	"shareit/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockEventBus struct {
	mock.Mock
}

func (m *mockEventBus) PublishJSON(et string, p interface{}) error { return m.Called(et, p).Error(0) }

// fixture wires every service to one in-memory database and a fixed clock.
type fixture struct {
	db       *database.DB
	bus      *mockEventBus
	now      time.Time
	users    *UserService
	items    *ItemService
	bookings *BookingService
	requests *RequestService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db, err := database.NewTestDB(&logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	bus := new(mockEventBus)
	now := time.Date(2030, 6, 1, 12, 0, 0, 0, time.Local)
	clock := func() time.Time { return now }

	f := &fixture{
		db:       db,
		bus:      bus,
		now:      now,
		users:    NewUserService(db, &logger),
		items:    NewItemService(db, bus, &logger),
		bookings: NewBookingService(db, bus, 0, &logger),
		requests: NewRequestService(db, &logger),
	}
	f.items.now = clock
	f.bookings.now = clock
	f.requests.now = clock
	return f
}

func (f *fixture) createUser(t *testing.T, name, email string) int64 {
	t.Helper()
	u, err := f.users.Create(context.Background(), models.UserDto{Name: name, Email: email})
	require.NoError(t, err)
	return u.ID
}

func (f *fixture) createItem(t *testing.T, ownerID int64, name, description string) int64 {
	t.Helper()
	available := true
	item, err := f.items.Create(context.Background(), ownerID, models.ItemDto{
		Name:        name,
		Description: description,
		Available:   &available,
	})
	require.NoError(t, err)
	return item.ID
}

// storeBooking writes a booking straight to the database, bypassing date
// validation, and optionally resolves it.
func (f *fixture) storeBooking(t *testing.T, itemID, bookerID int64, start, end time.Time, status string) int64 {
	t.Helper()
	ctx := context.Background()
	b := &models.Booking{Start: start, End: end, ItemID: itemID, BookerID: bookerID}
	require.NoError(t, f.db.CreateBookingWithLock(ctx, b))
	if status == models.StatusWaiting {
		return b.ID
	}
	require.NoError(t, f.db.ResolveBooking(ctx, b.ID, status))
	return b.ID
}

func (f *fixture) expectEvents() {
	f.bus.On("PublishJSON", mock.Anything, mock.Anything).Return(nil).Maybe()
}

func TestPageBounds(t *testing.T) {
	tests := []struct {
		name       string
		from, size int
		limit      int
		offset     int
		wantErr    bool
	}{
		{name: "FirstPage", from: 0, size: 10, limit: 10, offset: 0},
		{name: "ExactPage", from: 20, size: 10, limit: 10, offset: 20},
		{name: "RoundsUp", from: 5, size: 10, limit: 10, offset: 10},
		{name: "SizeOne", from: 3, size: 1, limit: 1, offset: 3},
		{name: "NegativeFrom", from: -1, size: 10, wantErr: true},
		{name: "ZeroSize", from: 0, size: 0, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit, offset, err := pageBounds(tt.from, tt.size)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.limit, limit)
			require.Equal(t, tt.offset, offset)
		})
	}
}
