package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/metrics"
	"shareit/internal/models"
	"shareit/internal/validation"

	"github.com/rs/zerolog"
)

type BookingService struct {
	repo       domain.Repository
	eventBus   domain.EventPublisher
	startGrace time.Duration
	logger     *zerolog.Logger
	now        func() time.Time
}

var _ domain.BookingService = (*BookingService)(nil)

func NewBookingService(repo domain.Repository, eventBus domain.EventPublisher, startGrace time.Duration, logger *zerolog.Logger) *BookingService {
	if startGrace <= 0 {
		startGrace = models.DefaultStartGrace
	}
	return &BookingService{
		repo:       repo,
		eventBus:   eventBus,
		startGrace: startGrace,
		logger:     logger,
		now:        models.Now,
	}
}

// Create books an item for bookerID. The item is taken with a compare-and-set
// on its availability, so of two concurrent requests only one succeeds.
func (s *BookingService) Create(ctx context.Context, bookerID int64, dto models.BookingShortDto) (*models.BookingDto, error) {
	item, err := getItem(ctx, s.repo, dto.ItemID)
	if err != nil {
		return nil, err
	}
	booker, err := getUser(ctx, s.repo, bookerID)
	if err != nil {
		return nil, err
	}

	start, end, err := validation.ParseBookingPeriod(dto, s.now(), s.startGrace)
	if err != nil {
		return nil, err
	}
	if !item.Available {
		return nil, domain.NoAccess("item %d is already booked", item.ID)
	}
	if item.IsOwnedBy(bookerID) {
		return nil, domain.NotFound("user %d owns item %d and cannot book it", bookerID, item.ID)
	}

	booking := &models.Booking{
		Start:    start,
		End:      end,
		ItemID:   item.ID,
		BookerID: bookerID,
	}
	if err := s.repo.CreateBookingWithLock(ctx, booking); err != nil {
		if errors.Is(err, database.ErrNotAvailable) {
			return nil, domain.NoAccess("item %d is already booked", item.ID)
		}
		return nil, fmt.Errorf("create booking: %w", err)
	}

	item.Available = false
	booking.Item = item
	booking.Booker = booker

	s.logger.Info().
		Int64("booking_id", booking.ID).
		Int64("item_id", item.ID).
		Int64("booker_id", bookerID).
		Msg("booking created")
	s.publishEvent(events.EventBookingCreated, booking, bookerID)

	out := toBookingDto(booking)
	return &out, nil
}

// ApproveOrDeny resolves a WAITING booking and releases the item. Callers
// other than the item owner get NotFound.
func (s *BookingService) ApproveOrDeny(ctx context.Context, ownerID, bookingID int64, approved bool) (*models.BookingDto, error) {
	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Item == nil || !booking.Item.IsOwnedBy(ownerID) {
		return nil, domain.NotFound("booking %d not found for owner %d", bookingID, ownerID)
	}
	if !booking.IsWaiting() {
		return nil, domain.NoAccess("booking %d is already %s", bookingID, booking.Status)
	}

	status, eventType := models.StatusRejected, events.EventBookingRejected
	if approved {
		status, eventType = models.StatusApproved, events.EventBookingApproved
	}

	if err := s.repo.ResolveBooking(ctx, bookingID, status); err != nil {
		if errors.Is(err, database.ErrConcurrentModification) {
			return nil, domain.NoAccess("booking %d is no longer waiting", bookingID)
		}
		return nil, fmt.Errorf("resolve booking %d: %w", bookingID, err)
	}

	booking.Status = status
	booking.Item.Available = true

	s.logger.Info().Int64("booking_id", bookingID).Str("status", status).Msg("booking resolved")
	s.publishEvent(eventType, booking, ownerID)

	out := toBookingDto(booking)
	return &out, nil
}

// Get returns the booking to its booker or to the item owner.
func (s *BookingService) Get(ctx context.Context, viewerID, bookingID int64) (*models.BookingDto, error) {
	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.CanBeViewedBy(viewerID) {
		return nil, domain.NotFound("booking %d not found for user %d", bookingID, viewerID)
	}
	out := toBookingDto(booking)
	return &out, nil
}

func (s *BookingService) ListForBooker(ctx context.Context, bookerID int64, state string, from, size int) ([]models.BookingDto, error) {
	return s.list(ctx, models.BookingFilter{BookerID: bookerID}, state, from, size)
}

func (s *BookingService) ListForOwner(ctx context.Context, ownerID int64, state string, from, size int) ([]models.BookingDto, error) {
	return s.list(ctx, models.BookingFilter{OwnerID: ownerID}, state, from, size)
}

func (s *BookingService) list(ctx context.Context, filter models.BookingFilter, state string, from, size int) ([]models.BookingDto, error) {
	parsed, err := validation.ParseState(state)
	if err != nil {
		return nil, err
	}
	limit, offset, err := pageBounds(from, size)
	if err != nil {
		return nil, err
	}

	filter.State = parsed
	filter.Now = s.now()
	filter.Limit = limit
	filter.Offset = offset

	bookings, err := s.repo.ListBookings(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	out := make([]models.BookingDto, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBookingDto(b))
	}
	return out, nil
}

func (s *BookingService) getBooking(ctx context.Context, id int64) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, domain.NotFound("booking %d not found", id)
		}
		return nil, fmt.Errorf("get booking %d: %w", id, err)
	}
	return booking, nil
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking, changedByID int64) {
	payload := events.BookingEventPayload{
		BookingID:   booking.ID,
		ItemID:      booking.ItemID,
		BookerID:    booking.BookerID,
		Status:      booking.Status,
		Start:       booking.Start,
		End:         booking.End,
		ChangedByID: changedByID,
	}
	if booking.Item != nil {
		payload.ItemName = booking.Item.Name
		payload.OwnerID = booking.Item.OwnerID
	}
	publishEvent(s.eventBus, s.logger, eventType, payload)
}

// publishEvent hands an event to the bus. Failures are logged and never fail
// the operation that produced the event.
func publishEvent(bus domain.EventPublisher, logger *zerolog.Logger, eventType string, payload interface{}) {
	if bus == nil {
		return
	}
	if err := bus.PublishJSON(eventType, payload); err != nil {
		logger.Error().Err(err).Str("event_type", eventType).Msg("publish event error")
		return
	}
	metrics.IncEvent(eventType)
}
