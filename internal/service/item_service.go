package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/models"
	"shareit/internal/validation"

	"github.com/rs/zerolog"
)

type ItemService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
	now      func() time.Time
}

var _ domain.ItemService = (*ItemService)(nil)

func NewItemService(repo domain.Repository, eventBus domain.EventPublisher, logger *zerolog.Logger) *ItemService {
	return &ItemService{
		repo:     repo,
		eventBus: eventBus,
		logger:   logger,
		now:      models.Now,
	}
}

func (s *ItemService) Create(ctx context.Context, ownerID int64, dto models.ItemDto) (*models.ItemDto, error) {
	if err := validation.ValidateItem(dto); err != nil {
		return nil, err
	}
	if _, err := getUser(ctx, s.repo, ownerID); err != nil {
		return nil, err
	}
	if dto.RequestID != nil && *dto.RequestID == 0 {
		dto.RequestID = nil
	}
	if dto.RequestID != nil {
		if _, err := s.repo.GetRequestByID(ctx, *dto.RequestID); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return nil, domain.Validation("item request %d does not exist", *dto.RequestID)
			}
			return nil, fmt.Errorf("get request %d: %w", *dto.RequestID, err)
		}
	}

	item := &models.Item{
		Name:        dto.Name,
		Description: dto.Description,
		Available:   true,
		OwnerID:     ownerID,
		RequestID:   dto.RequestID,
	}
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}

	s.logger.Info().Int64("item_id", item.ID).Int64("owner_id", ownerID).Msg("item created")
	out := toItemDto(item)
	return &out, nil
}

// Update writes the non-nil fields of dto. Only the owner may update; anyone
// else gets NotFound. Availability is left alone unless dto sets it.
func (s *ItemService) Update(ctx context.Context, ownerID, itemID int64, dto models.ItemUpdateDto) (*models.ItemDto, error) {
	if _, err := getUser(ctx, s.repo, ownerID); err != nil {
		return nil, err
	}
	item, err := getItem(ctx, s.repo, itemID)
	if err != nil {
		return nil, err
	}
	if !item.IsOwnedBy(ownerID) {
		return nil, domain.NotFound("item %d not found for owner %d", itemID, ownerID)
	}
	if err := validation.ValidateItemUpdate(dto); err != nil {
		return nil, err
	}

	patch := models.ItemPatch{Name: dto.Name, Description: dto.Description, Available: dto.Available}
	if err := s.repo.UpdateItem(ctx, itemID, patch); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, domain.NotFound("item %d not found", itemID)
		}
		return nil, fmt.Errorf("update item %d: %w", itemID, err)
	}

	item, err = getItem(ctx, s.repo, itemID)
	if err != nil {
		return nil, err
	}
	out := toItemDto(item)
	return &out, nil
}

// GetWithBookings renders an item with its comments. Last and next bookings
// are attached only when the viewer owns the item.
func (s *ItemService) GetWithBookings(ctx context.Context, viewerID, itemID int64) (*models.ItemWithBookingsDto, error) {
	if _, err := getUser(ctx, s.repo, viewerID); err != nil {
		return nil, err
	}
	item, err := getItem(ctx, s.repo, itemID)
	if err != nil {
		return nil, err
	}

	out, err := s.withBookings(ctx, item, item.IsOwnedBy(viewerID), s.now())
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ItemService) ListForOwner(ctx context.Context, ownerID int64, from, size int) ([]models.ItemWithBookingsDto, error) {
	limit, offset, err := pageBounds(from, size)
	if err != nil {
		return nil, err
	}
	if _, err := getUser(ctx, s.repo, ownerID); err != nil {
		return nil, err
	}

	items, err := s.repo.GetItemsByOwner(ctx, ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list items of owner %d: %w", ownerID, err)
	}

	now := s.now()
	out := make([]models.ItemWithBookingsDto, 0, len(items))
	for _, item := range items {
		dto, err := s.withBookings(ctx, item, true, now)
		if err != nil {
			return nil, err
		}
		out = append(out, dto)
	}
	return out, nil
}

// Search matches text against available items. A blank text matches nothing.
func (s *ItemService) Search(ctx context.Context, text string, from, size int) ([]models.ItemDto, error) {
	limit, offset, err := pageBounds(from, size)
	if err != nil {
		return nil, err
	}
	out := make([]models.ItemDto, 0)
	if strings.TrimSpace(text) == "" {
		return out, nil
	}

	items, err := s.repo.SearchItems(ctx, text, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("search items: %w", err)
	}
	for _, item := range items {
		out = append(out, toItemDto(item))
	}
	return out, nil
}

// CreateComment stores a comment from a user whose booking of the item has
// already ended.
func (s *ItemService) CreateComment(ctx context.Context, authorID, itemID int64, dto models.CommentDto) (*models.CommentDto, error) {
	if err := validation.ValidateComment(dto); err != nil {
		return nil, err
	}
	author, err := getUser(ctx, s.repo, authorID)
	if err != nil {
		return nil, err
	}
	if _, err := getItem(ctx, s.repo, itemID); err != nil {
		return nil, err
	}

	now := s.now()
	ok, err := s.repo.HasFinishedBooking(ctx, itemID, authorID, now)
	if err != nil {
		return nil, fmt.Errorf("check bookings of user %d: %w", authorID, err)
	}
	if !ok {
		return nil, domain.NoAccess("user %d has no finished booking of item %d", authorID, itemID)
	}

	comment := &models.Comment{
		Text:       dto.Text,
		ItemID:     itemID,
		AuthorID:   authorID,
		Created:    now,
		AuthorName: author.Name,
	}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	publishEvent(s.eventBus, s.logger, events.EventCommentCreated, events.CommentEventPayload{
		CommentID: comment.ID,
		ItemID:    itemID,
		AuthorID:  authorID,
		Created:   comment.Created,
	})

	out := toCommentDto(comment)
	return &out, nil
}

func (s *ItemService) withBookings(ctx context.Context, item *models.Item, owner bool, now time.Time) (models.ItemWithBookingsDto, error) {
	dto := toItemWithBookingsDto(item)

	if owner {
		last, err := s.repo.GetLastBooking(ctx, item.ID, now)
		if err != nil {
			return dto, fmt.Errorf("get last booking of item %d: %w", item.ID, err)
		}
		next, err := s.repo.GetNextBooking(ctx, item.ID, now)
		if err != nil {
			return dto, fmt.Errorf("get next booking of item %d: %w", item.ID, err)
		}
		dto.LastBooking = toBookingForItemDto(last)
		dto.NextBooking = toBookingForItemDto(next)
	}

	comments, err := s.repo.GetCommentsByItem(ctx, item.ID)
	if err != nil {
		return dto, fmt.Errorf("get comments of item %d: %w", item.ID, err)
	}
	for _, c := range comments {
		dto.Comments = append(dto.Comments, toCommentDto(c))
	}
	return dto, nil
}
