package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/models"
	"shareit/internal/validation"

	"github.com/rs/zerolog"
)

type RequestService struct {
	repo   domain.Repository
	logger *zerolog.Logger
	now    func() time.Time
}

var _ domain.RequestService = (*RequestService)(nil)

func NewRequestService(repo domain.Repository, logger *zerolog.Logger) *RequestService {
	return &RequestService{
		repo:   repo,
		logger: logger,
		now:    models.Now,
	}
}

func (s *RequestService) Create(ctx context.Context, requesterID int64, dto models.ItemRequestDto) (*models.ItemRequestDto, error) {
	if err := validation.ValidateRequest(dto); err != nil {
		return nil, err
	}
	if _, err := getUser(ctx, s.repo, requesterID); err != nil {
		return nil, err
	}

	req := &models.ItemRequest{
		Description: dto.Description,
		RequesterID: requesterID,
		Created:     s.now(),
	}
	if err := s.repo.CreateRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	s.logger.Info().Int64("request_id", req.ID).Int64("requester_id", requesterID).Msg("item request created")
	out := toRequestDto(req)
	return &out, nil
}

// GetOne returns a request with the items offered for it. Any existing user
// may look at any request.
func (s *RequestService) GetOne(ctx context.Context, requesterID, requestID int64) (*models.ItemRequestResponseDto, error) {
	if _, err := getUser(ctx, s.repo, requesterID); err != nil {
		return nil, err
	}
	req, err := s.repo.GetRequestByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, domain.NotFound("item request %d not found", requestID)
		}
		return nil, fmt.Errorf("get request %d: %w", requestID, err)
	}

	out, err := s.withItems(ctx, []*models.ItemRequest{req})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// ListMine returns the requester's own requests, newest first.
func (s *RequestService) ListMine(ctx context.Context, requesterID int64) ([]models.ItemRequestResponseDto, error) {
	if _, err := getUser(ctx, s.repo, requesterID); err != nil {
		return nil, err
	}
	reqs, err := s.repo.GetRequestsByRequester(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("list requests of user %d: %w", requesterID, err)
	}
	return s.withItems(ctx, reqs)
}

// ListOthers pages through requests posted by everyone except requesterID.
func (s *RequestService) ListOthers(ctx context.Context, requesterID int64, from, size int) ([]models.ItemRequestResponseDto, error) {
	limit, offset, err := pageBounds(from, size)
	if err != nil {
		return nil, err
	}
	if _, err := getUser(ctx, s.repo, requesterID); err != nil {
		return nil, err
	}
	reqs, err := s.repo.GetRequestsExcept(ctx, requesterID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list requests except user %d: %w", requesterID, err)
	}
	return s.withItems(ctx, reqs)
}

// withItems attaches offered items to every request with a single lookup.
func (s *RequestService) withItems(ctx context.Context, reqs []*models.ItemRequest) ([]models.ItemRequestResponseDto, error) {
	out := make([]models.ItemRequestResponseDto, 0, len(reqs))
	if len(reqs) == 0 {
		return out, nil
	}

	ids := make([]int64, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.ID)
	}
	items, err := s.repo.GetItemsByRequestIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get items for requests: %w", err)
	}

	byRequest := make(map[int64][]models.ItemForRequestDto, len(reqs))
	for _, item := range items {
		if item.RequestID == nil {
			continue
		}
		byRequest[*item.RequestID] = append(byRequest[*item.RequestID], toItemForRequestDto(item))
	}

	for _, r := range reqs {
		offered := byRequest[r.ID]
		if offered == nil {
			offered = []models.ItemForRequestDto{}
		}
		out = append(out, models.ItemRequestResponseDto{
			ID:          r.ID,
			Description: r.Description,
			RequesterID: r.RequesterID,
			Created:     models.FormatDateTime(r.Created),
			Items:       offered,
		})
	}
	return out, nil
}
