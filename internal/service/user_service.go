package service

import (
	"context"
	"errors"
	"fmt"

	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/models"
	"shareit/internal/validation"

	"github.com/rs/zerolog"
)

type UserService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

var _ domain.UserService = (*UserService)(nil)

func NewUserService(repo domain.Repository, logger *zerolog.Logger) *UserService {
	return &UserService{
		repo:   repo,
		logger: logger,
	}
}

func (s *UserService) Create(ctx context.Context, dto models.UserDto) (*models.UserDto, error) {
	if err := validation.ValidateUser(dto); err != nil {
		return nil, err
	}

	user := &models.User{Name: dto.Name, Email: dto.Email}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, domain.AlreadyExists("user with email %s already exists", dto.Email)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info().Int64("user_id", user.ID).Msg("user created")
	out := toUserDto(user)
	return &out, nil
}

// Update merges the non-nil fields of dto onto the stored user.
func (s *UserService) Update(ctx context.Context, id int64, dto models.UserUpdateDto) (*models.UserDto, error) {
	if err := validation.ValidateUserUpdate(dto); err != nil {
		return nil, err
	}

	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if dto.Name != nil {
		user.Name = *dto.Name
	}
	if dto.Email != nil {
		user.Email = *dto.Email
	}

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, database.ErrDuplicate):
			return nil, domain.AlreadyExists("user with email %s already exists", user.Email)
		case errors.Is(err, database.ErrNotFound):
			return nil, domain.NotFound("user %d not found", id)
		}
		return nil, fmt.Errorf("update user %d: %w", id, err)
	}

	out := toUserDto(user)
	return &out, nil
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return domain.NotFound("user %d not found", id)
		}
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	s.logger.Info().Int64("user_id", id).Msg("user deleted")
	return nil
}

func (s *UserService) Get(ctx context.Context, id int64) (*models.UserDto, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	out := toUserDto(user)
	return &out, nil
}

func (s *UserService) List(ctx context.Context) ([]models.UserDto, error) {
	users, err := s.repo.GetAllUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]models.UserDto, 0, len(users))
	for _, u := range users {
		out = append(out, toUserDto(u))
	}
	return out, nil
}

func (s *UserService) getUser(ctx context.Context, id int64) (*models.User, error) {
	return getUser(ctx, s.repo, id)
}

// getUser resolves a user, reporting a missing one as NotFound.
func getUser(ctx context.Context, repo domain.UserRepository, id int64) (*models.User, error) {
	user, err := repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, domain.NotFound("user %d not found", id)
		}
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return user, nil
}

func getItem(ctx context.Context, repo domain.ItemRepository, id int64) (*models.Item, error) {
	item, err := repo.GetItemByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, domain.NotFound("item %d not found", id)
		}
		return nil, fmt.Errorf("get item %d: %w", id, err)
	}
	return item, nil
}
