// Package validation holds the payload checks shared by the gateway and the server.
package validation

import (
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"shareit/internal/domain"
	"shareit/internal/models"
)

func checkText(field, value string, maxLen int) error {
	if strings.TrimSpace(value) == "" {
		return domain.Validation("%s must not be blank", field)
	}
	if n := utf8.RuneCountInString(value); n > maxLen {
		return domain.Validation("%s must be from 1 to %d characters long", field, maxLen)
	}
	return nil
}

func checkEmail(email string) error {
	if err := checkText("email", email, models.MaxEmailLength); err != nil {
		return err
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email, "@") {
		return domain.Validation("invalid email: %s", email)
	}
	return nil
}

func ValidateUser(dto models.UserDto) error {
	if err := checkText("name", dto.Name, models.MaxUserNameLength); err != nil {
		return err
	}
	return checkEmail(dto.Email)
}

// ValidateUserUpdate checks only the fields present in a partial update.
func ValidateUserUpdate(dto models.UserUpdateDto) error {
	if dto.Name != nil {
		if err := checkText("name", *dto.Name, models.MaxUserNameLength); err != nil {
			return err
		}
	}
	if dto.Email != nil {
		return checkEmail(*dto.Email)
	}
	return nil
}

func ValidateItem(dto models.ItemDto) error {
	if err := checkText("name", dto.Name, models.MaxItemNameLength); err != nil {
		return err
	}
	if err := checkText("description", dto.Description, models.MaxDescriptionLength); err != nil {
		return err
	}
	if dto.Available == nil {
		return domain.Validation("available must be set")
	}
	return nil
}

func ValidateItemUpdate(dto models.ItemUpdateDto) error {
	if dto.Name != nil {
		if err := checkText("name", *dto.Name, models.MaxItemNameLength); err != nil {
			return err
		}
	}
	if dto.Description != nil {
		return checkText("description", *dto.Description, models.MaxDescriptionLength)
	}
	return nil
}

func ValidateComment(dto models.CommentDto) error {
	return checkText("text", dto.Text, models.MaxCommentLength)
}

func ValidateRequest(dto models.ItemRequestDto) error {
	return checkText("description", dto.Description, models.MaxDescriptionLength)
}

// ParseBookingPeriod parses the requested period and checks that it is
// non-empty and does not lie in the past. grace tolerates client clock skew.
func ParseBookingPeriod(dto models.BookingShortDto, now time.Time, grace time.Duration) (time.Time, time.Time, error) {
	if dto.Start == "" || dto.End == "" {
		return time.Time{}, time.Time{}, domain.Validation("booking start and end must be set")
	}
	start, err := models.ParseDateTime(dto.Start)
	if err != nil {
		return time.Time{}, time.Time{}, domain.Validation("invalid booking start: %s", dto.Start)
	}
	end, err := models.ParseDateTime(dto.End)
	if err != nil {
		return time.Time{}, time.Time{}, domain.Validation("invalid booking end: %s", dto.End)
	}

	threshold := now.Add(-grace)
	if !end.After(start) || start.Before(threshold) || end.Before(threshold) {
		return time.Time{}, time.Time{}, domain.Validation("invalid booking start and end dates")
	}
	return start, end, nil
}

// ValidatePage checks offset pagination parameters.
func ValidatePage(from, size int) error {
	if from < 0 {
		return domain.Validation("from must not be negative")
	}
	if size <= 0 {
		return domain.Validation("size must be positive")
	}
	return nil
}

// ParseState resolves the booking state filter; an empty value means ALL.
func ParseState(raw string) (models.BookingState, error) {
	state, ok := models.ParseBookingState(raw)
	if !ok {
		return "", domain.Validation("Unknown state: %s", raw)
	}
	return state, nil
}
