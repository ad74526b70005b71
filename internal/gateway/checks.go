package gateway

import (
	"net/http"

	"shareit/internal/api"
	"shareit/internal/domain"
	"shareit/internal/models"
	"shareit/internal/validation"
)

func (g *Gateway) checkUserID(r *http.Request, _ []byte) error {
	_, err := api.UserID(r)
	return err
}

func (g *Gateway) checkPage(r *http.Request, _ []byte) error {
	from, size, err := api.Page(r)
	if err != nil {
		return err
	}
	return validation.ValidatePage(from, size)
}

func (g *Gateway) checkState(r *http.Request, _ []byte) error {
	_, err := validation.ParseState(r.URL.Query().Get("state"))
	return err
}

func (g *Gateway) checkSearch(r *http.Request, _ []byte) error {
	if !r.URL.Query().Has("text") {
		return domain.Validation("text is required")
	}
	return nil
}

func (g *Gateway) checkApproved(r *http.Request, _ []byte) error {
	_, err := api.Approved(r)
	return err
}

func (g *Gateway) checkUser(r *http.Request, body []byte) error {
	var dto models.UserDto
	if err := decode(r, body, &dto); err != nil {
		return err
	}
	return validation.ValidateUser(dto)
}

func (g *Gateway) checkUserUpdate(r *http.Request, body []byte) error {
	var dto models.UserUpdateDto
	if err := decode(r, body, &dto); err != nil {
		return err
	}
	return validation.ValidateUserUpdate(dto)
}

func (g *Gateway) checkItem(r *http.Request, body []byte) error {
	if err := g.checkUserID(r, body); err != nil {
		return err
	}
	var dto models.ItemDto
	if err := decode(r, body, &dto); err != nil {
		return err
	}
	return validation.ValidateItem(dto)
}

func (g *Gateway) checkItemUpdate(r *http.Request, body []byte) error {
	if err := g.checkUserID(r, body); err != nil {
		return err
	}
	var dto models.ItemUpdateDto
	if err := decode(r, body, &dto); err != nil {
		return err
	}
	return validation.ValidateItemUpdate(dto)
}

func (g *Gateway) checkComment(r *http.Request, body []byte) error {
	if err := g.checkUserID(r, body); err != nil {
		return err
	}
	var dto models.CommentDto
	if err := decode(r, body, &dto); err != nil {
		return err
	}
	return validation.ValidateComment(dto)
}

func (g *Gateway) checkBooking(r *http.Request, body []byte) error {
	if err := g.checkUserID(r, body); err != nil {
		return err
	}
	var dto models.BookingShortDto
	if err := decode(r, body, &dto); err != nil {
		return err
	}
	_, _, err := validation.ParseBookingPeriod(dto, g.now(), g.grace)
	return err
}

func (g *Gateway) checkRequest(r *http.Request, body []byte) error {
	if err := g.checkUserID(r, body); err != nil {
		return err
	}
	var dto models.ItemRequestDto
	if err := decode(r, body, &dto); err != nil {
		return err
	}
	return validation.ValidateRequest(dto)
}
