package api

import (
	"context"
	"net/http"

	"shareit/internal/models"
)

func (s *HTTPServer) createBooking(w http.ResponseWriter, r *http.Request) {
	userID, err := UserID(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var dto models.BookingShortDto
	if err := DecodeJSON(r, &dto); err != nil {
		WriteError(w, r, err)
		return
	}
	booking, err := s.svc.Bookings.Create(r.Context(), userID, dto)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, booking)
}

func (s *HTTPServer) approveBooking(w http.ResponseWriter, r *http.Request) {
	userID, err := UserID(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	bookingID, err := PathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	approved, err := Approved(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	booking, err := s.svc.Bookings.ApproveOrDeny(r.Context(), userID, bookingID, approved)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) getBooking(w http.ResponseWriter, r *http.Request) {
	userID, err := UserID(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	bookingID, err := PathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	booking, err := s.svc.Bookings.Get(r.Context(), userID, bookingID)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) listBookings(w http.ResponseWriter, r *http.Request) {
	s.writeBookingList(w, r, s.svc.Bookings.ListForBooker)
}

func (s *HTTPServer) listOwnerBookings(w http.ResponseWriter, r *http.Request) {
	s.writeBookingList(w, r, s.svc.Bookings.ListForOwner)
}

type bookingLister func(ctx context.Context, userID int64, state string, from, size int) ([]models.BookingDto, error)

func (s *HTTPServer) writeBookingList(w http.ResponseWriter, r *http.Request, list bookingLister) {
	userID, err := UserID(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	from, size, err := Page(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	bookings, err := list(r.Context(), userID, r.URL.Query().Get("state"), from, size)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, bookings)
}
