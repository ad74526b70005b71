package api

import (
	"net/http"

	"shareit/internal/domain"
	"shareit/internal/models"
)

func (s *HTTPServer) createItem(w http.ResponseWriter, r *http.Request) {
	userID, err := UserID(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var dto models.ItemDto
	if err := DecodeJSON(r, &dto); err != nil {
		WriteError(w, r, err)
		return
	}
	item, err := s.svc.Items.Create(r.Context(), userID, dto)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, item)
}

func (s *HTTPServer) listItems(w http.ResponseWriter, r *http.Request) {
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
	items, err := s.svc.Items.ListForOwner(r.Context(), userID, from, size)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, items)
}

func (s *HTTPServer) searchItems(w http.ResponseWriter, r *http.Request) {
	if _, err := UserID(r); err != nil {
		WriteError(w, r, err)
		return
	}
	if !r.URL.Query().Has("text") {
		WriteError(w, r, domain.Validation("text is required"))
		return
	}
	from, size, err := Page(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	items, err := s.svc.Items.Search(r.Context(), r.URL.Query().Get("text"), from, size)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, items)
}

func (s *HTTPServer) getItem(w http.ResponseWriter, r *http.Request) {
	userID, err := UserID(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	itemID, err := PathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	item, err := s.svc.Items.GetWithBookings(r.Context(), userID, itemID)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, item)
}

func (s *HTTPServer) updateItem(w http.ResponseWriter, r *http.Request) {
	userID, err := UserID(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	itemID, err := PathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var dto models.ItemUpdateDto
	if err := DecodeJSON(r, &dto); err != nil {
		WriteError(w, r, err)
		return
	}
	item, err := s.svc.Items.Update(r.Context(), userID, itemID, dto)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, item)
}

func (s *HTTPServer) createComment(w http.ResponseWriter, r *http.Request) {
	userID, err := UserID(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	itemID, err := PathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var dto models.CommentDto
	if err := DecodeJSON(r, &dto); err != nil {
		WriteError(w, r, err)
		return
	}
	comment, err := s.svc.Items.CreateComment(r.Context(), userID, itemID, dto)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, comment)
}
