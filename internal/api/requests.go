package api

import (
	"net/http"

	"shareit/internal/models"
)

func (s *HTTPServer) createRequest(w http.ResponseWriter, r *http.Request) {
	userID, err := UserID(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var dto models.ItemRequestDto
	if err := DecodeJSON(r, &dto); err != nil {
		WriteError(w, r, err)
		return
	}
	req, err := s.svc.Requests.Create(r.Context(), userID, dto)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, req)
}

func (s *HTTPServer) listMyRequests(w http.ResponseWriter, r *http.Request) {
	userID, err := UserID(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	reqs, err := s.svc.Requests.ListMine(r.Context(), userID)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, reqs)
}

func (s *HTTPServer) listOtherRequests(w http.ResponseWriter, r *http.Request) {
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
	reqs, err := s.svc.Requests.ListOthers(r.Context(), userID, from, size)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, reqs)
}

func (s *HTTPServer) getRequest(w http.ResponseWriter, r *http.Request) {
	userID, err := UserID(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	requestID, err := PathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	req, err := s.svc.Requests.GetOne(r.Context(), userID, requestID)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, req)
}
