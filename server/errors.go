package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/spektr-org/agrolens/engine"
)

// ErrResponse is the JSON error body.
type ErrResponse struct {
	Status int    `json:"status"`
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

// Render implements the render.Renderer interface
func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.Status)
	return nil
}

func errBadRequest(detail string) *ErrResponse {
	return &ErrResponse{Status: http.StatusBadRequest, Code: "bad_request", Detail: detail}
}

// errFromPipeline maps engine sentinels to HTTP statuses.
func errFromPipeline(err error) *ErrResponse {
	switch {
	case errors.Is(err, engine.ErrInvalidFilter):
		return &ErrResponse{Status: http.StatusBadRequest, Code: "invalid_filter", Detail: err.Error()}
	case errors.Is(err, engine.ErrEmptyResult):
		return &ErrResponse{Status: http.StatusNotFound, Code: "empty_result", Detail: err.Error()}
	case errors.Is(err, engine.ErrDuplicateYear):
		return &ErrResponse{Status: http.StatusUnprocessableEntity, Code: "duplicate_year", Detail: err.Error()}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &ErrResponse{Status: http.StatusServiceUnavailable, Code: "cancelled", Detail: err.Error()}
	default:
		return &ErrResponse{Status: http.StatusInternalServerError, Code: "internal", Detail: "internal error"}
	}
}
