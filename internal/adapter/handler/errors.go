package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/srgjo27/boat_booking/internal/core/domain"
)

type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

var errorStatus = []struct {
	err    error
	status int
}{
	{domain.ErrInvalidInput, http.StatusBadRequest},
	{domain.ErrScheduleNotBookable, http.StatusBadRequest},
	{domain.ErrTripStarted, http.StatusBadRequest},
	{domain.ErrAlreadyPaid, http.StatusBadRequest},
	{domain.ErrCapacityExceeded, http.StatusConflict},
	{domain.ErrConflictingHold, http.StatusConflict},
	{domain.ErrAlreadyCancelled, http.StatusConflict},
	{domain.ErrHoldExpiredNoCapacity, http.StatusConflict},
	{domain.ErrSchedulingConflict, http.StatusConflict},
	{domain.ErrConcurrentUpdate, http.StatusConflict},
	{domain.ErrInvalidTransition, http.StatusConflict},
	{domain.ErrUnauthorized, http.StatusForbidden},
	{domain.ErrBookingNotFound, http.StatusNotFound},
	{domain.ErrScheduleNotFound, http.StatusNotFound},
	{domain.ErrPriceTierNotFound, http.StatusNotFound},
}

func abort(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:     msg,
		Code:      code,
		RequestID: c.GetString(ctxRequestID),
	})
}

// respondError maps a service error onto a status code. Infrastructure
// failures become 503 so clients retry instead of reading them as sold out.
func respondError(c *gin.Context, err error) {
	if domain.IsInfrastructure(err) {
		c.Header("Retry-After", "1")
		abort(c, http.StatusServiceUnavailable, "unavailable", "temporarily unavailable, retry shortly")
		return
	}

	var verr domain.ValidationError
	if errors.As(err, &verr) {
		abort(c, http.StatusBadRequest, "invalid_input", verr.Error())
		return
	}

	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			code := e.err.Error()
			if e.status == http.StatusNotFound {
				code = "not_found"
			}
			abort(c, e.status, code, err.Error())
			return
		}
	}

	_ = c.Error(err)
	abort(c, http.StatusInternalServerError, "internal_error", "internal server error")
}
