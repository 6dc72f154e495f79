package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"yardops/internal/domain"
	"yardops/internal/drag"
	"yardops/internal/gateway"
)

type errorResponse struct {
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
	Confirm string `json:"confirm,omitempty"`
}

// writeError maps service errors onto status codes. Not-found is checked
// before gateway failures since gateway errors wrap it. Gateway detail only
// reaches the access log through c.Error.
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)

	var (
		verr *domain.ValidationError
		cerr *domain.ConfirmationRequiredError
	)
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: verr.Message, Field: verr.Field})
	case errors.As(err, &cerr):
		c.JSON(http.StatusConflict, errorResponse{Error: "confirmation required", Confirm: cerr.Prompt})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrAlreadyExists),
		errors.Is(err, domain.ErrNotDraggable),
		errors.Is(err, domain.ErrNoActiveDrag),
		errors.Is(err, drag.ErrInvalidTransition):
		c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
	case gateway.IsGatewayError(err):
		c.JSON(http.StatusBadGateway, errorResponse{Error: "storage backend unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
}
