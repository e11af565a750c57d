package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/booktracker/books/internal/errs"
	"github.com/Astemirdum/booktracker/books/internal/model"
	"github.com/Astemirdum/booktracker/pkg/validate"
)

// Response is the envelope every API endpoint answers with.
type Response struct {
	Success    bool                  `json:"success"`
	Message    string                `json:"message,omitempty"`
	Data       interface{}           `json:"data,omitempty"`
	Errors     []validate.FieldError `json:"errors,omitempty"`
	Pagination *model.Pagination     `json:"pagination,omitempty"`
}

const (
	msgValidationFailed = "Validation failed"
	msgBookNotFound     = "Book not found"
	msgBookExists       = "This book already exists in your library"
)

// failure maps domain errors to their responses and hides anything else behind a 500 with msg.
func failure(err error, msg string) error {
	var verr *errs.ValidationError
	switch {
	case errors.As(err, &verr), errors.Is(err, errs.ErrNotFound), errors.Is(err, errs.ErrConflict):
		return err
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, msg).SetInternal(err)
	}
}

func errorResponse(err error) (int, Response) {
	var (
		verr *errs.ValidationError
		he   *echo.HTTPError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, Response{Message: msgValidationFailed, Errors: verr.Errors}
	case errors.Is(err, errs.ErrConflict):
		return http.StatusBadRequest, Response{Message: msgBookExists}
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound, Response{Message: msgBookNotFound}
	case errors.As(err, &he):
		msg, ok := he.Message.(string)
		if !ok {
			msg = fmt.Sprint(he.Message)
		}
		return he.Code, Response{Message: msg}
	default:
		return http.StatusInternalServerError, Response{Message: "Server error"}
	}
}

func (h *Handler) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code, resp := errorResponse(err)
	if code >= http.StatusInternalServerError {
		h.log.Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Error(err))
	}
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, resp)
	}
	if err != nil {
		h.log.Error("write error response", zap.Error(err))
	}
}
