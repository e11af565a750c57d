package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Astemirdum/booktracker/books/internal/model"
)

// Stats godoc
// @Summary Library statistics
// @Tags dashboard
// @Security BearerAuth
// @Produce json
// @Success 200 {object} Response
// @Router /dashboard/stats [get]
func (h *Handler) Stats(c echo.Context) error {
	o, err := owner(c)
	if err != nil {
		return err
	}
	stats, err := h.dashboardSvc.Stats(c.Request().Context(), o)
	if err != nil {
		return failure(err, "Server error while fetching dashboard statistics")
	}
	return c.JSON(http.StatusOK, Response{Success: true, Data: stats})
}

// Analytics godoc
// @Summary Reading analytics for a period
// @Tags dashboard
// @Security BearerAuth
// @Produce json
// @Param period query string false "week, month or year" default(year)
// @Success 200 {object} Response
// @Failure 400 {object} Response
// @Router /dashboard/analytics [get]
func (h *Handler) Analytics(c echo.Context) error {
	o, err := owner(c)
	if err != nil {
		return err
	}
	period := model.Period(c.QueryParam("period"))
	res, err := h.dashboardSvc.Analytics(c.Request().Context(), o, period)
	if err != nil {
		return failure(err, "Server error while fetching analytics")
	}
	return c.JSON(http.StatusOK, Response{Success: true, Data: res})
}
