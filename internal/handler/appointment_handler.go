package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"doctor-appointments-api/internal/booking"
)

func (h *Handler) CreateAppointment(c echo.Context) error {
	var req booking.BookRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	a, err := h.bookings.Book(c.Request().Context(), session(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) ListAppointments(c echo.Context) error {
	list, err := h.bookings.List(c.Request().Context(), session(c), c.QueryParam("status"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

func (h *Handler) GetAppointment(c echo.Context) error {
	a, err := h.bookings.Get(c.Request().Context(), session(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) UpdateAppointment(c echo.Context) error {
	var req booking.UpdateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	a, err := h.bookings.Update(c.Request().Context(), session(c), c.Param("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

type cancelRequest struct {
	Reason string `json:"motivoCancelacion"`
}

// CancelAppointment is a soft delete: the row stays, marked CANCELADA.
func (h *Handler) CancelAppointment(c echo.Context) error {
	var req cancelRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	a, err := h.bookings.Cancel(c.Request().Context(), session(c), c.Param("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) AppointmentStats(c echo.Context) error {
	st, err := h.bookings.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, st)
}
