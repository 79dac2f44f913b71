package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"doctor-appointments-api/internal/doctor"
	"doctor-appointments-api/internal/model"
)

func profiles(docs []model.Doctor) []*doctor.Profile {
	out := make([]*doctor.Profile, len(docs))
	for i := range docs {
		out[i] = doctor.NewProfile(&docs[i])
	}
	return out
}

func (h *Handler) SearchDoctors(c echo.Context) error {
	docs, err := h.doctors.Search(c.Request().Context(), c.QueryParam("specialty"), c.QueryParam("location"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profiles(docs))
}

func (h *Handler) GetDoctor(c echo.Context) error {
	d, err := h.doctors.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, doctor.NewProfile(d))
}

func (h *Handler) Availability(c echo.Context) error {
	res, err := h.bookings.Availability(c.Request().Context(), c.Param("id"),
		c.QueryParam("startDate"), c.QueryParam("endDate"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) GetProfile(c echo.Context) error {
	d, err := h.doctors.Profile(c.Request().Context(), session(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, doctor.NewProfile(d))
}

func (h *Handler) UpdateProfile(c echo.Context) error {
	var req doctor.ProfileUpdate
	if err := bind(c, &req); err != nil {
		return err
	}
	d, err := h.doctors.UpdateProfile(c.Request().Context(), session(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, doctor.NewProfile(d))
}

func (h *Handler) PendingDoctors(c echo.Context) error {
	docs, err := h.doctors.Pending(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profiles(docs))
}

func (h *Handler) ApproveDoctor(c echo.Context) error {
	d, err := h.doctors.Approve(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, doctor.NewProfile(d))
}

func (h *Handler) RejectDoctor(c echo.Context) error {
	d, err := h.doctors.Reject(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, doctor.NewProfile(d))
}
