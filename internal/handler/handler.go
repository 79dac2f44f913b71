package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"doctor-appointments-api/internal/booking"
	"doctor-appointments-api/internal/doctor"
	"doctor-appointments-api/internal/middleware"
	"doctor-appointments-api/internal/model"
)

// Accounts stores users and their refresh tokens.
type Accounts interface {
	CreateUser(ctx context.Context, u *model.User) error
	CreateDoctorAccount(ctx context.Context, u *model.User, d *model.Doctor) error
	UserByEmail(ctx context.Context, email string) (*model.User, error)
	UserByID(ctx context.Context, id string) (*model.User, error)
	CreateRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) (string, error)
	GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	RotateRefreshToken(ctx context.Context, oldID, newID, userID, newHash string, newExpiry time.Time) error
	RevokeAllRefreshTokens(ctx context.Context, userID string) error
}

type Handler struct {
	bookings *booking.Service
	doctors  *doctor.Service
	accounts Accounts
	secret   string
	log      zerolog.Logger
}

func New(bookings *booking.Service, doctors *doctor.Service, accounts Accounts, secret string, log zerolog.Logger) *Handler {
	return &Handler{bookings: bookings, doctors: doctors, accounts: accounts, secret: secret, log: log}
}

// Routes mounts the API on e. rl may be nil to disable rate limiting.
func (h *Handler) Routes(e *echo.Echo, rl *middleware.RateLimiter) {
	limit := func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	if rl != nil {
		limit = rl.Middleware()
	}
	authed := middleware.Auth(h.secret)

	a := e.Group("/auth")
	a.POST("/register", h.Register, limit)
	a.POST("/login", h.Login, limit)
	a.POST("/refresh", h.Refresh, limit)
	a.POST("/logout", h.Logout, authed)
	a.GET("/me", h.Me, authed)

	d := e.Group("/doctors")
	d.GET("", h.SearchDoctors)
	d.GET("/profile", h.GetProfile, authed, middleware.RequireRole(model.RoleDoctor))
	d.PUT("/profile", h.UpdateProfile, authed, middleware.RequireRole(model.RoleDoctor))
	d.GET("/:id", h.GetDoctor)
	d.GET("/:id/availability", h.Availability)

	ap := e.Group("/appointments", authed)
	ap.POST("", h.CreateAppointment, middleware.RequireRole(model.RolePatient), limit)
	ap.GET("", h.ListAppointments)
	ap.GET("/:id", h.GetAppointment)
	ap.PUT("/:id", h.UpdateAppointment)
	ap.DELETE("/:id", h.CancelAppointment)

	adm := e.Group("/admin", authed, middleware.RequireRole(model.RoleAdmin))
	adm.GET("/doctors/pending", h.PendingDoctors)
	adm.POST("/doctors/:id/approve", h.ApproveDoctor)
	adm.POST("/doctors/:id/reject", h.RejectDoctor)
	adm.GET("/appointments/stats", h.AppointmentStats)
}

func session(c echo.Context) model.Session {
	s, _ := middleware.SessionFrom(c)
	return s
}

func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return model.Errorf(model.CodeValidation, "malformed request body")
	}
	return nil
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func statusFor(code model.Code) int {
	switch code {
	case model.CodeValidation:
		return http.StatusBadRequest
	case model.CodeUnauthorized:
		return http.StatusUnauthorized
	case model.CodeForbidden:
		return http.StatusForbidden
	case model.CodeNotFound:
		return http.StatusNotFound
	case model.CodeSlotConflict, model.CodeAlreadyExists, model.CodeInvalidTransition:
		return http.StatusConflict
	case model.CodeInvalidSlot, model.CodeDoctorUnavailable:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return string(model.CodeValidation)
	case http.StatusUnauthorized:
		return string(model.CodeUnauthorized)
	case http.StatusForbidden:
		return string(model.CodeForbidden)
	case http.StatusNotFound:
		return string(model.CodeNotFound)
	case http.StatusTooManyRequests:
		return "RateLimited"
	case http.StatusMethodNotAllowed:
		return "MethodNotAllowed"
	case http.StatusServiceUnavailable:
		return "Unavailable"
	}
	return "InternalError"
}

// ErrorHandler writes every error as {"code", "message"}. Unclassified
// errors become a 500 whose detail is only logged.
func ErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		body := errorBody{Code: "InternalError", Message: "internal error"}

		var me *model.Error
		var he *echo.HTTPError
		switch {
		case errors.As(err, &me):
			status = statusFor(me.Code)
			body = errorBody{Code: string(me.Code), Message: me.Message}
		case errors.As(err, &he):
			status = he.Code
			body = errorBody{Code: codeForStatus(he.Code), Message: fmt.Sprint(he.Message)}
		}

		if status >= http.StatusInternalServerError {
			log.Error().Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Msg("request failed")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			log.Error().Err(err).Msg("write error response")
		}
	}
}
