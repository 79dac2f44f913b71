package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"doctor-appointments-api/internal/auth"
	"doctor-appointments-api/internal/doctor"
	"doctor-appointments-api/internal/model"
)

type registerRequest struct {
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Name     string     `json:"name"`
	Role     model.Role `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type tokenResponse struct {
	Token        string      `json:"token"`
	RefreshToken string      `json:"refreshToken"`
	User         *model.User `json:"user"`
}

func (h *Handler) issueTokens(ctx context.Context, u *model.User) (*tokenResponse, error) {
	tok, err := auth.MakeToken(u, h.secret)
	if err != nil {
		return nil, err
	}
	raw, hash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}
	if _, err := h.accounts.CreateRefreshToken(ctx, u.ID, hash, time.Now().Add(auth.RefreshTTL)); err != nil {
		return nil, err
	}
	return &tokenResponse{Token: tok, RefreshToken: raw, User: u}, nil
}

func newUser(email, password, name string, role model.Role) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	if email == "" || password == "" || name == "" {
		return nil, model.Errorf(model.CodeValidation, "all fields required")
	}
	if len(password) < 8 {
		return nil, model.Errorf(model.CodeValidation, "password too short")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	return &model.User{ID: uuid.New().String(), Email: email, PasswordHash: hash, Name: name, Role: role}, nil
}

// Register signs up a patient or a doctor. Doctors start PENDING until an
// admin approves them.
func (h *Handler) Register(c echo.Context) error {
	var req registerRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.Role == "" {
		req.Role = model.RolePatient
	}
	if req.Role != model.RolePatient && req.Role != model.RoleDoctor {
		return model.Errorf(model.CodeValidation, "role must be PATIENT or DOCTOR")
	}

	u, err := newUser(req.Email, req.Password, req.Name, req.Role)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	if u.Role == model.RoleDoctor {
		d := &model.Doctor{
			ID:                  uuid.New().String(),
			AppointmentDuration: model.DefaultAppointmentDuration,
			Status:              model.DoctorPending,
		}
		err = h.accounts.CreateDoctorAccount(ctx, u, d)
	} else {
		err = h.accounts.CreateUser(ctx, u)
	}
	if err != nil {
		return err
	}
	h.log.Info().Str("user_id", u.ID).Str("role", string(u.Role)).Msg("user registered")

	resp, err := h.issueTokens(ctx, u)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, resp)
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.Email == "" || req.Password == "" {
		return model.Errorf(model.CodeValidation, "email and password required")
	}

	ctx := c.Request().Context()
	u, err := h.accounts.UserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if errors.Is(err, model.ErrNotFound) {
		return model.Errorf(model.CodeUnauthorized, "invalid credentials")
	}
	if err != nil {
		return err
	}
	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		return model.Errorf(model.CodeUnauthorized, "invalid credentials")
	}

	resp, err := h.issueTokens(ctx, u)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// Refresh trades a refresh token for a new pair. Reusing a revoked token
// revokes every token of the user.
func (h *Handler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.RefreshToken == "" {
		return model.Errorf(model.CodeValidation, "refreshToken required")
	}
	ctx := c.Request().Context()

	rt, err := h.accounts.GetRefreshTokenByHash(ctx, auth.HashRefreshToken(req.RefreshToken))
	if err != nil {
		return err
	}
	if rt.Revoked {
		h.log.Warn().Str("user_id", rt.UserID).Msg("revoked refresh token reused")
		if err := h.accounts.RevokeAllRefreshTokens(ctx, rt.UserID); err != nil {
			return err
		}
		return model.Errorf(model.CodeUnauthorized, "refresh token revoked")
	}
	if time.Now().After(rt.ExpiresAt) {
		return model.Errorf(model.CodeUnauthorized, "refresh token expired")
	}

	u, err := h.accounts.UserByID(ctx, rt.UserID)
	if err != nil {
		return err
	}
	tok, err := auth.MakeToken(u, h.secret)
	if err != nil {
		return err
	}
	raw, hash, err := auth.GenerateRefreshToken()
	if err != nil {
		return err
	}
	if err := h.accounts.RotateRefreshToken(ctx, rt.ID, uuid.New().String(), u.ID, hash, time.Now().Add(auth.RefreshTTL)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tokenResponse{Token: tok, RefreshToken: raw, User: u})
}

func (h *Handler) Logout(c echo.Context) error {
	if err := h.accounts.RevokeAllRefreshTokens(c.Request().Context(), session(c).UserID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type meResponse struct {
	User   *model.User     `json:"user"`
	Doctor *doctor.Profile `json:"doctor,omitempty"`
}

func (h *Handler) Me(c echo.Context) error {
	ctx := c.Request().Context()
	s := session(c)
	u, err := h.accounts.UserByID(ctx, s.UserID)
	if err != nil {
		return err
	}
	resp := meResponse{User: u}
	if u.Role == model.RoleDoctor {
		d, err := h.doctors.Profile(ctx, s)
		if err != nil {
			return err
		}
		resp.Doctor = doctor.NewProfile(d)
	}
	return c.JSON(http.StatusOK, resp)
}

// EnsureAdmin creates the admin account if no user has that email yet.
func (h *Handler) EnsureAdmin(ctx context.Context, email, password, name string) error {
	_, err := h.accounts.UserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err == nil {
		return nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return err
	}
	u, err := newUser(email, password, name, model.RoleAdmin)
	if err != nil {
		return err
	}
	if err := h.accounts.CreateUser(ctx, u); err != nil {
		return err
	}
	h.log.Info().Str("user_id", u.ID).Msg("admin account created")
	return nil
}
