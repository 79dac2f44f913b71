package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"doctor-appointments-api/internal/auth"
	"doctor-appointments-api/internal/model"
)

const sessionKey = "session"

// Auth requires a valid "Authorization: Bearer <jwt>" header and stores the
// caller's session on the context.
func Auth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Request().Header.Get(echo.HeaderAuthorization)
			raw, ok := strings.CutPrefix(h, "Bearer ")
			if !ok || raw == "" {
				return model.Errorf(model.CodeUnauthorized, "no token")
			}
			claims, err := auth.ParseToken(raw, secret)
			if err != nil {
				return model.Errorf(model.CodeUnauthorized, "bad token")
			}
			c.Set(sessionKey, claims.Session())
			return next(c)
		}
	}
}

// RequireRole lets through only sessions holding one of roles. It must run
// after Auth.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s, ok := SessionFrom(c)
			if !ok {
				return model.ErrUnauthorized
			}
			for _, r := range roles {
				if s.Role == r {
					return next(c)
				}
			}
			return model.Errorf(model.CodeForbidden, "requires role %s", joinRoles(roles))
		}
	}
}

func joinRoles(roles []model.Role) string {
	s := make([]string, len(roles))
	for i, r := range roles {
		s[i] = string(r)
	}
	return strings.Join(s, " or ")
}

func SessionFrom(c echo.Context) (model.Session, bool) {
	s, ok := c.Get(sessionKey).(model.Session)
	return s, ok
}
