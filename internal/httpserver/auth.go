package httpserver

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const (
	ctxUserID   = "user_id"
	ctxUserName = "user_name"
)

type userClaims struct {
	User struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"user"`
	jwt.RegisteredClaims
}

// jwtMiddleware verifies the bearer credential on every authenticated call.
// Authentication failure is fatal for the session: clients react by sending
// the user back to sign-in. Websocket clients cannot set headers, so the
// token query parameter is accepted as a fallback.
func jwtMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if secret == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication is not configured")
			}
			raw := strings.TrimPrefix(c.Request().Header.Get("Authorization"), "Bearer ")
			if raw == "" || raw == c.Request().Header.Get("Authorization") {
				raw = c.QueryParam("token")
			}
			if raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "no token, authorization denied")
			}

			claims := &userClaims{}
			token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "token is not valid")
			}

			c.Set(ctxUserID, claims.User.ID)
			c.Set(ctxUserName, claims.User.Name)
			return next(c)
		}
	}
}

func userName(c echo.Context) string {
	if v, ok := c.Get(ctxUserName).(string); ok {
		return v
	}
	return ""
}
