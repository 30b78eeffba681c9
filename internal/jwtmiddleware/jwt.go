package jwtmiddleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const (
	RoleVendor          = "vendor"
	RoleSupplier        = "supplier"
	RoleDeliveryPartner = "delivery_partner"
)

const principalKey = "principal"

// Principal is the authenticated identity the handlers trust.
type Principal struct {
	ID   uint
	Role string
}

func IssueToken(secret []byte, userID uint, role string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":  float64(userID),
		"role": role,
		"exp":  time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func parseToken(tokenString string, secret []byte) (Principal, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return Principal{}, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, fmt.Errorf("invalid token claims")
	}
	sub, ok := claims["sub"].(float64)
	if !ok {
		return Principal{}, fmt.Errorf("invalid subject claim")
	}
	role, ok := claims["role"].(string)
	if !ok {
		return Principal{}, fmt.Errorf("invalid role claim")
	}

	return Principal{ID: uint(sub), Role: role}, nil
}

// RequireAuth reads the accessToken cookie and stores the Principal on the
// echo context.
func RequireAuth(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie("accessToken")
			if err != nil || cookie.Value == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing auth cookie")
			}
			p, err := parseToken(cookie.Value, secret)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}
			c.Set(principalKey, p)
			return next(c)
		}
	}
}

// RequireRole gates a route group on a single role. Must run after RequireAuth.
func RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, err := FromContext(c)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
			}
			if p.Role != role {
				return echo.NewHTTPError(http.StatusForbidden, role+" access required")
			}
			return next(c)
		}
	}
}

func FromContext(c echo.Context) (Principal, error) {
	p, ok := c.Get(principalKey).(Principal)
	if !ok {
		return Principal{}, fmt.Errorf("no principal in context")
	}
	return p, nil
}
