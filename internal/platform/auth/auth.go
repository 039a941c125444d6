// Package auth issues and validates the HS256 session tokens that
// authenticate clinicians. Patients never authenticate; they reach the form
// through single-use assessment links instead.
package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	doctorIDKey   contextKey = "doctor_id"
	doctorRoleKey contextKey = "doctor_role"
)

// DefaultTokenTTL bounds a clinician session.
const DefaultTokenTTL = 24 * time.Hour

// Claims is the JWT payload carried by clinician session tokens.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// IssueToken signs a session token for the given doctor.
func IssueToken(doctorID, role string, secret []byte, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   doctorID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseToken validates a session token and returns its claims.
func ParseToken(tokenStr string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// JWTMiddleware rejects requests without a valid bearer token and puts the
// doctor id and role on the request context.
func JWTMiddleware(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims, err := ParseToken(parts[1], secret)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			ctx := WithDoctor(c.Request().Context(), claims.Subject, claims.Role)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// OptionalJWTMiddleware populates the doctor identity when a valid bearer
// token is present but lets anonymous requests through. Used on routes that
// accept either a clinician session or a single-use link.
func OptionalJWTMiddleware(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
				if claims, err := ParseToken(parts[1], secret); err == nil {
					ctx := WithDoctor(c.Request().Context(), claims.Subject, claims.Role)
					c.SetRequest(c.Request().WithContext(ctx))
				}
			}
			return next(c)
		}
	}
}

// WithDoctor attaches an authenticated doctor identity to the context.
func WithDoctor(ctx context.Context, doctorID, role string) context.Context {
	ctx = context.WithValue(ctx, doctorIDKey, doctorID)
	return context.WithValue(ctx, doctorRoleKey, role)
}

// DoctorIDFromContext returns the authenticated doctor's id, or "" when the
// request was not authenticated.
func DoctorIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(doctorIDKey).(string)
	return id
}

// RoleFromContext returns the authenticated doctor's role.
func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(doctorRoleKey).(string)
	return role
}
