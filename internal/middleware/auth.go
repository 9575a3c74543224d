package middleware

import (
	"errors"
	"strings"
	"time"

	"binwahab-store/internal/apperror"
	"binwahab-store/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const actorKey = "actor"

// Claims are issued by the storefront's auth provider. The subject is the user id.
type Claims struct {
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
	jwt.RegisteredClaims
}

// AuthMiddleware verifies an HS256 bearer token and stores the caller as a model.Actor.
func AuthMiddleware(secret []byte, issuer string) echo.MiddlewareFunc {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30*time.Second),
	)
	keyFunc := func(*jwt.Token) (interface{}, error) { return secret, nil }

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			raw, ok := strings.CutPrefix(header, "Bearer ")
			raw = strings.TrimSpace(raw)
			if !ok || raw == "" {
				return apperror.New(apperror.CodeUnauthorized, "missing bearer token")
			}

			claims := &Claims{}
			if _, err := parser.ParseWithClaims(raw, claims, keyFunc); err != nil {
				msg := "invalid token"
				if errors.Is(err, jwt.ErrTokenExpired) {
					msg = "token expired"
				}
				return apperror.Wrap(apperror.CodeUnauthorized, err, msg)
			}
			if strings.TrimSpace(claims.Subject) == "" {
				return apperror.New(apperror.CodeUnauthorized, "token has no subject")
			}

			role := claims.Role
			if role != model.RoleAdmin {
				role = model.RoleCustomer
			}
			c.Set(actorKey, model.Actor{UserID: claims.Subject, Email: claims.Email, Role: role})
			return next(c)
		}
	}
}

// AdminOnly must run after AuthMiddleware.
func AdminOnly() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, ok := ActorFrom(c)
			if !ok {
				return apperror.New(apperror.CodeUnauthorized, "not authenticated")
			}
			if !actor.IsAdmin() {
				return apperror.New(apperror.CodeForbidden, "admin access required")
			}
			return next(c)
		}
	}
}

func ActorFrom(c echo.Context) (model.Actor, bool) {
	actor, ok := c.Get(actorKey).(model.Actor)
	return actor, ok
}

// SignToken issues a token for the given actor. Used by tests and local tooling.
func SignToken(secret []byte, issuer string, actor model.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: actor.Email,
		Role:  actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.UserID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
