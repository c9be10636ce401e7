package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pranav-p-pathak/mental-health-chatbot/internal/logger"
	"github.com/pranav-p-pathak/mental-health-chatbot/pkg/utils"
)

type contextKey string

const userIDKey contextKey = "userID"

// Auth verifies inbound bearer credentials before any orchestration runs.
// Requests without a credential are rejected 401, requests with one that
// fails verification 403; neither ever reaches a downstream service.
type Auth struct {
	secret []byte
	log    *logger.Logger
}

// NewAuth builds the identity gate around the shared signing secret.
func NewAuth(secret string, log *logger.Logger) *Auth {
	return &Auth{secret: []byte(secret), log: log.With("middleware", "auth")}
}

// RequireAuth authenticates the request and stores the subject claim as the
// user identifier in the request context.
func (a *Auth) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		userID, err := a.verify(token)
		if err != nil {
			a.log.Warn("token verification failed", "error", err)
			utils.RespondError(w, http.StatusForbidden, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Auth) verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}

	if claims.Subject == "" {
		return "", errors.New("token missing subject claim")
	}
	return claims.Subject, nil
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// UserID extracts the authenticated user identifier placed by RequireAuth.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}
