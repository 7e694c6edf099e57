package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	h "studyhub/internal/delivery/http/helpers"
	"studyhub/internal/domain"
)

type contextKey string

const accountIDKey contextKey = "accountID"

// authChallenge is sent with every 401 so clients know which scheme to retry with.
const authChallenge = `Bearer realm="studyhub"`

var (
	errNoCredentials = errors.New("missing authorization header")
	errNotBearer     = errors.New("authorization scheme must be Bearer")
	errEmptyToken    = errors.New("missing token")
)

// SetAccountID returns a context carrying the authenticated account ID.
func SetAccountID(ctx context.Context, accountID string) context.Context {
	return context.WithValue(ctx, accountIDKey, accountID)
}

// AccountIDFromContext returns the authenticated account ID from the context, if present.
func AccountIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(accountIDKey).(string)
	return id, ok && id != ""
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
// The scheme name is case-insensitive.
func bearerToken(r *http.Request) (string, error) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", errNoCredentials
	}
	scheme, token, found := strings.Cut(auth, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", errNotBearer
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errEmptyToken
	}
	return token, nil
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", authChallenge)
	h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, message)
}

// RequireAuth verifies the bearer token and stores the account ID in the request
// context. Account IDs are UUIDs; a token whose subject is not one is refused
// along with missing, malformed and expired tokens.
func RequireAuth(verifier domain.TokenVerifier, logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				unauthorized(w, err.Error())
				return
			}
			accountID, err := verifier.Verify(token)
			if err == nil && uuid.Validate(accountID) != nil {
				err = errors.New("subject is not an account id")
			}
			if err != nil {
				logger.DebugContext(r.Context(), "token rejected", "path", r.URL.Path, "err", err)
				unauthorized(w, "invalid or expired token")
				return
			}
			next(w, r.WithContext(SetAccountID(r.Context(), accountID)))
		}
	}
}
