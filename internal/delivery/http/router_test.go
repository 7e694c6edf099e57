package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"studyhub/internal/delivery/http/controllers"
	"studyhub/internal/domain"
)

const routerAccountID = "6e5d4c3b-2a19-4807-b6a5-9483726150fe"

type stubVerifier struct{}

func (stubVerifier) Verify(token string) (string, error) {
	if token == "good" {
		return routerAccountID, nil
	}
	return "", errors.New("bad token")
}

// stubStudies serves GetStudy and Join; other methods are unused by the test and panic.
type stubStudies struct {
	domain.StudyService
	joinedBy string
}

func (s *stubStudies) GetStudy(_ context.Context, path string) (*domain.Study, error) {
	return &domain.Study{Path: path}, nil
}

func (s *stubStudies) Join(_ context.Context, accountID, path string) (*domain.Study, error) {
	s.joinedBy = accountID
	return &domain.Study{Path: path, MemberIDs: []string{accountID}}, nil
}

func TestNewRouter(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	studies := &stubStudies{}
	mux := NewRouter(Controllers{
		Studies:       controllers.NewStudyController(logger, studies),
		Events:        controllers.NewEventController(logger, nil),
		Notifications: controllers.NewNotificationController(logger, nil),
		Accounts:      controllers.NewAccountController(logger, nil),
	}, stubVerifier{}, logger)

	tests := []struct {
		name       string
		method     string
		target     string
		token      string
		wantStatus int
	}{
		{"public study read", http.MethodGet, "/studies/go", "", http.StatusOK},
		{"join requires auth", http.MethodPost, "/studies/go/join", "", http.StatusUnauthorized},
		{"join with bad token", http.MethodPost, "/studies/go/join", "bad", http.StatusUnauthorized},
		{"join with token", http.MethodPost, "/studies/go/join", "good", http.StatusOK},
		{"notifications require auth", http.MethodGet, "/notifications", "", http.StatusUnauthorized},
		{"me requires auth", http.MethodGet, "/me", "", http.StatusUnauthorized},
		{"wrong method", http.MethodPut, "/studies/go/join", "good", http.StatusMethodNotAllowed},
		{"unknown route", http.MethodGet, "/nope", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "http://test"+tt.target, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rr := httptest.NewRecorder()
			mux.ServeHTTP(rr, req)
			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}
	assert.Equal(t, routerAccountID, studies.joinedBy)
}
