package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"studyhub/internal/delivery/http/controllers"
	"studyhub/internal/delivery/http/middleware"
	"studyhub/internal/domain"
)

// Controllers groups the handlers mounted by NewRouter.
type Controllers struct {
	Studies       *controllers.StudyController
	Events        *controllers.EventController
	Notifications *controllers.NotificationController
	Accounts      *controllers.AccountController
}

// NewRouter initializes the HTTP router with all application routes.
// Study and event reads are public; everything else requires a bearer token.
func NewRouter(c Controllers, verifier domain.TokenVerifier, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier, logger)

	// Studies
	mux.HandleFunc("POST /studies", auth(c.Studies.CreateStudy))
	mux.HandleFunc("GET /studies/{path}", c.Studies.GetStudy)
	mux.HandleFunc("DELETE /studies/{path}", auth(c.Studies.RemoveStudy))
	mux.HandleFunc("POST /studies/{path}/publish", auth(c.Studies.Publish))
	mux.HandleFunc("POST /studies/{path}/close", auth(c.Studies.Close))
	mux.HandleFunc("POST /studies/{path}/recruit/start", auth(c.Studies.StartRecruit))
	mux.HandleFunc("POST /studies/{path}/recruit/stop", auth(c.Studies.StopRecruit))
	mux.HandleFunc("POST /studies/{path}/join", auth(c.Studies.Join))
	mux.HandleFunc("POST /studies/{path}/leave", auth(c.Studies.Leave))

	// Events
	mux.HandleFunc("POST /studies/{path}/events", auth(c.Events.CreateEvent))
	mux.HandleFunc("GET /studies/{path}/events", c.Events.ListEvents)
	mux.HandleFunc("GET /studies/{path}/events/{eventID}", c.Events.GetEvent)
	mux.HandleFunc("PATCH /studies/{path}/events/{eventID}", auth(c.Events.UpdateEvent))
	mux.HandleFunc("DELETE /studies/{path}/events/{eventID}", auth(c.Events.CancelEvent))

	// Enrollments
	mux.HandleFunc("POST /studies/{path}/events/{eventID}/enroll", auth(c.Events.Enroll))
	mux.HandleFunc("POST /studies/{path}/events/{eventID}/disenroll", auth(c.Events.Disenroll))
	mux.HandleFunc("GET /studies/{path}/events/{eventID}/enrollment", auth(c.Events.MyEnrollment))
	mux.HandleFunc("POST /studies/{path}/events/{eventID}/enrollments/{enrollmentID}/accept", auth(c.Events.AcceptEnrollment))
	mux.HandleFunc("POST /studies/{path}/events/{eventID}/enrollments/{enrollmentID}/reject", auth(c.Events.RejectEnrollment))
	mux.HandleFunc("POST /studies/{path}/events/{eventID}/enrollments/{enrollmentID}/checkin", auth(c.Events.CheckInEnrollment))
	mux.HandleFunc("POST /studies/{path}/events/{eventID}/enrollments/{enrollmentID}/cancel-checkin", auth(c.Events.CancelCheckInEnrollment))

	// Me
	mux.HandleFunc("GET /me", auth(c.Accounts.GetMe))
	mux.HandleFunc("PUT /me/preferences", auth(c.Accounts.UpdatePreferences))
	mux.HandleFunc("GET /me/enrollments", auth(c.Events.ListMyEnrollments))
	mux.HandleFunc("POST /me/tags", auth(c.Accounts.AddTag))
	mux.HandleFunc("DELETE /me/tags/{tagID}", auth(c.Accounts.RemoveTag))
	mux.HandleFunc("POST /me/zones", auth(c.Accounts.AddZone))
	mux.HandleFunc("DELETE /me/zones/{zoneID}", auth(c.Accounts.RemoveZone))

	// Vocabulary
	mux.HandleFunc("GET /tags", c.Accounts.ListTags)
	mux.HandleFunc("GET /zones", c.Accounts.ListZones)

	// Notifications
	mux.HandleFunc("GET /notifications", auth(c.Notifications.ListNotifications))
	mux.HandleFunc("DELETE /notifications", auth(c.Notifications.DeleteReadNotifications))
	mux.HandleFunc("GET /notifications/count", auth(c.Notifications.CountNotifications))
	mux.HandleFunc("POST /notifications/read", auth(c.Notifications.MarkAsRead))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
