package controllers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"studyhub/internal/delivery/http/helpers"
	"studyhub/internal/delivery/http/middleware"
	"studyhub/internal/domain"
)

// EventSuccessResponse is the success response envelope for endpoints returning an event.
type EventSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// EventListSuccessResponse is the success response envelope for GET /studies/{path}/events (200).
type EventListSuccessResponse struct {
	Data  *domain.EventList `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// EnrollmentSuccessResponse is the success response envelope for endpoints returning an enrollment.
type EnrollmentSuccessResponse struct {
	Data  *domain.Enrollment `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// MyEnrollmentsSuccessResponse is the success response envelope for GET /me/enrollments (200).
type MyEnrollmentsSuccessResponse struct {
	Data  []*domain.EnrollmentWithEvent `json:"data"`
	Error *helpers.APIError             `json:"error"`
}

type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateEvent godoc
// @Summary Create an event in a study
// @Description Only study managers can create events.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param path path string true "Study path"
// @Param event body domain.EventForm true "Event form"
// @Success 201 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request or validation_failed"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /studies/{path}/events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var form domain.EventForm
	if !helpers.DecodeAndValidate(w, r, &form) {
		return
	}
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	event, err := c.Service.CreateEvent(r.Context(), accountID, r.PathValue("path"), form)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// ListEvents godoc
// @Summary List a study's events
// @Description Events are split into upcoming and past by end time.
// @Tags events
// @Produce json
// @Param path path string true "Study path"
// @Success 200 {object} controllers.EventListSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /studies/{path}/events [get]
func (c *EventController) ListEvents(w http.ResponseWriter, r *http.Request) {
	list, err := c.Service.ListEvents(r.Context(), r.PathValue("path"))
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, list)
}

// GetEvent godoc
// @Summary Get an event with its enrollments
// @Tags events
// @Produce json
// @Param path path string true "Study path"
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /studies/{path}/events/{eventID} [get]
func (c *EventController) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "eventID")
	if !ok {
		return
	}
	event, err := c.Service.GetEvent(r.Context(), r.PathValue("path"), eventID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// UpdateEvent godoc
// @Summary Update an event
// @Description The event type cannot change and the limit cannot drop below the accepted count. Raising the limit does not promote waiting enrollments.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param path path string true "Study path"
// @Param eventID path string true "Event ID (UUID)"
// @Param event body domain.EventForm true "Event form"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request or validation_failed"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /studies/{path}/events/{eventID} [patch]
func (c *EventController) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "eventID")
	if !ok {
		return
	}
	var form domain.EventForm
	if !helpers.DecodeAndValidate(w, r, &form) {
		return
	}
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	event, err := c.Service.UpdateEvent(r.Context(), accountID, r.PathValue("path"), eventID, form)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// CancelEvent godoc
// @Summary Cancel an event
// @Description Deletes the event and its enrollments.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param path path string true "Study path"
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.StatusSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /studies/{path}/events/{eventID} [delete]
func (c *EventController) CancelEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "eventID")
	if !ok {
		return
	}
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.CancelEvent(r.Context(), accountID, r.PathValue("path"), eventID); err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, StatusResponse{Status: "deleted"})
}

// Enroll godoc
// @Summary Enroll in an event
// @Description Returns 201 with the new enrollment, or 200 with the existing one when the caller is already enrolled.
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Param path path string true "Study path"
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.EnrollmentSuccessResponse "already enrolled"
// @Success 201 {object} controllers.EnrollmentSuccessResponse "enrolled"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /studies/{path}/events/{eventID}/enroll [post]
func (c *EventController) Enroll(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "eventID")
	if !ok {
		return
	}
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	en, created, err := c.Service.Enroll(r.Context(), accountID, r.PathValue("path"), eventID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	helpers.WriteJSONSuccess(w, status, en)
}

// Disenroll godoc
// @Summary Withdraw from an event
// @Description In an FCFS event the first waiting enrollment takes the freed spot.
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Param path path string true "Study path"
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.StatusSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /studies/{path}/events/{eventID}/disenroll [post]
func (c *EventController) Disenroll(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "eventID")
	if !ok {
		return
	}
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.Disenroll(r.Context(), accountID, r.PathValue("path"), eventID); err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, StatusResponse{Status: "deleted"})
}

// MyEnrollment godoc
// @Summary Get the caller's enrollment in an event
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Param path path string true "Study path"
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.EnrollmentSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /studies/{path}/events/{eventID}/enrollment [get]
func (c *EventController) MyEnrollment(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "eventID")
	if !ok {
		return
	}
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	en, err := c.Service.MyEnrollment(r.Context(), accountID, r.PathValue("path"), eventID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, en)
}

// AcceptEnrollment godoc
// @Summary Accept an enrollment
// @Description Manager only. Valid for CONFIRMATIVE events with spots left.
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Param path path string true "Study path"
// @Param eventID path string true "Event ID (UUID)"
// @Param enrollmentID path string true "Enrollment ID (UUID)"
// @Success 200 {object} controllers.EnrollmentSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /studies/{path}/events/{eventID}/enrollments/{enrollmentID}/accept [post]
func (c *EventController) AcceptEnrollment(w http.ResponseWriter, r *http.Request) {
	c.manage(w, r, c.Service.AcceptEnrollment)
}

// RejectEnrollment godoc
// @Summary Reject an accepted enrollment
// @Description Manager only. Valid for CONFIRMATIVE events.
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Param path path string true "Study path"
// @Param eventID path string true "Event ID (UUID)"
// @Param enrollmentID path string true "Enrollment ID (UUID)"
// @Success 200 {object} controllers.EnrollmentSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /studies/{path}/events/{eventID}/enrollments/{enrollmentID}/reject [post]
func (c *EventController) RejectEnrollment(w http.ResponseWriter, r *http.Request) {
	c.manage(w, r, c.Service.RejectEnrollment)
}

// CheckInEnrollment godoc
// @Summary Mark an accepted enrollment as attended
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Param path path string true "Study path"
// @Param eventID path string true "Event ID (UUID)"
// @Param enrollmentID path string true "Enrollment ID (UUID)"
// @Success 200 {object} controllers.EnrollmentSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /studies/{path}/events/{eventID}/enrollments/{enrollmentID}/checkin [post]
func (c *EventController) CheckInEnrollment(w http.ResponseWriter, r *http.Request) {
	c.manage(w, r, c.Service.CheckInEnrollment)
}

// CancelCheckInEnrollment godoc
// @Summary Undo a check-in
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Param path path string true "Study path"
// @Param eventID path string true "Event ID (UUID)"
// @Param enrollmentID path string true "Enrollment ID (UUID)"
// @Success 200 {object} controllers.EnrollmentSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /studies/{path}/events/{eventID}/enrollments/{enrollmentID}/cancel-checkin [post]
func (c *EventController) CancelCheckInEnrollment(w http.ResponseWriter, r *http.Request) {
	c.manage(w, r, c.Service.CancelCheckInEnrollment)
}

// ListMyEnrollments godoc
// @Summary List the caller's enrollments
// @Description Newest first, each with its event.
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.MyEnrollmentsSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /me/enrollments [get]
func (c *EventController) ListMyEnrollments(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	items, err := c.Service.ListMyEnrollments(r.Context(), accountID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	if items == nil {
		items = []*domain.EnrollmentWithEvent{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, items)
}

type enrollmentAction func(ctx context.Context, accountID, studyPath, eventID, enrollmentID string) (*domain.Enrollment, error)

func (c *EventController) manage(w http.ResponseWriter, r *http.Request, fn enrollmentAction) {
	if r.PathValue("enrollmentID") == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing enrollmentID")
		return
	}
	enrollmentID, ok := pathID(w, r, "enrollmentID")
	if !ok {
		return
	}
	eventID, ok := pathID(w, r, "eventID")
	if !ok {
		return
	}
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	en, err := fn(r.Context(), accountID, r.PathValue("path"), eventID, enrollmentID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, en)
}

// pathID returns the UUID path value name. A malformed id names no stored row,
// so it is answered with 404 before it reaches the store.
func pathID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id := r.PathValue(name)
	if uuid.Validate(id) != nil {
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, name+" not found")
		return "", false
	}
	return id, true
}
