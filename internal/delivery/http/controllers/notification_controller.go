package controllers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"studyhub/internal/delivery/http/helpers"
	"studyhub/internal/delivery/http/middleware"
	"studyhub/internal/domain"
)

// maxReadIDs caps how many notifications one read request may mark.
const maxReadIDs = 100

// NotificationListResponse is the data of GET /notifications.
type NotificationListResponse struct {
	Items      []*domain.Notification `json:"items"`
	Pagination helpers.PageMeta       `json:"pagination"`
}

// NotificationListSuccessResponse is the success response envelope for GET /notifications (200).
type NotificationListSuccessResponse struct {
	Data  NotificationListResponse `json:"data"`
	Error *helpers.APIError        `json:"error"`
}

// NotificationCountsSuccessResponse is the success response envelope for GET /notifications/count (200).
type NotificationCountsSuccessResponse struct {
	Data  *domain.NotificationCounts `json:"data"`
	Error *helpers.APIError          `json:"error"`
}

// MarkReadRequest is the request body for POST /notifications/read.
type MarkReadRequest struct {
	IDs []string `json:"ids"`
}

// Validate implements Validator.
func (m MarkReadRequest) Validate() []string {
	var errs []string
	if len(m.IDs) == 0 {
		errs = append(errs, "ids is required")
	}
	if len(m.IDs) > maxReadIDs {
		errs = append(errs, fmt.Sprintf("at most %d ids per request", maxReadIDs))
	}
	for _, id := range m.IDs {
		if uuid.Validate(id) != nil {
			errs = append(errs, fmt.Sprintf("invalid id %q", id))
		}
	}
	return errs
}

// AffectedResponse reports how many notifications a bulk operation touched.
type AffectedResponse struct {
	Affected int `json:"affected"`
}

// AffectedSuccessResponse is the success response envelope for bulk notification operations (200).
type AffectedSuccessResponse struct {
	Data  AffectedResponse  `json:"data"`
	Error *helpers.APIError `json:"error"`
}

type NotificationController struct {
	Logger  *slog.Logger
	Service domain.NotificationService
}

func NewNotificationController(logger *slog.Logger, svc domain.NotificationService) *NotificationController {
	return &NotificationController{
		Logger:  logger,
		Service: svc,
	}
}

// ListNotifications godoc
// @Summary List the caller's notifications
// @Description Newest first. checked=false (default) lists unread notifications, checked=true lists read ones.
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param checked query bool false "Read state filter"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.NotificationListSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /notifications [get]
func (c *NotificationController) ListNotifications(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	q, err := helpers.ParseListQuery(r.URL.Query())
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	result, err := c.Service.List(r.Context(), accountID, q.Checked, q.Page)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, NotificationListResponse{
		Items:      result.Items,
		Pagination: helpers.PageMetaOf(result),
	})
}

// CountNotifications godoc
// @Summary Count the caller's read and unread notifications
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.NotificationCountsSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /notifications/count [get]
func (c *NotificationController) CountNotifications(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	counts, err := c.Service.Counts(r.Context(), accountID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, counts)
}

// MarkAsRead godoc
// @Summary Mark notifications as read
// @Description Ids that do not belong to the caller or are already read are ignored.
// @Tags notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body MarkReadRequest true "Notification ids"
// @Success 200 {object} controllers.AffectedSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /notifications/read [post]
func (c *NotificationController) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	var req MarkReadRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	n, err := c.Service.MarkAsRead(r.Context(), accountID, req.IDs)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, AffectedResponse{Affected: n})
}

// DeleteReadNotifications godoc
// @Summary Delete all read notifications
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param checked query bool true "Must be true"
// @Success 200 {object} controllers.AffectedSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /notifications [delete]
func (c *NotificationController) DeleteReadNotifications(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if checked, err := helpers.ParseChecked(r.URL.Query(), false); err != nil || !checked {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "only read notifications can be deleted; pass checked=true")
		return
	}
	n, err := c.Service.DeleteRead(r.Context(), accountID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, AffectedResponse{Affected: n})
}
