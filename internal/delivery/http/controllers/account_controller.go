package controllers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"studyhub/internal/delivery/http/helpers"
	"studyhub/internal/delivery/http/middleware"
	"studyhub/internal/domain"
)

// AccountSuccessResponse is the success response envelope for endpoints returning the caller's account.
type AccountSuccessResponse struct {
	Data  *domain.Account   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

type AccountController struct {
	Logger  *slog.Logger
	Service domain.AccountService
}

func NewAccountController(logger *slog.Logger, svc domain.AccountService) *AccountController {
	return &AccountController{
		Logger:  logger,
		Service: svc,
	}
}

// GetMe godoc
// @Summary Get the caller's profile
// @Tags accounts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.AccountSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /me [get]
func (c *AccountController) GetMe(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	acc, err := c.Service.GetProfile(r.Context(), accountID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, acc)
}

// UpdatePreferences godoc
// @Summary Replace the caller's notification preferences
// @Description Every flag is written; omitted flags become false.
// @Tags accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param preferences body domain.NotificationPreferences true "Notification preferences"
// @Success 200 {object} controllers.AccountSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /me/preferences [put]
func (c *AccountController) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var prefs domain.NotificationPreferences
	if !helpers.DecodeAndValidate(w, r, &prefs) {
		return
	}
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	acc, err := c.Service.UpdatePreferences(r.Context(), accountID, prefs)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, acc)
}

// TagsSuccessResponse is the success response envelope for GET /tags (200).
type TagsSuccessResponse struct {
	Data  []domain.Tag      `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ZonesSuccessResponse is the success response envelope for GET /zones (200).
type ZonesSuccessResponse struct {
	Data  []domain.Zone     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// TagSuccessResponse is the success response envelope for POST /me/tags (200).
type TagSuccessResponse struct {
	Data  *domain.Tag       `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// AddTagRequest is the request body for POST /me/tags.
type AddTagRequest struct {
	Title string `json:"title"`
}

// Validate implements Validator.
func (a AddTagRequest) Validate() []string {
	if strings.TrimSpace(a.Title) == "" {
		return []string{"title is required"}
	}
	return nil
}

// AddZoneRequest is the request body for POST /me/zones.
type AddZoneRequest struct {
	ZoneID string `json:"zone_id"`
}

// Validate implements Validator.
func (a AddZoneRequest) Validate() []string {
	if uuid.Validate(a.ZoneID) != nil {
		return []string{"zone_id must be a UUID"}
	}
	return nil
}

// ListTags godoc
// @Summary List known tags
// @Tags accounts
// @Produce json
// @Success 200 {object} controllers.TagsSuccessResponse
// @Router /tags [get]
func (c *AccountController) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := c.Service.ListTags(r.Context())
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, tags)
}

// ListZones godoc
// @Summary List known zones
// @Tags accounts
// @Produce json
// @Success 200 {object} controllers.ZonesSuccessResponse
// @Router /zones [get]
func (c *AccountController) ListZones(w http.ResponseWriter, r *http.Request) {
	zones, err := c.Service.ListZones(r.Context())
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, zones)
}

// AddTag godoc
// @Summary Add an interest tag
// @Description Creates the tag on first use. New studies with this tag notify the caller.
// @Tags accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body AddTagRequest true "Tag title"
// @Success 200 {object} controllers.TagSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request or validation_failed"
// @Router /me/tags [post]
func (c *AccountController) AddTag(w http.ResponseWriter, r *http.Request) {
	var req AddTagRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	tag, err := c.Service.AddTag(r.Context(), accountID, req.Title)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, tag)
}

// RemoveTag godoc
// @Summary Remove an interest tag
// @Tags accounts
// @Produce json
// @Security BearerAuth
// @Param tagID path string true "Tag ID (UUID)"
// @Success 200 {object} controllers.StatusSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /me/tags/{tagID} [delete]
func (c *AccountController) RemoveTag(w http.ResponseWriter, r *http.Request) {
	c.unlink(w, r, r.PathValue("tagID"), c.Service.RemoveTag)
}

// AddZone godoc
// @Summary Add an interest zone
// @Tags accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body AddZoneRequest true "Zone id"
// @Success 200 {object} controllers.StatusSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /me/zones [post]
func (c *AccountController) AddZone(w http.ResponseWriter, r *http.Request) {
	var req AddZoneRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.AddZone(r.Context(), accountID, req.ZoneID); err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, StatusResponse{Status: "added"})
}

// RemoveZone godoc
// @Summary Remove an interest zone
// @Tags accounts
// @Produce json
// @Security BearerAuth
// @Param zoneID path string true "Zone ID (UUID)"
// @Success 200 {object} controllers.StatusSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /me/zones/{zoneID} [delete]
func (c *AccountController) RemoveZone(w http.ResponseWriter, r *http.Request) {
	c.unlink(w, r, r.PathValue("zoneID"), c.Service.RemoveZone)
}

func (c *AccountController) unlink(w http.ResponseWriter, r *http.Request, id string, fn func(ctx context.Context, accountID, id string) error) {
	if uuid.Validate(id) != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "id must be a UUID")
		return
	}
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := fn(r.Context(), accountID, id); err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, StatusResponse{Status: "deleted"})
}
