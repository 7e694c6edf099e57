package controllers

import (
	"context"
	"log/slog"
	"net/http"

	"studyhub/internal/delivery/http/helpers"
	"studyhub/internal/delivery/http/middleware"
	"studyhub/internal/domain"
)

// StudySuccessResponse is the success response envelope for endpoints returning a study.
type StudySuccessResponse struct {
	Data  *domain.Study     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// StatusResponse is the body of endpoints that only report an outcome.
type StatusResponse struct {
	Status string `json:"status"`
}

// StatusSuccessResponse is the success response envelope for StatusResponse bodies (200).
type StatusSuccessResponse struct {
	Data  StatusResponse   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

type StudyController struct {
	Logger  *slog.Logger
	Service domain.StudyService
}

func NewStudyController(logger *slog.Logger, svc domain.StudyService) *StudyController {
	return &StudyController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateStudy godoc
// @Summary Create a study
// @Description Creates an unpublished study. The caller becomes its first manager.
// @Tags studies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param study body domain.StudyForm true "Study form"
// @Success 201 {object} controllers.StudySuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request or validation_failed"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /studies [post]
func (c *StudyController) CreateStudy(w http.ResponseWriter, r *http.Request) {
	var form domain.StudyForm
	if !helpers.DecodeAndValidate(w, r, &form) {
		return
	}
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	study, err := c.Service.CreateStudy(r.Context(), accountID, form)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, study)
}

// GetStudy godoc
// @Summary Get a study
// @Description Returns the study with its tags, zones, managers and members.
// @Tags studies
// @Produce json
// @Param path path string true "Study path"
// @Success 200 {object} controllers.StudySuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /studies/{path} [get]
func (c *StudyController) GetStudy(w http.ResponseWriter, r *http.Request) {
	path := r.PathValue("path")
	if path == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing path")
		return
	}
	study, err := c.Service.GetStudy(r.Context(), path)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, study)
}

// Publish godoc
// @Summary Publish a study
// @Tags studies
// @Produce json
// @Security BearerAuth
// @Param path path string true "Study path"
// @Success 200 {object} controllers.StudySuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /studies/{path}/publish [post]
func (c *StudyController) Publish(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, c.Service.Publish)
}

// Close godoc
// @Summary Close a study
// @Description Closing also stops recruiting.
// @Tags studies
// @Produce json
// @Security BearerAuth
// @Param path path string true "Study path"
// @Success 200 {object} controllers.StudySuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /studies/{path}/close [post]
func (c *StudyController) Close(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, c.Service.Close)
}

// StartRecruit godoc
// @Summary Start recruiting members
// @Description Recruiting can be toggled at most once per hour.
// @Tags studies
// @Produce json
// @Security BearerAuth
// @Param path path string true "Study path"
// @Success 200 {object} controllers.StudySuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /studies/{path}/recruit/start [post]
func (c *StudyController) StartRecruit(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, c.Service.StartRecruit)
}

// StopRecruit godoc
// @Summary Stop recruiting members
// @Tags studies
// @Produce json
// @Security BearerAuth
// @Param path path string true "Study path"
// @Success 200 {object} controllers.StudySuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /studies/{path}/recruit/stop [post]
func (c *StudyController) StopRecruit(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, c.Service.StopRecruit)
}

// Join godoc
// @Summary Join a recruiting study
// @Tags studies
// @Produce json
// @Security BearerAuth
// @Param path path string true "Study path"
// @Success 200 {object} controllers.StudySuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /studies/{path}/join [post]
func (c *StudyController) Join(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, c.Service.Join)
}

// Leave godoc
// @Summary Leave a study
// @Tags studies
// @Produce json
// @Security BearerAuth
// @Param path path string true "Study path"
// @Success 200 {object} controllers.StudySuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /studies/{path}/leave [post]
func (c *StudyController) Leave(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, c.Service.Leave)
}

// RemoveStudy godoc
// @Summary Remove a closed study
// @Tags studies
// @Produce json
// @Security BearerAuth
// @Param path path string true "Study path"
// @Success 200 {object} controllers.StatusSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /studies/{path} [delete]
func (c *StudyController) RemoveStudy(w http.ResponseWriter, r *http.Request) {
	path := r.PathValue("path")
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.Remove(r.Context(), accountID, path); err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, StatusResponse{Status: "deleted"})
}

type studyTransition func(ctx context.Context, accountID, path string) (*domain.Study, error)

func (c *StudyController) transition(w http.ResponseWriter, r *http.Request, fn studyTransition) {
	path := r.PathValue("path")
	if path == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing path")
		return
	}
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	study, err := fn(r.Context(), accountID, path)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, study)
}
