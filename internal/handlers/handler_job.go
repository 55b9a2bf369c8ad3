package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shiftnurse/escrow_backend/internal/apperrors"
	"github.com/shiftnurse/escrow_backend/internal/core/domain"
	portssvc "github.com/shiftnurse/escrow_backend/internal/core/ports/services"
	coresvc "github.com/shiftnurse/escrow_backend/internal/core/services"
	"github.com/shiftnurse/escrow_backend/internal/dto"
	"github.com/shiftnurse/escrow_backend/internal/middleware"
)

// JobHandler handles job lifecycle requests.
type JobHandler struct {
	jobService portssvc.JobSvcFacade
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(js portssvc.JobSvcFacade) *JobHandler {
	return &JobHandler{jobService: js}
}

// registerJobRoutes sets up the routes for job management.
func registerJobRoutes(rg *gin.RouterGroup, js portssvc.JobSvcFacade) {
	h := NewJobHandler(js)

	jobs := rg.Group("/jobs")
	{
		jobs.POST("", h.CreateJob)
		jobs.GET("", h.ListJobs)
		jobs.GET("/:jobID", h.GetJob)
		jobs.POST("/:jobID/assign", h.AssignNurse)
		jobs.POST("/:jobID/complete", h.CompleteJob)
		jobs.POST("/:jobID/cancel", h.CancelJob)
		jobs.POST("/:jobID/dispute", h.OpenDispute)
		jobs.DELETE("/:jobID/dispute", h.ResolveDispute)
	}
}

// CreateJob godoc
// @Summary Create a job
// @Description Creates a new OPEN job owned by the authenticated organizer.
// @Tags jobs
// @Accept json
// @Produce json
// @Param job body dto.CreateJobRequest true "Job details"
// @Success 201 {object} dto.JobResponse
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /jobs [post]
func (h *JobHandler) CreateJob(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return
	}

	var req dto.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateJob", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	job, err := h.jobService.CreateJob(c.Request.Context(), req, userID)
	if err != nil {
		h.respondJobError(c, "Failed to create job", err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToJobResponse(job))
}

// ListJobs godoc
// @Summary List the authenticated organizer's jobs
// @Tags jobs
// @Produce json
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {array} dto.JobResponse
// @Security BearerAuth
// @Router /jobs [get]
func (h *JobHandler) ListJobs(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return
	}

	var params dto.ListJobsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query for ListJobs", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid query parameters: " + err.Error()})
		return
	}

	jobs, err := h.jobService.ListJobsByOrganizer(c.Request.Context(), userID, params.Limit, params.Offset)
	if err != nil {
		h.respondJobError(c, "Failed to list jobs", err)
		return
	}

	c.JSON(http.StatusOK, dto.ToListJobsResponse(jobs))
}

// GetJob godoc
// @Summary Get a job by ID
// @Tags jobs
// @Produce json
// @Param jobID path string true "Job ID"
// @Success 200 {object} dto.JobResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /jobs/{jobID} [get]
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID := c.Param("jobID")

	job, err := h.jobService.GetJobByID(c.Request.Context(), jobID)
	if err != nil {
		h.respondJobError(c, "Failed to get job", err)
		return
	}

	c.JSON(http.StatusOK, dto.ToJobResponse(job))
}

// AssignNurse godoc
// @Summary Assign a nurse to a job
// @Description Moves an OPEN job to ASSIGNED with the given nurse.
// @Tags jobs
// @Accept json
// @Produce json
// @Param jobID path string true "Job ID"
// @Param assignment body dto.AssignNurseRequest true "Nurse to assign"
// @Success 200 {object} dto.JobResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Security BearerAuth
// @Router /jobs/{jobID}/assign [post]
func (h *JobHandler) AssignNurse(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	jobID := c.Param("jobID")

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return
	}

	var req dto.AssignNurseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for AssignNurse", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	job, err := h.jobService.AssignNurse(c.Request.Context(), jobID, req.NurseID, userID)
	if err != nil {
		h.respondJobError(c, "Failed to assign nurse", err)
		return
	}

	c.JSON(http.StatusOK, dto.ToJobResponse(job))
}

// CompleteJob godoc
// @Summary Mark a job as completed
// @Description Moves an ASSIGNED job to COMPLETED, starting the payout grace period.
// @Tags jobs
// @Produce json
// @Param jobID path string true "Job ID"
// @Success 200 {object} dto.JobResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Security BearerAuth
// @Router /jobs/{jobID}/complete [post]
func (h *JobHandler) CompleteJob(c *gin.Context) {
	h.transition(c, h.jobService.CompleteJob, "Failed to complete job")
}

// CancelJob godoc
// @Summary Cancel a job
// @Description Cancels a job that has not been completed.
// @Tags jobs
// @Produce json
// @Param jobID path string true "Job ID"
// @Success 200 {object} dto.JobResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Security BearerAuth
// @Router /jobs/{jobID}/cancel [post]
func (h *JobHandler) CancelJob(c *gin.Context) {
	h.transition(c, h.jobService.CancelJob, "Failed to cancel job")
}

// OpenDispute godoc
// @Summary Open a dispute on a job
// @Description Flags the job as disputed, excluding it from scheduled payouts until resolved.
// @Tags jobs
// @Produce json
// @Param jobID path string true "Job ID"
// @Success 200 {object} dto.JobResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Security BearerAuth
// @Router /jobs/{jobID}/dispute [post]
func (h *JobHandler) OpenDispute(c *gin.Context) {
	h.transition(c, h.jobService.OpenDispute, "Failed to open dispute")
}

// ResolveDispute godoc
// @Summary Resolve a dispute on a job
// @Tags jobs
// @Produce json
// @Param jobID path string true "Job ID"
// @Success 200 {object} dto.JobResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Security BearerAuth
// @Router /jobs/{jobID}/dispute [delete]
func (h *JobHandler) ResolveDispute(c *gin.Context) {
	h.transition(c, h.jobService.ResolveDispute, "Failed to resolve dispute")
}

// transition runs a body-less job state change shared by the complete, cancel
// and dispute endpoints.
func (h *JobHandler) transition(c *gin.Context, op func(ctx context.Context, jobID, actorID string) (*domain.Job, error), msg string) {
	jobID := c.Param("jobID")

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return
	}

	job, err := op(c.Request.Context(), jobID, userID)
	if err != nil {
		h.respondJobError(c, msg, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToJobResponse(job))
}

func (h *JobHandler) respondJobError(c *gin.Context, msg string, err error) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Job not found"})
	case errors.Is(err, apperrors.ErrForbidden), errors.Is(err, coresvc.ErrNotJobOrganizer):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Not allowed"})
	case errors.Is(err, apperrors.ErrConflict),
		errors.Is(err, coresvc.ErrJobNotOpen),
		errors.Is(err, coresvc.ErrJobNotInProgress),
		errors.Is(err, coresvc.ErrJobFinished),
		errors.Is(err, coresvc.ErrNoOpenDispute):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, apperrors.ErrValidation), errors.Is(err, coresvc.ErrJobNotAssignable):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		logger.Error(msg, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: msg})
	}
}
