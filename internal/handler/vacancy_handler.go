package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/hh-autoapply/internal/dto"
	"github.com/prperemyshlev/hh-autoapply/internal/service"
)

const notJobSeekerMessage = "User is not registered as a job seeker"

// VacancyHandler proxies provider vacancy, resume and application calls for the current user
type VacancyHandler struct {
	vacancies service.VacancyService
	bulk      service.BulkApplier
}

func NewVacancyHandler(vacancies service.VacancyService, bulk service.BulkApplier) *VacancyHandler {
	return &VacancyHandler{
		vacancies: vacancies,
		bulk:      bulk,
	}
}

// Search runs a provider search with local keyword exclusion
// @Summary Search vacancies
// @Tags vacancies
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.SearchVacanciesRequest true "Search filter"
// @Success 200 {object} dto.SearchVacanciesResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /vacancies/search [post]
func (h *VacancyHandler) Search(c *gin.Context) {
	var req dto.SearchVacanciesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeValidationError(c, err)
		return
	}

	result, err := h.vacancies.SearchVacancies(c.Request.Context(), currentUserID(c), req.Filter)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SearchVacanciesResponse{
		Items:    result.Items,
		Found:    result.Found,
		Excluded: result.Excluded,
		Page:     result.Page,
		Pages:    result.Pages,
	})
}

// Get returns the full vacancy detail
// @Summary Get vacancy
// @Tags vacancies
// @Security BearerAuth
// @Produce json
// @Param id path string true "Vacancy ID"
// @Success 200 {object} domain.Vacancy
// @Router /vacancies/{id} [get]
func (h *VacancyHandler) Get(c *gin.Context) {
	vacancy, err := h.vacancies.GetVacancy(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, vacancy)
}

// Apply submits one application
// @Summary Apply to vacancy
// @Tags vacancies
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.ApplyRequest true "Application"
// @Success 200 {object} dto.ApplyResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /vacancies/apply [post]
func (h *VacancyHandler) Apply(c *gin.Context) {
	var req dto.ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeValidationError(c, err)
		return
	}

	coverLetter := req.CoverLetter
	if coverLetter == "" {
		coverLetter = req.Message
	}

	outcome, err := h.vacancies.Apply(c.Request.Context(), currentUserID(c), service.ApplyInput{
		VacancyID:   req.VacancyID,
		ResumeID:    req.ResumeID,
		CoverLetter: coverLetter,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ApplyResponse{
		Success:     true,
		Application: outcome.Application,
		Location:    outcome.Location,
		HHResponse:  outcome.ProviderResponse,
	})
}

// ApplyAll applies to every vacancy the filter finds, one at a time
// @Summary Apply to all search results
// @Tags vacancies
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.ApplyAllRequest true "Filter and resume"
// @Success 200 {object} dto.ApplyAllResponse
// @Router /vacancies/apply-all [post]
func (h *VacancyHandler) ApplyAll(c *gin.Context) {
	var req dto.ApplyAllRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeValidationError(c, err)
		return
	}

	result, err := h.bulk.ApplyAll(c.Request.Context(), currentUserID(c), service.BulkApplyInput{
		Filter:      req.Filter,
		ResumeID:    req.ResumeID,
		CoverLetter: req.CoverLetter,
	})
	if err != nil && result == nil {
		writeError(c, err)
		return
	}

	resp := newApplyAllResponse(result)
	if err != nil {
		// the run stopped on a dead token: report the partial tally with the reauth signal
		status, body := errorResponse(err)
		body.Details = resp
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func newApplyAllResponse(result *service.BulkResult) dto.ApplyAllResponse {
	failures := make([]dto.ApplyFailure, 0, len(result.Failures))
	for _, f := range result.Failures {
		failures = append(failures, dto.ApplyFailure{
			VacancyID: f.VacancyID,
			Name:      f.Name,
			Error:     f.Err.Error(),
		})
	}

	return dto.ApplyAllResponse{
		Total:    result.Total,
		Applied:  result.Applied,
		Skipped:  result.Skipped,
		Failed:   result.Failed,
		Failures: failures,
		Stopped:  result.Stopped,
	}
}

// Applications returns the local application history with stats
// @Summary Application history
// @Tags applications
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.ApplicationsResponse
// @Router /applications [get]
func (h *VacancyHandler) Applications(c *gin.Context) {
	history, err := h.vacancies.History(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ApplicationsResponse{
		Applications: history.Applications,
		Stats:        history.Stats,
	})
}

// Negotiations returns the provider side application list
// @Summary Provider negotiations
// @Tags applications
// @Security BearerAuth
// @Produce json
// @Success 200 {object} domain.NegotiationList
// @Router /negotiations [get]
func (h *VacancyHandler) Negotiations(c *gin.Context) {
	list, err := h.vacancies.ListNegotiations(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// Resumes lists the user's resumes. A user without a job seeker profile gets an empty list.
// @Summary List resumes
// @Tags resumes
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.ResumesResponse
// @Router /resumes [get]
func (h *VacancyHandler) Resumes(c *gin.Context) {
	list, err := h.vacancies.ListResumes(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	resp := dto.ResumesResponse{Items: list.Items, Found: list.Found}
	if list.NotJobSeeker {
		resp.Message = notJobSeekerMessage
	}
	c.JSON(http.StatusOK, resp)
}
