package api

import (
	"net/http"
	"ptcoach/pt-server/internal/service"

	"github.com/gin-gonic/gin"
)

type TemplateHandler struct {
	templateService service.TemplateService
}

func NewTemplateHandler(templateService service.TemplateService) *TemplateHandler {
	return &TemplateHandler{templateService: templateService}
}

// CreateTemplate godoc
// @Summary Create a workout template
// @Tags Templates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param template body CreateTemplateRequest true "Template name, description and exercises"
// @Success 201 {object} TemplateResponse
// @Failure 400 {object} gin.H "Invalid input"
// @Router /templates [post]
func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	template, err := h.templateService.Create(c.Request.Context(), userID, service.CreateTemplateInput{
		Name:        req.Name,
		Description: req.Description,
		Exercises:   req.Exercises,
	})
	if err != nil {
		respondError(c, err, "Failed to create template.")
		return
	}
	c.JSON(http.StatusCreated, MapTemplateToResponse(template))
}

func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	page, ok := parsePage(c)
	if !ok {
		return
	}

	templates, err := h.templateService.List(c.Request.Context(), userID, page)
	if err != nil {
		respondError(c, err, "Failed to retrieve templates.")
		return
	}
	c.JSON(http.StatusOK, MapTemplatesToResponse(templates))
}

func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	templateID, ok := parseIDParam(c, "id", "template")
	if !ok {
		return
	}

	template, err := h.templateService.Get(c.Request.Context(), userID, templateID)
	if err != nil {
		respondError(c, err, "Failed to retrieve template.")
		return
	}
	c.JSON(http.StatusOK, MapTemplateToResponse(template))
}

// DeleteTemplate godoc
// @Summary Delete a template
// @Description Workouts created from the template keep their exercises and lose the reference.
// @Tags Templates
// @Success 204
// @Failure 400 {object} gin.H "Template is used by a training plan"
// @Failure 404 {object} gin.H "Template not found"
// @Router /templates/{id} [delete]
func (h *TemplateHandler) DeleteTemplate(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	templateID, ok := parseIDParam(c, "id", "template")
	if !ok {
		return
	}

	if err := h.templateService.Delete(c.Request.Context(), userID, templateID); err != nil {
		respondError(c, err, "Failed to delete template.")
		return
	}
	c.Status(http.StatusNoContent)
}
