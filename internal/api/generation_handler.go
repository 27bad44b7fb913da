package api

import (
	"net/http"
	"ptcoach/pt-server/internal/llm"
	"ptcoach/pt-server/internal/service"

	"github.com/gin-gonic/gin"
)

// GenerationHandler serves model output that is returned to the client and never stored.
type GenerationHandler struct {
	generationService service.GenerationService
}

func NewGenerationHandler(generationService service.GenerationService) *GenerationHandler {
	return &GenerationHandler{generationService: generationService}
}

func (h *GenerationHandler) GenerateWorkout(c *gin.Context) {
	var req GenerateWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	workout, err := h.generationService.GenerateWorkout(c.Request.Context(), service.GenerateWorkoutInput{
		Prompt:          req.Prompt,
		Difficulty:      req.Difficulty,
		DurationMinutes: req.DurationMinutes,
	})
	if err != nil {
		respondError(c, err, "Failed to generate workout.")
		return
	}
	c.JSON(http.StatusOK, workout)
}

func (h *GenerationHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	content, err := h.generationService.Chat(c.Request.Context(), req.Messages, req.MaxTokens)
	if err != nil {
		respondError(c, err, "Chat request failed.")
		return
	}
	c.JSON(http.StatusOK, ChatResponse{Role: llm.RoleAssistant, Content: content})
}
