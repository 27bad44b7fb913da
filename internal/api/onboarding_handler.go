package api

import (
	"net/http"
	"ptcoach/pt-server/internal/service"

	"github.com/gin-gonic/gin"
)

type OnboardingHandler struct {
	onboardingService service.OnboardingService
}

func NewOnboardingHandler(onboardingService service.OnboardingService) *OnboardingHandler {
	return &OnboardingHandler{onboardingService: onboardingService}
}

// Message godoc
// @Summary Advance the onboarding conversation
// @Description An empty history with an empty message starts the conversation.
// @Tags Onboarding
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param turn body OnboardingMessageRequest true "Conversation so far and the latest user message"
// @Success 200 {object} service.OnboardingReply
// @Router /onboarding/message [post]
func (h *OnboardingHandler) Message(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req OnboardingMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	reply, err := h.onboardingService.Message(c.Request.Context(), userID, service.OnboardingTurn{
		History:       req.ConversationHistory,
		LatestMessage: req.LatestMessage,
	})
	if err != nil {
		respondError(c, err, "Failed to process onboarding message.")
		return
	}
	c.JSON(http.StatusOK, reply)
}

func (h *OnboardingHandler) GetState(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	state, err := h.onboardingService.State(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to retrieve onboarding state.")
		return
	}
	c.JSON(http.StatusOK, state)
}
