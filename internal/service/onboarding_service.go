package service

import (
	"context"
	"encoding/json"
	"errors"
	"ptcoach/pt-server/internal/domain"
	"ptcoach/pt-server/internal/llm"
	"ptcoach/pt-server/internal/repository"
	"strings"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const onboardingMaxTokens = 2048

// OnboardingFallbackMessage is sent when a turn could not be generated.
const OnboardingFallbackMessage = "I'm having trouble processing that. Could you tell me a bit about your fitness goals?"

// OnboardingTurn is the client's view of the conversation plus its newest message.
// An empty history and message start a new conversation.
type OnboardingTurn struct {
	History       []llm.Message
	LatestMessage string
}

func (t OnboardingTurn) isStart() bool {
	return len(t.History) == 0 && strings.TrimSpace(t.LatestMessage) == ""
}

type OnboardingReply struct {
	Message    string                 `json:"message"`
	IsComplete bool                   `json:"is_complete"`
	State      domain.OnboardingState `json:"state"`
}

func (r *OnboardingReply) Validate() error {
	if strings.TrimSpace(r.Message) == "" {
		return errors.New("message is required")
	}
	return nil
}

type OnboardingService interface {
	// Message advances the conversation by one turn. Generation failures never
	// fail the turn: the client gets a fallback message and the stored state.
	Message(ctx context.Context, ownerID primitive.ObjectID, turn OnboardingTurn) (*OnboardingReply, error)
	// State returns the stored onboarding state, empty when unknown.
	State(ctx context.Context, ownerID primitive.ObjectID) (domain.OnboardingState, error)
}

type onboardingService struct {
	userRepo  repository.UserRepository
	generator llm.Generator
}

func NewOnboardingService(userRepo repository.UserRepository, generator llm.Generator) OnboardingService {
	return &onboardingService{userRepo: userRepo, generator: generator}
}

func (s *onboardingService) Message(ctx context.Context, ownerID primitive.ObjectID, turn OnboardingTurn) (*OnboardingReply, error) {
	prior, err := s.loadState(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	messages := make([]llm.Message, 0, len(turn.History)+1)
	if turn.isStart() {
		messages = append(messages, llm.Message{Role: llm.RoleUser, Content: onboardingStartMessage})
	} else {
		messages = append(messages, turn.History...)
		messages = append(messages, llm.Message{Role: llm.RoleUser, Content: turn.LatestMessage})
	}

	reply, err := llm.GenerateJSON[OnboardingReply](ctx, s.generator, llm.Request{
		Operation: "onboarding",
		System:    onboardingSystemPromptWith(prior),
		Messages:  messages,
		MaxTokens: onboardingMaxTokens,
	}, "Onboarding")
	if err != nil {
		log.Warnf("onboarding turn for user %s fell back: %v", ownerID.Hex(), err)
		fallback := &OnboardingReply{Message: OnboardingFallbackMessage}
		if prior != nil {
			fallback.State = prior.Clone()
		}
		return fallback, nil
	}

	reply.State = domain.MergeOnboardingState(prior, reply.State)
	if err := s.userRepo.SaveOnboardingState(ctx, ownerID, reply.State); err != nil {
		log.Warnf("failed to save onboarding state for user %s: %v", ownerID.Hex(), err)
	}
	return reply, nil
}

func (s *onboardingService) State(ctx context.Context, ownerID primitive.ObjectID) (domain.OnboardingState, error) {
	state, err := s.loadState(ctx, ownerID)
	if err != nil || state == nil {
		return domain.OnboardingState{}, err
	}
	return *state, nil
}

// loadState treats a stored state that no longer decodes as absent.
func (s *onboardingService) loadState(ctx context.Context, ownerID primitive.ObjectID) (*domain.OnboardingState, error) {
	state, err := s.userRepo.GetOnboardingState(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrMalformedRecord) {
			log.Warnf("ignoring malformed onboarding state for user %s: %v", ownerID.Hex(), err)
			return nil, nil
		}
		return nil, err
	}
	return state, nil
}

func onboardingSystemPromptWith(prior *domain.OnboardingState) string {
	if prior == nil || prior.IsEmpty() {
		return onboardingSystemPrompt
	}
	known, err := json.MarshalIndent(prior, "", "  ")
	if err != nil {
		return onboardingSystemPrompt
	}
	return onboardingSystemPrompt + "\n\nINFORMATION ALREADY GATHERED (keep it unless the client corrects it):\n" + string(known)
}
