package conversation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	generativeAI "github.com/curatrip/curatrip-server/internal/api/generative_ai"
	"github.com/curatrip/curatrip-server/internal/api/itinerary"
	"github.com/curatrip/curatrip-server/internal/api/mutation"
	"github.com/curatrip/curatrip-server/internal/types"
)

type MockItineraryRepo struct {
	mock.Mock
}

func (m *MockItineraryRepo) GetSession(ctx context.Context, estimateID uuid.UUID) (*types.EstimateSession, error) {
	args := m.Called(ctx, estimateID)
	var session *types.EstimateSession
	if args.Get(0) != nil {
		session = args.Get(0).(*types.EstimateSession)
	}
	return session, args.Error(1)
}

func (m *MockItineraryRepo) ListItems(ctx context.Context, itineraryID uuid.UUID) ([]types.ItineraryItem, error) {
	args := m.Called(ctx, itineraryID)
	var items []types.ItineraryItem
	if args.Get(0) != nil {
		items = args.Get(0).([]types.ItineraryItem)
	}
	return items, args.Error(1)
}

func (m *MockItineraryRepo) ListItemsByEstimate(ctx context.Context, estimateID uuid.UUID) ([]types.ItineraryItem, error) {
	args := m.Called(ctx, estimateID)
	var items []types.ItineraryItem
	if args.Get(0) != nil {
		items = args.Get(0).([]types.ItineraryItem)
	}
	return items, args.Error(1)
}

func (m *MockItineraryRepo) ReplaceItems(ctx context.Context, itineraryID uuid.UUID, items []types.ItineraryItem) error {
	args := m.Called(ctx, itineraryID, items)
	return args.Error(0)
}

func (m *MockItineraryRepo) UpdateEstimateStatus(ctx context.Context, estimateID uuid.UUID, status types.EstimateStatus) error {
	args := m.Called(ctx, estimateID, status)
	return args.Error(0)
}

var _ itinerary.Repository = (*MockItineraryRepo)(nil)

type MockMutationService struct {
	mock.Mock
}

func (m *MockMutationService) ModifyItinerary(ctx context.Context, session types.EstimateSession, message string, preParsed *types.ModificationIntent) (types.ModificationResult, error) {
	args := m.Called(ctx, session, message, preParsed)
	return args.Get(0).(types.ModificationResult), args.Error(1)
}

func (m *MockMutationService) RegenerateDay(ctx context.Context, session types.EstimateSession, dayNumber int) (types.ModificationResult, error) {
	args := m.Called(ctx, session, dayNumber)
	return args.Get(0).(types.ModificationResult), args.Error(1)
}

var _ mutation.Service = (*MockMutationService)(nil)

type MockCompletionClient struct {
	mock.Mock
}

func (m *MockCompletionClient) Complete(ctx context.Context, req generativeAI.CompletionRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

var _ generativeAI.CompletionClient = (*MockCompletionClient)(nil)

func setupConversationServiceTest() (*ServiceImpl, *MockItineraryRepo, *MockMutationService, *MockCompletionClient) {
	repo := new(MockItineraryRepo)
	mutator := new(MockMutationService)
	ai := new(MockCompletionClient)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(repo, mutator, ai, nil, logger)
	return svc, repo, mutator, ai
}

func conversationTestSession() (*types.EstimateSession, []types.ItineraryItem) {
	session := &types.EstimateSession{
		EstimateID:   uuid.New(),
		ItineraryID:  uuid.New(),
		CustomerName: "Hana Kim",
		Region:       "서울",
		StartDate:    time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2025, 4, 12, 0, 0, 0, 0, time.UTC),
		DurationDays: 3,
		Interests:    []string{"food"},
		Status:       types.EstimateStatusDraft,
	}
	items := []types.ItineraryItem{{
		ID:         uuid.New(),
		Type:       types.ItemTypePlace,
		DayNumber:  1,
		OrderIndex: 0,
		ItemName:   "Gyeongbokgung Palace",
	}}
	return session, items
}

func TestChat(t *testing.T) {
	ctx := context.Background()

	t.Run("question stays conversational", func(t *testing.T) {
		svc, repo, mutator, ai := setupConversationServiceTest()
		session, items := conversationTestSession()

		repo.On("GetSession", mock.Anything, session.EstimateID).Return(session, nil).Once()
		repo.On("ListItemsByEstimate", mock.Anything, session.EstimateID).Return(items, nil).Once()
		ai.On("Complete", mock.Anything, mock.MatchedBy(func(req generativeAI.CompletionRequest) bool {
			return req.Caller == "conversation_chat" &&
				strings.Contains(req.Prompt, "Gyeongbokgung Palace") &&
				strings.Contains(req.Prompt, "서울")
		})).Return(`{"reply": "Gyeongbokgung opens at 9am; mornings are quietest.", "classification": "question"}`, nil).Once()

		res, err := svc.Chat(ctx, session.EstimateID, "what time does the palace open?", nil)

		require.NoError(t, err)
		assert.Equal(t, "Gyeongbokgung opens at 9am; mornings are quietest.", res.Response)
		assert.Equal(t, types.ChatIntentQuestion, res.Intent)
		assert.Nil(t, res.UpdatedItems)
		assert.Nil(t, res.ModificationSuccess)
		mutator.AssertNotCalled(t, "ModifyItinerary", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("modification delegates with the embedded hint", func(t *testing.T) {
		svc, repo, mutator, ai := setupConversationServiceTest()
		session, items := conversationTestSession()
		updated := []types.ItineraryItem{items[0]}

		repo.On("GetSession", mock.Anything, session.EstimateID).Return(session, nil).Once()
		repo.On("ListItemsByEstimate", mock.Anything, session.EstimateID).Return(items, nil).Once()
		ai.On("Complete", mock.Anything, mock.Anything).Return(`{
			"reply": "Sure, taking the market off day 2!",
			"classification": "modification",
			"intent": {"action": "remove_item", "day_number": 2, "item_name": "market", "confidence": 0.9, "explanation": "remove the market"}
		}`, nil).Once()
		mutator.On("ModifyItinerary", mock.Anything, *session, "remove the market from day 2",
			mock.MatchedBy(func(hint *types.ModificationIntent) bool {
				return hint != nil &&
					hint.Action == types.ActionRemoveItem &&
					hint.DayNumber != nil && *hint.DayNumber == 2 &&
					hint.ItemName == "market" &&
					hint.Confidence == 0.9
			})).Return(types.ModificationResult{
			Success:      true,
			UpdatedItems: updated,
			BotMessage:   "Done, I've removed Gwangjang Market. Anything else?",
		}, nil).Once()

		res, err := svc.Chat(ctx, session.EstimateID, "remove the market from day 2", nil)

		require.NoError(t, err)
		assert.Equal(t, "Done, I've removed Gwangjang Market. Anything else?", res.Response)
		assert.Equal(t, types.ChatIntentModification, res.Intent)
		assert.Equal(t, updated, res.UpdatedItems)
		require.NotNil(t, res.ModificationSuccess)
		assert.True(t, *res.ModificationSuccess)
		mutator.AssertExpectations(t)
	})

	t.Run("incomplete hint falls back to a fresh resolve", func(t *testing.T) {
		svc, repo, mutator, ai := setupConversationServiceTest()
		session, items := conversationTestSession()

		repo.On("GetSession", mock.Anything, session.EstimateID).Return(session, nil).Once()
		repo.On("ListItemsByEstimate", mock.Anything, session.EstimateID).Return(items, nil).Once()
		// The hint has no confidence, so it must not be passed through.
		ai.On("Complete", mock.Anything, mock.Anything).Return(`{
			"reply": "On it!",
			"classification": "modification",
			"intent": {"action": "add_item", "item_name": "Gwangjang Market"}
		}`, nil).Once()
		mutator.On("ModifyItinerary", mock.Anything, *session, "add gwangjang market", (*types.ModificationIntent)(nil)).
			Return(types.ModificationResult{
				Success:    true,
				BotMessage: "I've added Gwangjang Market to day 3.",
			}, nil).Once()

		res, err := svc.Chat(ctx, session.EstimateID, "add gwangjang market", nil)

		require.NoError(t, err)
		assert.Equal(t, "I've added Gwangjang Market to day 3.", res.Response)
		mutator.AssertExpectations(t)
	})

	t.Run("mutation failure degrades to the plain reply", func(t *testing.T) {
		svc, repo, mutator, ai := setupConversationServiceTest()
		session, items := conversationTestSession()

		repo.On("GetSession", mock.Anything, session.EstimateID).Return(session, nil).Once()
		repo.On("ListItemsByEstimate", mock.Anything, session.EstimateID).Return(items, nil).Once()
		ai.On("Complete", mock.Anything, mock.Anything).Return(`{
			"reply": "Let me rework day 2 for you.",
			"classification": "modification",
			"intent": {"action": "regenerate_day", "day_number": 2, "confidence": 0.95}
		}`, nil).Once()
		mutator.On("ModifyItinerary", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(types.ModificationResult{}, errors.New("catalog unavailable")).Once()

		res, err := svc.Chat(ctx, session.EstimateID, "redo day 2", nil)

		require.NoError(t, err)
		assert.Equal(t, "Let me rework day 2 for you.", res.Response)
		assert.Equal(t, types.ChatIntentModification, res.Intent)
		assert.Nil(t, res.UpdatedItems)
		assert.Nil(t, res.ModificationSuccess)
	})

	t.Run("prose reply is returned as-is and classified other", func(t *testing.T) {
		svc, repo, mutator, ai := setupConversationServiceTest()
		session, items := conversationTestSession()

		repo.On("GetSession", mock.Anything, session.EstimateID).Return(session, nil).Once()
		repo.On("ListItemsByEstimate", mock.Anything, session.EstimateID).Return(items, nil).Once()
		ai.On("Complete", mock.Anything, mock.Anything).
			Return("I'm glad you're excited about the trip!\n", nil).Once()

		res, err := svc.Chat(ctx, session.EstimateID, "this is great", nil)

		require.NoError(t, err)
		assert.Equal(t, "I'm glad you're excited about the trip!", res.Response)
		assert.Equal(t, types.ChatIntentOther, res.Intent)
		mutator.AssertNotCalled(t, "ModifyItinerary", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("history is forwarded to the model", func(t *testing.T) {
		svc, repo, _, ai := setupConversationServiceTest()
		session, items := conversationTestSession()
		history := []generativeAI.ChatTurn{
			{Role: "user", Text: "what should I eat in Seoul?"},
			{Role: "model", Text: "Street food at Gwangjang Market is a must."},
		}

		repo.On("GetSession", mock.Anything, session.EstimateID).Return(session, nil).Once()
		repo.On("ListItemsByEstimate", mock.Anything, session.EstimateID).Return(items, nil).Once()
		ai.On("Complete", mock.Anything, mock.MatchedBy(func(req generativeAI.CompletionRequest) bool {
			return assert.ObjectsAreEqual(history, req.History)
		})).Return(`{"reply": "It gets busy around noon.", "classification": "question"}`, nil).Once()

		_, err := svc.Chat(ctx, session.EstimateID, "is it busy?", history)

		require.NoError(t, err)
		ai.AssertExpectations(t)
	})

	t.Run("missing session propagates the sentinel", func(t *testing.T) {
		svc, repo, _, _ := setupConversationServiceTest()
		estimateID := uuid.New()

		repo.On("GetSession", mock.Anything, estimateID).
			Return(nil, types.ErrEstimateNotFound)
		repo.On("ListItemsByEstimate", mock.Anything, estimateID).
			Return([]types.ItineraryItem{}, nil)

		_, err := svc.Chat(ctx, estimateID, "hello", nil)

		require.Error(t, err)
		assert.ErrorIs(t, err, types.ErrEstimateNotFound)
	})

	t.Run("completion failure is a hard error", func(t *testing.T) {
		svc, repo, _, ai := setupConversationServiceTest()
		session, items := conversationTestSession()

		repo.On("GetSession", mock.Anything, session.EstimateID).Return(session, nil).Once()
		repo.On("ListItemsByEstimate", mock.Anything, session.EstimateID).Return(items, nil).Once()
		ai.On("Complete", mock.Anything, mock.Anything).
			Return("", errors.New("model unavailable")).Once()

		_, err := svc.Chat(ctx, session.EstimateID, "hello", nil)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to generate chat reply")
	})
}

func TestParseChatResponse(t *testing.T) {
	t.Run("fenced JSON with a full hint", func(t *testing.T) {
		raw := "```json\n" + `{"reply": "Swapping it now.", "classification": "modification", "intent": {"action": "replace_item", "item_name": "Gwangjang Market", "confidence": 0.8}}` + "\n```"

		reply := parseChatResponse(raw)

		assert.Equal(t, "Swapping it now.", reply.text)
		assert.Equal(t, types.ChatIntentModification, reply.intent)
		require.NotNil(t, reply.hint)
		assert.Equal(t, types.ActionReplaceItem, reply.hint.Action)
		assert.Equal(t, "Gwangjang Market", reply.hint.ItemName)
	})

	t.Run("unknown classification becomes other", func(t *testing.T) {
		reply := parseChatResponse(`{"reply": "Hmm.", "classification": "smalltalk"}`)

		assert.Equal(t, types.ChatIntentOther, reply.intent)
		assert.Nil(t, reply.hint)
	})

	t.Run("hint with an invalid day is dropped", func(t *testing.T) {
		reply := parseChatResponse(`{"reply": "Ok!", "classification": "modification", "intent": {"action": "regenerate_day", "day_number": 0, "confidence": 0.9}}`)

		assert.Equal(t, types.ChatIntentModification, reply.intent)
		assert.Nil(t, reply.hint)
	})

	t.Run("empty reply falls back to the raw text", func(t *testing.T) {
		raw := `{"reply": "", "classification": "question"}`

		reply := parseChatResponse(raw)

		assert.Equal(t, raw, reply.text)
		assert.Equal(t, types.ChatIntentOther, reply.intent)
	})
}
