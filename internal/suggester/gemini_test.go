package suggester

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

type mockModels struct {
	mock.Mock
}

func (that *mockModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content,
	config *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	args := that.Called(ctx, model, contents, config)

	resp, _ := args.Get(0).(*genai.GenerateContentResponse)

	return resp, args.Error(1)
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Role: "model", Parts: []*genai.Part{{Text: text}}}},
		},
	}
}

func TestGemini_Suggest(t *testing.T) {
	board, err := entity.EmptyBoard().Place(7, 7, entity.PlayerBlack)
	require.NoError(t, err)

	t.Run("Parses x as row and y as column", func(t *testing.T) {
		// Given: a model answering with a JSON coordinate
		models := new(mockModels)
		models.On("GenerateContent", mock.Anything, "gemini-2.5-flash", mock.Anything, mock.MatchedBy(
			func(config *genai.GenerateContentConfig) bool {
				return config.ResponseMIMEType == "application/json" && config.ResponseSchema != nil
			})).Return(textResponse(`{"x": 6, "y": 8}`), nil)

		gemini := newGemini(discardLogger(), models, "gemini-2.5-flash", 0)

		// When: asking for a white move
		position, err := gemini.Suggest(context.Background(), board, entity.PlayerWhite)

		// Then: the coordinate is mapped onto the board
		require.NoError(t, err)
		assert.Equal(t, entity.Position{Row: 6, Col: 8}, position)
		models.AssertExpectations(t)
	})

	t.Run("Model error", func(t *testing.T) {
		models := new(mockModels)
		models.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("unavailable"))

		_, err := newGemini(discardLogger(), models, "gemini-2.5-flash", 0).
			Suggest(context.Background(), board, entity.PlayerWhite)

		require.Error(t, err)
	})

	t.Run("Unusable answers are rejected", func(t *testing.T) {
		for _, text := range []string{`row seven`, `{"x": 3}`} {
			models := new(mockModels)
			models.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
				Return(textResponse(text), nil)

			_, err := newGemini(discardLogger(), models, "gemini-2.5-flash", 0).
				Suggest(context.Background(), board, entity.PlayerWhite)

			require.ErrorIs(t, err, apperror.ErrSuggestionRejected, text)
		}
	})

	t.Run("Empty answer", func(t *testing.T) {
		models := new(mockModels)
		models.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(textResponse(""), nil)

		_, err := newGemini(discardLogger(), models, "gemini-2.5-flash", 0).
			Suggest(context.Background(), board, entity.PlayerWhite)

		require.ErrorIs(t, err, errEmptyResponse)
	})
}

func TestBuildPrompt(t *testing.T) {
	board, err := entity.EmptyBoard().Place(0, 1, entity.PlayerBlack)
	require.NoError(t, err)
	board, err = board.Place(0, 2, entity.PlayerWhite)
	require.NoError(t, err)

	prompt, err := buildPrompt(board, entity.PlayerWhite)

	require.NoError(t, err)
	assert.Contains(t, prompt, "playing as White (2)")
	assert.Contains(t, prompt, "Black (1) is the opponent")
	assert.Contains(t, prompt, "[[0,1,2,0,0,0,0,0,0,0,0,0,0,0,0],[0,0,0")
}
