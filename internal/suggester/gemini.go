package suggester

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

var errEmptyResponse = errors.New("empty response from model")

const promptTemplate = `You are a Gomoku (Five-in-a-Row) expert. You are playing as %s (%d).
%s (%d) is the opponent.
The board is %dx%d.

Current board state (0=empty, 1=Black, 2=White):
%s

Analyze the board and find the absolute best move to either win or block %s from winning.
Return ONLY the coordinate of your move.`

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content,
		config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type GeminiOptions struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Gemini asks a Gemini model for the next move. Its answers are only as good as the model: wrap it
// in a Fallback.
type Gemini struct {
	logger  *slog.Logger
	models  contentGenerator
	model   string
	timeout time.Duration
}

func NewGemini(ctx context.Context, logger *slog.Logger, options GeminiOptions) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  options.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return newGemini(logger, client.Models, options.Model, options.Timeout), nil
}

func newGemini(logger *slog.Logger, models contentGenerator, model string, timeout time.Duration) *Gemini {
	return &Gemini{
		logger:  logger.With("component", "gemini"),
		models:  models,
		model:   model,
		timeout: timeout,
	}
}

type geminiMove struct {
	X *int `json:"x"`
	Y *int `json:"y"`
}

func (that *Gemini) Suggest(ctx context.Context, board entity.Board, player entity.Player) (entity.Position, error) {
	log := that.logger.With("method", "Suggest")

	if that.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, that.timeout)
		defer cancel()
	}

	prompt, err := buildPrompt(board, player)
	if err != nil {
		return entity.Position{}, err
	}

	resp, err := that.models.GenerateContent(ctx, that.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   moveSchema(),
	})
	if err != nil {
		return entity.Position{}, fmt.Errorf("failed to generate move: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return entity.Position{}, errEmptyResponse
	}

	var move geminiMove
	if err = json.Unmarshal([]byte(text), &move); err != nil {
		return entity.Position{}, fmt.Errorf("%w: %w", apperror.ErrSuggestionRejected, err)
	}

	if move.X == nil || move.Y == nil {
		return entity.Position{}, fmt.Errorf("%w: missing coordinate in %s", apperror.ErrSuggestionRejected, text)
	}

	log.Debug("model proposed move", "row", *move.X, "col", *move.Y)

	return entity.Position{Row: *move.X, Col: *move.Y}, nil
}

func buildPrompt(board entity.Board, player entity.Player) (string, error) {
	encoded, err := json.Marshal(encodeBoard(board))
	if err != nil {
		return "", fmt.Errorf("failed to encode board: %w", err)
	}

	opponent := player.Opponent()

	return fmt.Sprintf(promptTemplate,
		colorName(player), cellCode(player.Cell()),
		colorName(opponent), cellCode(opponent.Cell()),
		entity.BoardSize, entity.BoardSize,
		encoded,
		colorName(opponent),
	), nil
}

// encodeBoard writes 0 for empty, 1 for black and 2 for white.
func encodeBoard(board entity.Board) [][]int {
	rows := make([][]int, entity.BoardSize)
	for row := range entity.BoardSize {
		rows[row] = make([]int, entity.BoardSize)
		for col := range entity.BoardSize {
			rows[row][col] = cellCode(board[row][col])
		}
	}

	return rows
}

func cellCode(cell entity.Cell) int {
	switch cell {
	case entity.BlackCell:
		return 1
	case entity.WhiteCell:
		return 2
	default:
		return 0
	}
}

func colorName(player entity.Player) string {
	if player == entity.PlayerBlack {
		return "Black"
	}

	return "White"
}

func moveSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"x": {Type: genai.TypeInteger, Description: fmt.Sprintf("Row index (0-%d)", entity.BoardSize-1)},
			"y": {Type: genai.TypeInteger, Description: fmt.Sprintf("Column index (0-%d)", entity.BoardSize-1)},
		},
		Required: []string{"x", "y"},
	}
}
