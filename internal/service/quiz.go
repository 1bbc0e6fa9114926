package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/dexquiz/dexquiz/internal/logging"
	"github.com/dexquiz/dexquiz/internal/metrics"
	"github.com/dexquiz/dexquiz/internal/pokeapi"
	"github.com/dexquiz/dexquiz/internal/quizstate"
)

const (
	CorrectReward = 25

	msgCorrect   = "Ding Ding Ding! We have a winner!"
	msgIncorrect = "That is incorrect. Another hint has been added to the entry."
)

type StateStore interface {
	GetState(ctx context.Context, sessionID string) (*quizstate.State, error)
	SetState(ctx context.Context, sessionID string, st *quizstate.State) error
	IncrementScore(ctx context.Context, sessionID string, delta int) (int, error)
	GetScore(ctx context.Context, sessionID string) (int, bool, error)
	ResetScore(ctx context.Context, sessionID string) error
}

type GuessResult struct {
	Correct bool    `json:"correct"`
	Message string  `json:"message"`
	Score   int     `json:"score"`
	Hint    *string `json:"hint,omitempty"`
}

type QuizService struct {
	States   StateStore
	Provider pokeapi.Provider
	Metrics  *metrics.Metrics

	// FixedPokemonID pins every target when > 0.
	FixedPokemonID int

	mu  sync.Mutex
	rnd *rand.Rand
}

func (s *QuizService) random() *rand.Rand {
	if s.rnd == nil {
		s.rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return s.rnd
}

func (s *QuizService) NewSessionID() string {
	return uuid.NewString()
}

func (s *QuizService) fetchTarget(ctx context.Context) (*quizstate.State, error) {
	s.mu.Lock()
	id := s.FixedPokemonID
	if id <= 0 {
		id = s.random().IntN(pokeapi.MaxID) + 1
	}
	s.mu.Unlock()

	p, err := s.Provider.Fetch(ctx, id)
	if err != nil {
		logging.FromContext(ctx).Error("pokemon_fetch_failed", "pokemon_id", id, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return newState(p, s.random()), nil
}

// GetOrInitState loads the session's state, creating a fresh puzzle with
// score 0 when none exists.
func (s *QuizService) GetOrInitState(ctx context.Context, sessionID string) (*quizstate.State, error) {
	st, err := s.States.GetState(ctx, sessionID)
	if err == nil {
		return st, nil
	}
	if !errors.Is(err, quizstate.ErrStateNotFound) {
		return nil, err
	}

	st, err = s.fetchTarget(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.States.SetState(ctx, sessionID, st); err != nil {
		return nil, err
	}
	if err := s.States.ResetScore(ctx, sessionID); err != nil {
		return nil, err
	}
	st.Score = 0
	logging.FromContext(ctx).Debug("quiz_state_created", "pokemon_id", st.PokemonID)
	return st, nil
}

func (s *QuizService) CurrentPuzzle(ctx context.Context, sessionID string) (*Puzzle, error) {
	st, err := s.GetOrInitState(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return puzzleOf(st), nil
}

// EvaluateGuess compares the trimmed, case-folded guess with the target.
// A correct guess does not rotate the target, so repeating it scores again.
func (s *QuizService) EvaluateGuess(ctx context.Context, sessionID, guess string) (*GuessResult, error) {
	guess = strings.TrimSpace(guess)
	if guess == "" {
		return nil, fmt.Errorf("%w: guess must not be empty", ErrValidation)
	}

	st, err := s.GetOrInitState(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if strings.EqualFold(guess, st.Name) {
		score, err := s.States.IncrementScore(ctx, sessionID, CorrectReward)
		if err != nil {
			return nil, err
		}
		s.Metrics.Guess(true)
		return &GuessResult{Correct: true, Message: msgCorrect, Score: score}, nil
	}

	if err := s.States.SetState(ctx, sessionID, st); err != nil {
		return nil, err
	}
	s.Metrics.Guess(false)
	hint := ""
	return &GuessResult{Correct: false, Message: msgIncorrect, Score: st.Score, Hint: &hint}, nil
}

// NextQuiz swaps in a new target and keeps the accumulated score.
func (s *QuizService) NextQuiz(ctx context.Context, sessionID string) (int, error) {
	st, err := s.fetchTarget(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.States.SetState(ctx, sessionID, st); err != nil {
		return 0, err
	}
	score, _, err := s.States.GetScore(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	return score, nil
}

func (s *QuizService) ResetScore(ctx context.Context, sessionID string) error {
	if _, err := s.States.GetState(ctx, sessionID); err != nil {
		if errors.Is(err, quizstate.ErrStateNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	return s.States.ResetScore(ctx, sessionID)
}
