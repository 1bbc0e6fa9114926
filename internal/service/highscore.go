package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/dexquiz/dexquiz/internal/events"
	"github.com/dexquiz/dexquiz/internal/logging"
	"github.com/dexquiz/dexquiz/internal/metrics"
	"github.com/dexquiz/dexquiz/internal/models"
	"github.com/dexquiz/dexquiz/internal/quizstate"
	"github.com/dexquiz/dexquiz/internal/repo"
)

type HighscoreStore interface {
	AddHighscore(ctx context.Context, username string, score int) (*models.HighscoreEntry, error)
	GetHighscores(ctx context.Context) ([]models.HighscoreEntry, error)
	GetUserHighscores(ctx context.Context, username string) ([]models.HighscoreEntry, error)
	GetTopHighscores(ctx context.Context, limit int) ([]models.HighscoreEntry, error)
}

type HighscoreService struct {
	Scores  HighscoreStore
	States  StateStore
	Events  events.Publisher
	Metrics *metrics.Metrics
}

// Submit commits the session's counter for username and then zeroes it.
// Two quick submissions commit the score and then 0.
func (s *HighscoreService) Submit(ctx context.Context, username, sessionID string) (*models.HighscoreEntry, error) {
	l := logging.FromContext(ctx).With("svc", "highscore.submit", "username", username)

	if _, err := s.States.GetState(ctx, sessionID); err != nil {
		if errors.Is(err, quizstate.ErrStateNotFound) {
			l.Warn("submit_failed", "status", 404, "reason", "no quiz data")
			return nil, ErrNoQuizData
		}
		return nil, err
	}
	score, ok, err := s.States.GetScore(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		l.Warn("submit_failed", "status", 404, "reason", "no score")
		return nil, ErrNoScore
	}

	entry, err := s.Scores.AddHighscore(ctx, username, score)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			l.Warn("submit_failed", "status", 404, "reason", "user not found")
			return nil, ErrUserNotFound
		}
		l.Error("submit_failed", "status", 500, "error", err)
		return nil, err
	}

	if err := s.States.ResetScore(ctx, sessionID); err != nil {
		// the row is committed; a stale counter only risks a duplicate submit
		l.Error("score_reset_failed", "error", err)
		return nil, fmt.Errorf("reset score after submit: %w", err)
	}

	s.Metrics.HighscoreSubmitted()
	if s.Events != nil {
		if err := s.Events.Publish(ctx, events.New(events.TypeHighscoreSubmitted, username).WithScore(score)); err != nil {
			l.Warn("event_publish_failed", "error", err)
		}
	}
	l.Info("highscore_submitted", "score", score)
	return entry, nil
}

func (s *HighscoreService) List(ctx context.Context) ([]models.HighscoreEntry, error) {
	return s.Scores.GetHighscores(ctx)
}

func (s *HighscoreService) ListForUser(ctx context.Context, username string) ([]models.HighscoreEntry, error) {
	return s.Scores.GetUserHighscores(ctx, username)
}

func (s *HighscoreService) Top(ctx context.Context, n int) ([]models.HighscoreEntry, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: top must be at least 1", ErrValidation)
	}
	return s.Scores.GetTopHighscores(ctx, n)
}
