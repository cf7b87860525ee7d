package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/quizdash/quizdash/internal/metrics"
	"github.com/quizdash/quizdash/internal/model"
	"github.com/quizdash/quizdash/internal/quiz"
	"github.com/quizdash/quizdash/internal/repository"
)

// Action names, shared by the HTTP, HTML and WebSocket surfaces.
const (
	ActionSelect   = "select"
	ActionNext     = "next"
	ActionPrevious = "previous"
	ActionSkip     = "skip"
	ActionSubmit   = "submit"
	ActionJump     = "jump"
)

// ErrUnknownAction is returned for an action name the service does not know.
var ErrUnknownAction = errors.New("unknown quiz action")

// Action is one player input applied to a session.
type Action struct {
	Name   string
	Answer string
	Index  int
}

// AttemptArchiver receives finished attempts.
type AttemptArchiver interface {
	Archive(ctx context.Context, a *model.Attempt) error
}

// QuizService applies player actions to stored quiz sessions.
type QuizService struct {
	quiz     *quiz.Quiz
	store    repository.SessionStore
	archiver AttemptArchiver
	metrics  *metrics.Metrics
	log      zerolog.Logger
	now      func() time.Time

	// locks serialises read-modify-write cycles per session id. An entry
	// lives only while a caller holds or waits for it.
	locksMu sync.Mutex
	locks   map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// NewQuizService builds the quiz from the question bank. archiver may be nil.
func NewQuizService(
	ctx context.Context,
	questionRepo *repository.QuestionRepository,
	store repository.SessionStore,
	archiver AttemptArchiver,
	timeLimit time.Duration,
	m *metrics.Metrics,
	log zerolog.Logger,
) (*QuizService, error) {
	questions, err := questionRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}

	q, err := quiz.New(questions, timeLimit)
	if err != nil {
		return nil, fmt.Errorf("build quiz: %w", err)
	}

	return &QuizService{
		quiz:     q,
		store:    store,
		archiver: archiver,
		metrics:  m,
		log:      log.With().Str("component", "quiz_service").Logger(),
		now:      time.Now,
		locks:    make(map[string]*sessionLock),
	}, nil
}

// Start creates a fresh session.
func (s *QuizService) Start(ctx context.Context) (*model.QuizView, error) {
	sess := s.quiz.NewSession(uuid.New().String(), s.now())
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	s.metrics.SessionsStarted.Inc()
	s.log.Debug().Str("session_id", sess.ID).Msg("Quiz session started")
	return s.quiz.View(sess, s.now()), nil
}

// Ensure returns id when it names a live session, otherwise starts a new one
// and returns its id. started reports whether a new session was created.
func (s *QuizService) Ensure(ctx context.Context, id string) (sessionID string, started bool, err error) {
	if id != "" {
		sess, err := s.store.Get(ctx, id)
		switch {
		case err == nil && s.quiz.Validate(sess) == nil:
			return id, false, nil
		case err != nil && !errors.Is(err, repository.ErrSessionNotFound):
			return "", false, fmt.Errorf("load session: %w", err)
		}
	}

	view, err := s.Start(ctx)
	if err != nil {
		return "", false, err
	}
	return view.SessionID, true, nil
}

// Get returns the current view, applying any countdown that ran out while no
// one was watching.
func (s *QuizService) Get(ctx context.Context, id string) (*model.QuizView, error) {
	var view *model.QuizView
	err := s.withSession(ctx, id, func(sess *quiz.Session, now time.Time) (bool, error) {
		changed := s.expire(sess, now)
		view = s.quiz.View(sess, now)
		return changed, nil
	})
	return view, err
}

// Results returns the graded results of a finished session.
func (s *QuizService) Results(ctx context.Context, id string) (*model.QuizResults, error) {
	view, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !view.Finished {
		return nil, quiz.ErrQuizNotFinished
	}
	return view.Results, nil
}

// Apply runs a single action and returns the resulting view.
func (s *QuizService) Apply(ctx context.Context, id string, action Action) (*model.QuizView, error) {
	var view *model.QuizView
	err := s.withSession(ctx, id, func(sess *quiz.Session, now time.Time) (bool, error) {
		expired := s.expire(sess, now)
		wasFinished := sess.Finished

		err := s.apply(sess, action, now)
		s.metrics.ObserveAction(action.Name, err)
		if err != nil {
			// Keep an applied expiry even when the action itself is rejected.
			return expired, err
		}

		if sess.Finished && !wasFinished {
			s.finish(ctx, sess)
		}
		view = s.quiz.View(sess, now)
		return true, nil
	})
	return view, err
}

// TimeoutQuestion applies the countdown expiry of question index. It is a
// no-op unless the player is still on index and its deadline has passed, so a
// late or early timer can never skip the wrong question. expired reports
// whether the question was skipped.
func (s *QuizService) TimeoutQuestion(ctx context.Context, id string, index int) (view *model.QuizView, expired bool, err error) {
	err = s.withSession(ctx, id, func(sess *quiz.Session, now time.Time) (bool, error) {
		if sess.Current == index {
			expired = s.expire(sess, now)
		}
		view = s.quiz.View(sess, now)
		return expired, nil
	})
	return view, expired, err
}

// Restart discards the session and starts a new one.
func (s *QuizService) Restart(ctx context.Context, id string) (*model.QuizView, error) {
	if err := s.store.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("delete session: %w", err)
	}
	return s.Start(ctx)
}

func (s *QuizService) apply(sess *quiz.Session, action Action, now time.Time) error {
	switch action.Name {
	case ActionSelect:
		return s.quiz.SelectAnswer(sess, action.Answer, now)
	case ActionNext:
		return s.quiz.Next(sess, now)
	case ActionPrevious:
		return s.quiz.Previous(sess, now)
	case ActionSkip:
		return s.quiz.Skip(sess, now)
	case ActionSubmit:
		return s.quiz.Submit(sess, now)
	case ActionJump:
		return s.quiz.Jump(sess, action.Index, now)
	default:
		return ErrUnknownAction
	}
}

func (s *QuizService) expire(sess *quiz.Session, now time.Time) bool {
	n := s.quiz.Expire(sess, now)
	if n > 0 {
		s.metrics.CountdownExpiries.Add(float64(n))
		s.log.Debug().Str("session_id", sess.ID).Int("skipped", n).Msg("Applied elapsed countdowns")
	}
	return n > 0
}

func (s *QuizService) finish(ctx context.Context, sess *quiz.Session) {
	attempt, err := s.quiz.Attempt(sess)
	if err != nil {
		s.log.Error().Err(err).Str("session_id", sess.ID).Msg("Build attempt failed")
		return
	}

	s.metrics.ObserveFinished(attempt.Score, attempt.Total)
	s.log.Info().
		Str("session_id", sess.ID).
		Int("score", attempt.Score).
		Int("total", attempt.Total).
		Int("skipped", attempt.Skipped).
		Msg("Quiz finished")

	if s.archiver == nil {
		return
	}
	if err := s.archiver.Archive(ctx, attempt); err != nil {
		// The player still sees the results; the archive is best effort.
		s.metrics.ArchiveFailures.Inc()
		s.log.Error().Err(err).Str("session_id", sess.ID).Msg("Archive attempt failed")
	}
}

// withSession loads, mutates and saves a session under its lock.
// fn returns whether the session changed and must be saved.
func (s *QuizService) withSession(ctx context.Context, id string, fn func(*quiz.Session, time.Time) (bool, error)) error {
	s.lock(id)
	defer s.unlock(id)

	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if err := s.quiz.Validate(sess); err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	changed, fnErr := fn(sess, s.now())
	if changed {
		if err := s.store.Save(ctx, sess); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
	}
	return fnErr
}

func (s *QuizService) lock(id string) {
	s.locksMu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sessionLock{}
		s.locks[id] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
}

func (s *QuizService) unlock(id string) {
	s.locksMu.Lock()
	l := s.locks[id]
	l.refs--
	if l.refs == 0 {
		delete(s.locks, id)
	}
	s.locksMu.Unlock()

	l.mu.Unlock()
}
