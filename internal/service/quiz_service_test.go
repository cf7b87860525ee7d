package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/quizdash/quizdash/internal/metrics"
	"github.com/quizdash/quizdash/internal/model"
	"github.com/quizdash/quizdash/internal/quiz"
	"github.com/quizdash/quizdash/internal/repository"
)

type recordingArchiver struct {
	mu       sync.Mutex
	attempts []*model.Attempt
	err      error
}

func (a *recordingArchiver) Archive(_ context.Context, attempt *model.Attempt) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.attempts = append(a.attempts, attempt)
	return a.err
}

type serviceFixture struct {
	svc      *QuizService
	store    *repository.MemorySessionStore
	archiver *recordingArchiver
	metrics  *metrics.Metrics
	now      time.Time
}

func (f *serviceFixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func helperService(t *testing.T) *serviceFixture {
	t.Helper()

	f := &serviceFixture{
		store:    repository.NewMemorySessionStore(time.Hour),
		archiver: &recordingArchiver{},
		metrics:  metrics.New(),
		now:      time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC),
	}

	svc, err := NewQuizService(context.Background(), repository.NewQuestionRepository(),
		f.store, f.archiver, time.Minute, f.metrics, zerolog.Nop())
	require.NoError(t, err)
	svc.now = func() time.Time { return f.now }
	f.svc = svc
	return f
}

func correctAnswers(t *testing.T) []string {
	t.Helper()
	questions, err := repository.NewQuestionRepository().List(context.Background())
	require.NoError(t, err)
	out := make([]string, len(questions))
	for i, q := range questions {
		out[i] = q.CorrectOption
	}
	return out
}

func TestQuizServiceFullRunArchivesOnce(t *testing.T) {
	t.Parallel()

	f := helperService(t)
	ctx := context.Background()

	view, err := f.svc.Start(ctx)
	require.NoError(t, err)
	id := view.SessionID

	answers := correctAnswers(t)
	for i, answer := range answers {
		_, err = f.svc.Apply(ctx, id, Action{Name: ActionSelect, Answer: answer})
		require.NoError(t, err)
		name := ActionNext
		if i == len(answers)-1 {
			name = ActionSubmit
		}
		view, err = f.svc.Apply(ctx, id, Action{Name: name})
		require.NoError(t, err)
	}

	require.True(t, view.Finished)
	require.Equal(t, 5, view.Results.Score)
	require.Equal(t, 5, view.Results.Total)

	_, err = f.svc.Apply(ctx, id, Action{Name: ActionSubmit})
	require.ErrorIs(t, err, quiz.ErrQuizFinished)

	require.Len(t, f.archiver.attempts, 1)
	require.Equal(t, id, f.archiver.attempts[0].SessionID)
	require.Equal(t, 5, f.archiver.attempts[0].Score)
	require.Equal(t, float64(1), testutil.ToFloat64(f.metrics.AttemptsFinished))
	require.Equal(t, float64(1), testutil.ToFloat64(f.metrics.SessionsStarted))
}

func TestQuizServiceResultsRequireFinish(t *testing.T) {
	t.Parallel()

	f := helperService(t)
	ctx := context.Background()
	view, err := f.svc.Start(ctx)
	require.NoError(t, err)

	_, err = f.svc.Results(ctx, view.SessionID)
	require.ErrorIs(t, err, quiz.ErrQuizNotFinished)
}

func TestQuizServiceGetAppliesElapsedCountdowns(t *testing.T) {
	t.Parallel()

	f := helperService(t)
	ctx := context.Background()
	view, err := f.svc.Start(ctx)
	require.NoError(t, err)

	f.advance(125 * time.Second)
	view, err = f.svc.Get(ctx, view.SessionID)
	require.NoError(t, err)
	require.Equal(t, 2, view.Index)
	require.Equal(t, 55, view.RemainingSeconds)
	require.Equal(t, model.QuestionStatusSkipped, view.Nav[0].Status)
	require.Equal(t, float64(2), testutil.ToFloat64(f.metrics.CountdownExpiries))

	// The expiry is persisted, not recomputed.
	stored, err := f.store.Get(ctx, view.SessionID)
	require.NoError(t, err)
	require.Equal(t, 2, stored.Current)
}

func TestQuizServiceTimeoutIgnoresStaleIndex(t *testing.T) {
	t.Parallel()

	f := helperService(t)
	ctx := context.Background()
	view, err := f.svc.Start(ctx)
	require.NoError(t, err)
	id := view.SessionID

	_, err = f.svc.Apply(ctx, id, Action{Name: ActionJump, Index: 3})
	require.NoError(t, err)

	view, expired, err := f.svc.TimeoutQuestion(ctx, id, 0)
	require.NoError(t, err)
	require.False(t, expired)
	require.Equal(t, 3, view.Index)
	require.Equal(t, model.QuestionStatusUnanswered, view.Nav[0].Status)

	// Deadline not reached yet.
	_, expired, err = f.svc.TimeoutQuestion(ctx, id, 3)
	require.NoError(t, err)
	require.False(t, expired)

	f.advance(time.Minute)
	view, expired, err = f.svc.TimeoutQuestion(ctx, id, 3)
	require.NoError(t, err)
	require.True(t, expired)
	require.Equal(t, 4, view.Index)
	require.Equal(t, model.QuestionStatusSkipped, view.Nav[3].Status)
}

func TestQuizServiceRejectedActionKeepsState(t *testing.T) {
	t.Parallel()

	f := helperService(t)
	ctx := context.Background()
	view, err := f.svc.Start(ctx)
	require.NoError(t, err)
	id := view.SessionID

	_, err = f.svc.Apply(ctx, id, Action{Name: ActionNext})
	require.ErrorIs(t, err, quiz.ErrAnswerRequired)
	_, err = f.svc.Apply(ctx, id, Action{Name: ActionSelect, Answer: "Mars"})
	require.ErrorIs(t, err, quiz.ErrUnknownOption)
	_, err = f.svc.Apply(ctx, id, Action{Name: "dance"})
	require.ErrorIs(t, err, ErrUnknownAction)

	view, err = f.svc.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 0, view.Index)
	require.Empty(t, view.SelectedAnswer)
}

func TestQuizServiceEnsureReplacesUnknownSession(t *testing.T) {
	t.Parallel()

	f := helperService(t)
	ctx := context.Background()

	id, started, err := f.svc.Ensure(ctx, "")
	require.NoError(t, err)
	require.True(t, started)

	same, started, err := f.svc.Ensure(ctx, id)
	require.NoError(t, err)
	require.False(t, started)
	require.Equal(t, id, same)

	fresh, started, err := f.svc.Ensure(ctx, "gone")
	require.NoError(t, err)
	require.True(t, started)
	require.NotEqual(t, id, fresh)

	_, err = f.svc.Get(ctx, "gone")
	require.ErrorIs(t, err, repository.ErrSessionNotFound)
}

func TestQuizServiceRestartDropsSession(t *testing.T) {
	t.Parallel()

	f := helperService(t)
	ctx := context.Background()
	view, err := f.svc.Start(ctx)
	require.NoError(t, err)

	next, err := f.svc.Restart(ctx, view.SessionID)
	require.NoError(t, err)
	require.NotEqual(t, view.SessionID, next.SessionID)

	_, err = f.svc.Get(ctx, view.SessionID)
	require.ErrorIs(t, err, repository.ErrSessionNotFound)
}

func TestQuizServiceArchiveFailureStillFinishes(t *testing.T) {
	t.Parallel()

	f := helperService(t)
	f.archiver.err = errors.New("queue down")
	ctx := context.Background()
	view, err := f.svc.Start(ctx)
	require.NoError(t, err)
	id := view.SessionID

	for i := 0; i < view.Total; i++ {
		_, err = f.svc.Apply(ctx, id, Action{Name: ActionSkip})
		require.NoError(t, err, "skip %d", i)
	}
	view, err = f.svc.Apply(ctx, id, Action{Name: ActionSubmit})
	require.NoError(t, err)
	require.True(t, view.Finished)
	require.Equal(t, 5, view.Results.Skipped)
	require.Equal(t, float64(1), testutil.ToFloat64(f.metrics.ArchiveFailures))
}

func (f *serviceFixture) lockEntries() int {
	f.svc.locksMu.Lock()
	defer f.svc.locksMu.Unlock()
	return len(f.svc.locks)
}

func TestQuizServiceReleasesSessionLocks(t *testing.T) {
	t.Parallel()

	f := helperService(t)
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		id, _, err := f.svc.Ensure(ctx, "")
		require.NoError(t, err)
		_, err = f.svc.Get(ctx, id)
		require.NoError(t, err)
		_, err = f.svc.Apply(ctx, id, Action{Name: ActionSkip})
		require.NoError(t, err)
	}
	require.Equal(t, 0, f.lockEntries())

	for i := 0; i < 20; i++ {
		_, err := f.svc.Get(ctx, fmt.Sprintf("ghost-%d", i))
		require.ErrorIs(t, err, repository.ErrSessionNotFound)
		_, _, err = f.svc.TimeoutQuestion(ctx, fmt.Sprintf("ghost-%d", i), 0)
		require.ErrorIs(t, err, repository.ErrSessionNotFound)
	}
	require.Equal(t, 0, f.lockEntries())

}

func TestQuizServiceSweptSessionsLeaveNoLocks(t *testing.T) {
	t.Parallel()

	store := repository.NewMemorySessionStore(20 * time.Millisecond)
	svc, err := NewQuizService(context.Background(), repository.NewQuestionRepository(),
		store, nil, time.Minute, metrics.New(), zerolog.Nop())
	require.NoError(t, err)
	ctx := context.Background()

	ids := make([]string, 10)
	for i := range ids {
		view, err := svc.Start(ctx)
		require.NoError(t, err)
		ids[i] = view.SessionID
	}

	time.Sleep(40 * time.Millisecond)
	require.Equal(t, 10, store.Sweep())

	for _, id := range ids {
		_, err := svc.Apply(ctx, id, Action{Name: ActionSkip})
		require.ErrorIs(t, err, repository.ErrSessionNotFound)
	}
	svc.locksMu.Lock()
	defer svc.locksMu.Unlock()
	require.Empty(t, svc.locks)
}

func TestQuizServiceSerialisesConcurrentActions(t *testing.T) {
	t.Parallel()

	f := helperService(t)
	ctx := context.Background()
	view, err := f.svc.Start(ctx)
	require.NoError(t, err)
	id := view.SessionID

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.svc.Apply(ctx, id, Action{Name: ActionSkip})
		}()
	}
	wg.Wait()
	require.Equal(t, 0, f.lockEntries())

	view, err = f.svc.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 4, view.Index)
	for i := 0; i < 4; i++ {
		require.Equal(t, model.QuestionStatusSkipped, view.Nav[i].Status)
	}
}
