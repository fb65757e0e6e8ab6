package engine

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"os"
	"sync"
	"testing"

	apperrors "github.com/SAP-F-2025/quiz-engine/internal/errors"
	"github.com/SAP-F-2025/quiz-engine/internal/events"
	"github.com/SAP-F-2025/quiz-engine/internal/models"
	"github.com/SAP-F-2025/quiz-engine/internal/progress"
	"github.com/SAP-F-2025/quiz-engine/internal/repositories/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func points(v float64) *float64 {
	return &v
}

func singleChoice(id models.ID, correct models.ID, pts float64, optionIDs ...models.ID) models.Question {
	q := models.Question{ID: id, Type: models.SingleChoice, Points: points(pts), Text: models.QuestionText{Plain: "Question " + id.String()}}
	for _, oid := range optionIDs {
		q.Options = append(q.Options, models.Option{ID: oid, Text: "Option " + oid.String(), IsCorrect: oid == correct})
	}
	return q
}

// scenarioDocument has Q1 correct "a" worth 1 and Q2 correct "b" worth 2.
func scenarioDocument() *models.QuizDocument {
	return &models.QuizDocument{
		Metadata: models.QuizMetadata{ID: "scenario", Title: "Scenario", Subject: "Testing"},
		Questions: []models.Question{
			singleChoice("q1", "a", 1, "a", "b", "c"),
			singleChoice("q2", "b", 2, "a", "b", "c"),
		},
	}
}

func fiveQuestionDocument() *models.QuizDocument {
	doc := &models.QuizDocument{Metadata: models.QuizMetadata{ID: "five", Title: "Five"}}
	for _, id := range []models.ID{"q1", "q2", "q3", "q4", "q5"} {
		doc.Questions = append(doc.Questions, singleChoice(id, "a", 1, "a", "b"))
	}
	return doc
}

func multiDocument() *models.QuizDocument {
	return &models.QuizDocument{
		Metadata: models.QuizMetadata{ID: "multi"},
		Settings: models.QuizSettings{ShowExplanations: true},
		Questions: []models.Question{
			{
				ID:          "m1",
				Type:        models.MultipleChoice,
				Explanation: "Paris and Lyon are French.",
				Options: []models.Option{
					{ID: "paris", Text: "Paris", IsCorrect: true, Feedback: "Capital."},
					{ID: "lyon", Text: "Lyon", IsCorrect: true},
					{ID: "rome", Text: "Rome", Feedback: "That is Italy."},
				},
			},
			singleChoice("s1", "a", 1, "a", "b"),
		},
	}
}

type harness struct {
	engine    *Engine
	store     *memory.ProgressMemory
	gateway   *progress.Gateway
	publisher *events.MockEventPublisher
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	logger := testLogger()
	store := memory.NewProgressMemory()
	gateway := progress.NewGateway(store, logger)
	publisher := events.NewMockEventPublisher(logger)
	opts = append([]Option{WithPublisher(publisher), WithRand(rand.New(rand.NewPCG(1, 2)))}, opts...)
	return &harness{
		engine:    New(gateway, logger, opts...),
		store:     store,
		gateway:   gateway,
		publisher: publisher,
	}
}

func (h *harness) load(t *testing.T, doc *models.QuizDocument) {
	t.Helper()
	require.NoError(t, h.engine.Load(context.Background(), DocumentSource(doc)))
}

func (h *harness) state(t *testing.T) Snapshot {
	t.Helper()
	s, err := h.engine.State()
	require.NoError(t, err)
	return s
}

func TestEngine_NotLoaded(t *testing.T) {
	ctx := context.Background()
	e := New(nil, testLogger())

	assert.ErrorIs(t, e.Select(ctx, "q1", "a"), ErrNotLoaded)
	_, err := e.Evaluate(ctx, "q1", false)
	assert.ErrorIs(t, err, ErrNotLoaded)
	assert.ErrorIs(t, e.Advance(ctx), ErrNotLoaded)
	assert.ErrorIs(t, e.Retreat(ctx), ErrNotLoaded)
	assert.ErrorIs(t, e.GoTo(ctx, 1), ErrNotLoaded)
	assert.ErrorIs(t, e.Finish(ctx), ErrNotLoaded)
	assert.ErrorIs(t, e.Reset(ctx), ErrNotLoaded)
	_, err = e.ToggleReview(ctx)
	assert.ErrorIs(t, err, ErrNotLoaded)
	_, err = e.Current()
	assert.ErrorIs(t, err, ErrNotLoaded)
	_, err = e.State()
	assert.ErrorIs(t, err, ErrNotLoaded)
	_, err = e.Summary()
	assert.ErrorIs(t, err, ErrNotLoaded)
	_, err = e.Score()
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestEngine_TwoQuestionScenario(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.load(t, scenarioDocument())

	require.NoError(t, h.engine.Select(ctx, "q1", "a"))
	eval, err := h.engine.Evaluate(ctx, "q1", false)
	require.NoError(t, err)
	assert.True(t, eval.Matched)
	assert.Equal(t, 1.0, eval.Awarded)
	assert.Equal(t, 1.0, h.state(t).Score)

	require.NoError(t, h.engine.Advance(ctx))
	require.NoError(t, h.engine.Select(ctx, "q2", "a"))
	eval, err = h.engine.Evaluate(ctx, "q2", false)
	require.NoError(t, err)
	assert.False(t, eval.Matched)
	assert.Equal(t, 1.0, h.state(t).Score)

	require.NoError(t, h.engine.Select(ctx, "q2", "b"))
	eval, err = h.engine.Evaluate(ctx, "q2", false)
	require.NoError(t, err)
	assert.True(t, eval.Matched)

	state := h.state(t)
	assert.True(t, state.Completed)
	assert.Equal(t, 3.0, state.Score)
	assert.Equal(t, 3.0, state.TotalPoints)
	assert.True(t, state.Perfect)

	// review re-checks never change the score
	review, err := h.engine.ToggleReview(ctx)
	require.NoError(t, err)
	assert.True(t, review)
	for i := 0; i < 3; i++ {
		eval, err = h.engine.Evaluate(ctx, "q1", true)
		require.NoError(t, err)
		assert.True(t, eval.Matched)
		assert.Zero(t, eval.Awarded)
	}
	assert.Equal(t, 3.0, h.state(t).Score)
	assert.Len(t, h.publisher.EventsOfType(events.EventQuizFinished), 1)
}

func TestEngine_EvaluateAwardsOnce(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.load(t, fiveQuestionDocument())

	require.NoError(t, h.engine.Select(ctx, "q3", "a"))
	first, err := h.engine.Evaluate(ctx, "q3", false)
	require.NoError(t, err)
	second, err := h.engine.Evaluate(ctx, "q3", false)
	require.NoError(t, err)

	assert.Equal(t, 1.0, first.Awarded)
	assert.Zero(t, second.Awarded)
	assert.True(t, second.Matched)
	assert.Equal(t, 1.0, h.state(t).Score)
	assert.Equal(t, []models.ID{"q3"}, h.state(t).Scored)
}

func TestEngine_EvaluateUnknownQuestion(t *testing.T) {
	h := newHarness(t)
	h.load(t, scenarioDocument())

	eval, err := h.engine.Evaluate(context.Background(), "nope", false)
	require.NoError(t, err)
	assert.False(t, eval.Matched)
	assert.Zero(t, h.state(t).Score)
}

func TestEngine_UnansweredQuestionWithoutCorrectOptionsNeverScores(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	doc := scenarioDocument()
	doc.Questions[0].Options[0].IsCorrect = false
	h.load(t, doc)

	eval, err := h.engine.Evaluate(ctx, "q1", false)
	require.NoError(t, err)
	assert.False(t, eval.Matched)
	assert.Zero(t, eval.Awarded)
	assert.Zero(t, h.state(t).Score)
	assert.Empty(t, h.state(t).Scored)

	require.NoError(t, h.engine.Finish(ctx))
	assert.Zero(t, h.state(t).Score)

	view, err := h.engine.Current()
	require.NoError(t, err)
	require.NotNil(t, view.Evaluation)
	assert.False(t, view.Evaluation.Matched)
}

func TestMatches_SetEquality(t *testing.T) {
	q := &models.Question{
		ID: "m",
		Options: []models.Option{
			{ID: "A", IsCorrect: true},
			{ID: "B", IsCorrect: true},
			{ID: "C"},
		},
	}

	assert.True(t, Matches(q, models.NewIDSet("A", "B")))
	assert.True(t, Matches(q, models.NewIDSet("B", "A", "A")))
	assert.True(t, Matches(q, models.NewIDSet(" B", "A ")))
	assert.False(t, Matches(q, models.NewIDSet("A")))
	assert.False(t, Matches(q, models.NewIDSet("A", "B", "C")))
	assert.False(t, Matches(q, models.NewIDSet()))
}

func TestEngine_MultiChoiceToggle(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.load(t, multiDocument())

	require.NoError(t, h.engine.Select(ctx, "m1", "paris"))
	require.NoError(t, h.engine.Select(ctx, "m1", "rome"))
	assert.ElementsMatch(t, []models.ID{"paris", "rome"}, h.state(t).Answers["m1"])

	require.NoError(t, h.engine.Select(ctx, "m1", "rome"))
	assert.Equal(t, []models.ID{"paris"}, h.state(t).Answers["m1"])

	require.NoError(t, h.engine.Select(ctx, "m1", "paris"))
	_, present := h.state(t).Answers["m1"]
	assert.False(t, present, "emptied answer sets must be removed")

	raw, err := h.store.Get(ctx, progress.StorageKey("multi"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"i":0,"answers":{},"score":0,"finished":false,"scored":[]}`, string(raw))
}

func TestEngine_SingleChoiceReplaces(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.load(t, scenarioDocument())

	require.NoError(t, h.engine.Select(ctx, "q1", "a"))
	require.NoError(t, h.engine.Select(ctx, " q1 ", " c "))
	assert.Equal(t, []models.ID{"c"}, h.state(t).Answers["q1"])
}

func TestEngine_SelectIgnoresUnknownIDs(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.load(t, scenarioDocument())

	require.NoError(t, h.engine.Select(ctx, "zz", "a"))
	require.NoError(t, h.engine.Select(ctx, "q1", "zz"))
	assert.Empty(t, h.state(t).Answers)

	_, err := h.store.Get(ctx, progress.StorageKey("scenario"))
	assert.Error(t, err, "ignored selections must not persist")
}

func TestEngine_Feedback(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.load(t, multiDocument())

	require.NoError(t, h.engine.Select(ctx, "m1", "rome"))
	require.NoError(t, h.engine.Select(ctx, "m1", "paris"))
	eval, err := h.engine.Evaluate(ctx, "m1", false)
	require.NoError(t, err)
	assert.Equal(t, "Capital. That is Italy.", eval.Feedback)
	assert.Equal(t, []OptionMark{
		{OptionID: "paris", Mark: MarkCorrectSelected},
		{OptionID: "lyon", Mark: MarkUnmarked},
		{OptionID: "rome", Mark: MarkIncorrectSelected},
	}, eval.Marks)

	require.NoError(t, h.engine.Select(ctx, "m1", "rome"))
	require.NoError(t, h.engine.Select(ctx, "m1", "paris"))
	require.NoError(t, h.engine.Select(ctx, "m1", "lyon"))
	eval, err = h.engine.Evaluate(ctx, "m1", false)
	require.NoError(t, err)
	assert.Equal(t, "Paris and Lyon are French.", eval.Feedback)

	silent, err := h.engine.Evaluate(ctx, "m1", true)
	require.NoError(t, err)
	assert.Empty(t, silent.Feedback)
}

func TestEngine_Reset(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.load(t, scenarioDocument())

	require.NoError(t, h.engine.Select(ctx, "q1", "a"))
	_, err := h.engine.Evaluate(ctx, "q1", false)
	require.NoError(t, err)
	require.NoError(t, h.engine.Advance(ctx))
	require.NoError(t, h.engine.Select(ctx, "q2", "b"))
	_, err = h.engine.ToggleReview(ctx)
	require.NoError(t, err)
	require.True(t, h.state(t).Completed)

	orderBefore, err := h.engine.Order()
	require.NoError(t, err)

	require.NoError(t, h.engine.Reset(ctx))
	state := h.state(t)
	assert.Zero(t, state.Score)
	assert.False(t, state.Completed)
	assert.False(t, state.ReviewMode)
	assert.Zero(t, state.Position)
	assert.Empty(t, state.Answers)
	assert.Empty(t, state.Scored)

	orderAfter, err := h.engine.Order()
	require.NoError(t, err)
	assert.Equal(t, orderBefore, orderAfter)

	_, err = h.store.Get(ctx, progress.StorageKey("scenario"))
	assert.Error(t, err, "reset must clear the stored record")
	assert.Len(t, h.publisher.EventsOfType(events.EventQuizReset), 1)

	// points can be earned again after a reset
	require.NoError(t, h.engine.Select(ctx, "q1", "a"))
	eval, err := h.engine.Evaluate(ctx, "q1", false)
	require.NoError(t, err)
	assert.Equal(t, 1.0, eval.Awarded)
}

func TestEngine_AutoFinishRequiresEveryAnswer(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.load(t, fiveQuestionDocument())

	for _, id := range []models.ID{"q1", "q2", "q3", "q4"} {
		require.NoError(t, h.engine.Select(ctx, id, "b"))
		require.NoError(t, h.engine.Advance(ctx))
		assert.False(t, h.state(t).Completed, "finished with fewer answers after %s", id)
	}

	require.NoError(t, h.engine.Select(ctx, "q5", "a"))
	state := h.state(t)
	assert.True(t, state.Completed)
	assert.Equal(t, 1.0, state.Score)
	assert.Equal(t, []models.ID{"q5"}, state.Scored)
}

func TestEngine_AutoFinishNotTriggeredByEmptiedMultiAnswer(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.load(t, multiDocument())

	require.NoError(t, h.engine.Select(ctx, "s1", "a"))
	require.NoError(t, h.engine.Select(ctx, "m1", "paris"))
	require.True(t, h.state(t).Completed)

	h2 := newHarness(t)
	h2.load(t, multiDocument())
	require.NoError(t, h2.engine.Select(ctx, "m1", "paris"))
	require.NoError(t, h2.engine.Select(ctx, "m1", "paris"))
	require.NoError(t, h2.engine.Select(ctx, "s1", "a"))
	assert.False(t, h2.state(t).Completed)
}

func TestEngine_ManualFinishRescores(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.load(t, fiveQuestionDocument())

	require.NoError(t, h.engine.Select(ctx, "q1", "a"))
	require.NoError(t, h.engine.Select(ctx, "q2", "a"))
	_, err := h.engine.Evaluate(ctx, "q1", false)
	require.NoError(t, err)
	assert.Equal(t, 1.0, h.state(t).Score)

	require.NoError(t, h.engine.Finish(ctx))
	state := h.state(t)
	assert.True(t, state.Completed)
	assert.Equal(t, 2.0, state.Score)
	assert.Equal(t, []models.ID{"q1", "q2"}, state.Scored)
	assert.False(t, state.Perfect)

	// finishing twice keeps the score and publishes once
	require.NoError(t, h.engine.Finish(ctx))
	assert.Equal(t, 2.0, h.state(t).Score)
	assert.Len(t, h.publisher.EventsOfType(events.EventQuizFinished), 1)

	// no awards once finished
	require.NoError(t, h.engine.Select(ctx, "q3", "a"))
	eval, err := h.engine.Evaluate(ctx, "q3", false)
	require.NoError(t, err)
	assert.True(t, eval.Matched)
	assert.Zero(t, eval.Awarded)
	assert.Equal(t, 3.0, h.state(t).Score, "answer changes while finished rescore")
}

func TestEngine_Navigation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.load(t, fiveQuestionDocument())

	require.NoError(t, h.engine.Retreat(ctx))
	assert.Zero(t, h.state(t).Position)

	for i := 0; i < 10; i++ {
		require.NoError(t, h.engine.Advance(ctx))
	}
	assert.Equal(t, 4, h.state(t).Position)

	require.NoError(t, h.engine.Retreat(ctx))
	assert.Equal(t, 3, h.state(t).Position)

	require.NoError(t, h.engine.GoTo(ctx, -3))
	assert.Zero(t, h.state(t).Position)
	require.NoError(t, h.engine.GoTo(ctx, 42))
	assert.Equal(t, 4, h.state(t).Position)

	raw, err := h.store.Get(ctx, progress.StorageKey("five"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"i":4`)
}

func TestEngine_RestoreClampsPosition(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	require.NoError(t, h.store.Save(ctx, progress.StorageKey("five"), []byte(`{"i":999,"answers":{},"score":0,"finished":false}`)))

	h.load(t, fiveQuestionDocument())
	assert.Equal(t, 4, h.state(t).Position)

	require.NoError(t, h.store.Save(ctx, progress.StorageKey("five"), []byte(`{"i":-2}`)))
	h.load(t, fiveQuestionDocument())
	assert.Zero(t, h.state(t).Position)

	require.NoError(t, h.store.Save(ctx, progress.StorageKey("five"), []byte(`{"i":1e300,"answers":{},"score":0,"finished":false}`)))
	h.load(t, fiveQuestionDocument())
	assert.Equal(t, 4, h.state(t).Position)

	require.NoError(t, h.store.Save(ctx, progress.StorageKey("five"), []byte(`{"i":-1e300}`)))
	h.load(t, fiveQuestionDocument())
	assert.Zero(t, h.state(t).Position)
}

func TestEngine_RestoreFiltersAnswers(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	record := `{"i":1,"answers":{"q1":["a","a"],"q2":["zz"],"gone":["a"],"m1":["paris","lyon","paris"]},"score":1,"finished":false,"scored":["q1","gone"]}`
	doc := multiDocument()
	doc.Metadata.ID = "restore"
	doc.Questions = append(doc.Questions, singleChoice("q1", "a", 1, "a", "b"), singleChoice("q2", "a", 1, "a", "b"))
	require.NoError(t, h.store.Save(ctx, progress.StorageKey("restore"), []byte(record)))

	h.load(t, doc)
	state := h.state(t)
	assert.Equal(t, 1, state.Position)
	assert.Equal(t, map[models.ID][]models.ID{"q1": {"a"}, "m1": {"paris", "lyon"}}, state.Answers)
	assert.Equal(t, []models.ID{"q1"}, state.Scored)
	assert.Equal(t, 1.0, state.Score)
	assert.False(t, state.Completed)

	// the restored marker blocks a second award
	eval, err := h.engine.Evaluate(ctx, "q1", false)
	require.NoError(t, err)
	assert.Zero(t, eval.Awarded)
}

func TestEngine_RestoreWithoutScoredList(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	require.NoError(t, h.store.Save(ctx, progress.StorageKey("five"), []byte(`{"i":0,"answers":{"q1":["a"],"q2":["b"]},"score":1,"finished":false}`)))

	h.load(t, fiveQuestionDocument())
	state := h.state(t)
	assert.Equal(t, []models.ID{"q1"}, state.Scored)
	assert.Equal(t, 1.0, state.Score)

	eval, err := h.engine.Evaluate(ctx, "q1", false)
	require.NoError(t, err)
	assert.Zero(t, eval.Awarded, "legacy records must not award twice")
}

func TestEngine_RestoreCompletedSessionFinishes(t *testing.T) {
	ctx := context.Background()

	t.Run("finished flag", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.store.Save(ctx, progress.StorageKey("five"), []byte(`{"i":2,"answers":{"q1":["a"],"q2":["a"]},"score":7,"finished":true}`)))

		h.load(t, fiveQuestionDocument())
		state := h.state(t)
		assert.True(t, state.Completed)
		assert.Equal(t, 2.0, state.Score)
		assert.Empty(t, h.publisher.EventsOfType(events.EventQuizFinished))
	})

	t.Run("all answered", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.store.Save(ctx, progress.StorageKey("scenario"), []byte(`{"i":1,"answers":{"q1":["a"],"q2":["b"]},"score":0,"finished":false}`)))

		h.load(t, scenarioDocument())
		state := h.state(t)
		assert.True(t, state.Completed)
		assert.Equal(t, 3.0, state.Score)
		assert.Len(t, h.publisher.EventsOfType(events.EventQuizFinished), 1)

		raw, err := h.store.Get(ctx, progress.StorageKey("scenario"))
		require.NoError(t, err)
		assert.Contains(t, string(raw), `"finished":true`)
	})
}

func TestEngine_MalformedRecordStartsFresh(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	require.NoError(t, h.store.Save(ctx, progress.StorageKey("five"), []byte(`{{{`)))

	h.load(t, fiveQuestionDocument())
	state := h.state(t)
	assert.Zero(t, state.Position)
	assert.Empty(t, state.Answers)
}

func TestEngine_LoadInvalidKeepsSession(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.load(t, scenarioDocument())
	require.NoError(t, h.engine.Select(ctx, "q1", "a"))

	bad := scenarioDocument()
	bad.Metadata.ID = "bad"
	bad.Questions[1].ID = "q1"
	err := h.engine.Load(ctx, DocumentSource(bad))
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	err = h.engine.Load(ctx, DocumentSource(&models.QuizDocument{}))
	assert.True(t, apperrors.IsValidation(err))

	err = h.engine.Load(ctx, Source{})
	assert.True(t, apperrors.IsValidation(err))

	state := h.state(t)
	assert.Equal(t, models.ID("scenario"), state.QuizID)
	assert.Equal(t, []models.ID{"a"}, state.Answers["q1"])
}

func TestEngine_LoadDoesNotAliasDocument(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	doc := scenarioDocument()
	h.load(t, doc)

	doc.Questions[0].Options[0].IsCorrect = false
	require.NoError(t, h.engine.Select(ctx, "q1", "a"))
	eval, err := h.engine.Evaluate(ctx, "q1", false)
	require.NoError(t, err)
	assert.True(t, eval.Matched)
}

type retrieverFunc func(ctx context.Context, ref string) (*models.QuizDocument, error)

func (f retrieverFunc) Retrieve(ctx context.Context, ref string) (*models.QuizDocument, error) {
	return f(ctx, ref)
}

func TestEngine_LoadFromRef(t *testing.T) {
	ctx := context.Background()
	cause := errors.New("connection refused")
	retriever := retrieverFunc(func(_ context.Context, ref string) (*models.QuizDocument, error) {
		switch ref {
		case "scenario.json":
			return scenarioDocument(), nil
		case "missing.json":
			return nil, apperrors.NewLoadStatusError(ref, 404)
		default:
			return nil, cause
		}
	})
	h := newHarness(t, WithRetriever(retriever))

	require.NoError(t, h.engine.Load(ctx, RefSource("scenario.json")))
	assert.Equal(t, models.ID("scenario"), h.state(t).QuizID)

	err := h.engine.Load(ctx, RefSource("missing.json"))
	le, ok := apperrors.AsLoadError(err)
	require.True(t, ok)
	assert.Equal(t, 404, le.Status)

	err = h.engine.Load(ctx, RefSource("down.json"))
	le, ok = apperrors.AsLoadError(err)
	require.True(t, ok)
	assert.Equal(t, "down.json", le.Source)
	assert.ErrorIs(t, err, cause)

	noRetriever := New(nil, testLogger())
	_, ok = apperrors.AsLoadError(noRetriever.Load(ctx, RefSource("scenario.json")))
	assert.True(t, ok)
}

// MockProgressGateway is a mock implementation of ProgressGateway
type MockProgressGateway struct {
	mock.Mock
}

func (m *MockProgressGateway) Restore(ctx context.Context, quizID models.ID) (models.ProgressRecord, bool) {
	args := m.Called(ctx, quizID)
	return args.Get(0).(models.ProgressRecord), args.Bool(1)
}

func (m *MockProgressGateway) Save(ctx context.Context, quizID models.ID, record models.ProgressRecord) error {
	args := m.Called(ctx, quizID, record)
	return args.Error(0)
}

func (m *MockProgressGateway) Clear(ctx context.Context, quizID models.ID) error {
	args := m.Called(ctx, quizID)
	return args.Error(0)
}

func TestEngine_PersistenceFailuresDoNotFailOperations(t *testing.T) {
	ctx := context.Background()
	gateway := new(MockProgressGateway)
	gateway.On("Restore", ctx, models.ID("scenario")).Return(models.ProgressRecord{}, false)
	gateway.On("Save", ctx, models.ID("scenario"), mock.Anything).Return(errors.New("quota exceeded"))
	gateway.On("Clear", ctx, models.ID("scenario")).Return(errors.New("quota exceeded"))

	e := New(gateway, testLogger())
	require.NoError(t, e.Load(ctx, DocumentSource(scenarioDocument())))
	assert.NoError(t, e.Select(ctx, "q1", "a"))
	assert.NoError(t, e.Advance(ctx))
	assert.NoError(t, e.Reset(ctx))
	gateway.AssertExpectations(t)
}

func TestEngine_SavedRecordShape(t *testing.T) {
	ctx := context.Background()
	gateway := new(MockProgressGateway)
	gateway.On("Restore", ctx, models.ID("scenario")).Return(models.ProgressRecord{}, false)
	gateway.On("Save", ctx, models.ID("scenario"), models.ProgressRecord{
		Position:  0,
		Answers:   map[models.ID][]models.ID{"q1": {"a"}},
		Scored:    []models.ID{},
		HasScored: true,
	}).Return(nil).Once()

	e := New(gateway, testLogger())
	require.NoError(t, e.Load(ctx, DocumentSource(scenarioDocument())))
	require.NoError(t, e.Select(ctx, "q1", "a"))
	gateway.AssertExpectations(t)
}

func TestEngine_CurrentView(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	doc := multiDocument()
	doc.Assets = &models.QuizAssets{BaseURL: "https://cdn.test/q"}
	doc.Questions[0].Media = []models.Media{{Type: models.MediaImage, Src: "img/map.png"}}
	h.load(t, doc)

	view, err := h.engine.Current()
	require.NoError(t, err)
	assert.Equal(t, models.ID("m1"), view.ID)
	assert.True(t, view.IsFirst)
	assert.False(t, view.IsLast)
	assert.Equal(t, "https://cdn.test/q/img/map.png", view.Media[0].Src)
	assert.Len(t, view.Options, 3)
	assert.Nil(t, view.Evaluation)
	assert.Equal(t, "img/map.png", doc.Questions[0].Media[0].Src)

	require.NoError(t, h.engine.Select(ctx, "m1", "paris"))
	review, err := h.engine.ToggleReview(ctx)
	require.NoError(t, err)
	require.True(t, review)

	view, err = h.engine.Current()
	require.NoError(t, err)
	require.NotNil(t, view.Evaluation)
	assert.True(t, view.Evaluation.Silent)
	assert.False(t, view.Evaluation.Matched)
	assert.Equal(t, []models.ID{"paris"}, view.Selected)
	assert.Zero(t, h.state(t).Score)
}

func TestEngine_Summary(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.load(t, scenarioDocument())

	require.NoError(t, h.engine.Select(ctx, "q1", "b"))
	require.NoError(t, h.engine.Finish(ctx))

	summary, err := h.engine.Summary()
	require.NoError(t, err)
	assert.Equal(t, "Scenario", summary.Title)
	assert.Equal(t, "Testing", summary.Subject)
	assert.Equal(t, 2, summary.QuestionCount)
	assert.Equal(t, 1, summary.AnsweredCount)
	assert.Equal(t, 3.0, summary.TotalPoints)
	assert.Zero(t, summary.Score)
	assert.False(t, summary.Perfect)
	require.Len(t, summary.Items, 2)

	first := summary.Items[0]
	assert.Equal(t, models.ID("q1"), first.QuestionID)
	assert.False(t, first.Correct)
	assert.Equal(t, []models.ID{"b"}, first.Selected)
	assert.Equal(t, []models.ID{"a"}, first.CorrectIDs)
	assert.Equal(t, []string{"Option b"}, first.SelectedText)
	assert.Equal(t, []string{"Option a"}, first.CorrectText)
	assert.False(t, summary.Items[1].Answered)
}

func TestEngine_Events(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.load(t, scenarioDocument())

	require.NoError(t, h.engine.Select(ctx, "q1", "a"))
	_, err := h.engine.Evaluate(ctx, "q1", false)
	require.NoError(t, err)
	_, err = h.engine.Evaluate(ctx, "q1", true)
	require.NoError(t, err)

	loaded := h.publisher.EventsOfType(events.EventQuizLoaded)
	require.Len(t, loaded, 1)
	assert.Equal(t, events.QuizLoadedEvent{QuizID: "scenario", Title: "Scenario", QuestionCount: 2}, loaded[0].Data)

	evaluated := h.publisher.EventsOfType(events.EventAnswerEvaluated)
	require.Len(t, evaluated, 1, "silent checks are not published")
	assert.Equal(t, events.AnswerEvaluatedEvent{QuizID: "scenario", QuestionID: "q1", Matched: true, Awarded: 1, Score: 1}, evaluated[0].Data)
	assert.NotEmpty(t, evaluated[0].ID)
}

func TestEngine_ConcurrentOperations(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.load(t, fiveQuestionDocument())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				assert.NoError(t, h.engine.Load(ctx, DocumentSource(fiveQuestionDocument())))
				return
			}
			assert.NoError(t, h.engine.Select(ctx, "q1", "a"))
			_, err := h.engine.Evaluate(ctx, "q1", false)
			assert.NoError(t, err)
			assert.NoError(t, h.engine.Advance(ctx))
		}(i)
	}
	wg.Wait()

	state := h.state(t)
	assert.LessOrEqual(t, state.Score, 1.0)
	assert.GreaterOrEqual(t, state.Position, 0)
	assert.Less(t, state.Position, 5)
}
