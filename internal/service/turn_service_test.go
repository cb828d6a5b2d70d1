package service

import (
	"careerchat/internal/assessment"
	"careerchat/internal/cache"
	"careerchat/internal/model"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fullRun = []model.AnswerType{
	model.AnswerTypeText,
	model.AnswerTypeMultipleChoice,
	model.AnswerTypeMultipleChoice,
	model.AnswerTypeMultipleChoice,
	model.AnswerTypeRanking,
	model.AnswerTypeMultipleChoice,
	model.AnswerTypeRanking,
	model.AnswerTypeMultipleChoice,
	model.AnswerTypeMultipleChoice,
	model.AnswerTypeText,
}

// scriptedGenerator answers with the required type unless a script entry overrides it
type scriptedGenerator struct {
	mu     sync.Mutex
	calls  int
	script []func(req GenerationRequest) (*model.Answer, error)
}

func (g *scriptedGenerator) Name() string { return "scripted" }

func (g *scriptedGenerator) Generate(ctx context.Context, req GenerationRequest) (*model.Answer, error) {
	g.mu.Lock()
	call := g.calls
	g.calls++
	var step func(req GenerationRequest) (*model.Answer, error)
	if call < len(g.script) {
		step = g.script[call]
	}
	g.mu.Unlock()

	if step != nil {
		return step(req)
	}
	return &model.Answer{Type: req.Required, Payload: model.AnswerPayload{Text: "ok"}}, nil
}

func (g *scriptedGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func wrongType(t model.AnswerType) func(GenerationRequest) (*model.Answer, error) {
	return func(GenerationRequest) (*model.Answer, error) {
		return &model.Answer{Type: t}, nil
	}
}

type memTranscripts struct {
	mu      sync.Mutex
	entries map[string][]model.TranscriptEntry
}

func newMemTranscripts() *memTranscripts {
	return &memTranscripts{entries: make(map[string][]model.TranscriptEntry)}
}

func (m *memTranscripts) Append(ctx context.Context, e *model.TranscriptEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[e.SessionID] = append(m.entries[e.SessionID], *e)
	return nil
}

func (m *memTranscripts) ListBySession(ctx context.Context, id string) ([]model.TranscriptEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]model.TranscriptEntry(nil), m.entries[id]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

func (m *memTranscripts) DeleteBySession(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}

func (m *memTranscripts) EnsureIndexes(ctx context.Context) error { return nil }

type memResults struct {
	mu      sync.Mutex
	results map[string]*model.AssessmentResult
}

func newMemResults() *memResults {
	return &memResults{results: make(map[string]*model.AssessmentResult)}
}

func (m *memResults) Upsert(ctx context.Context, r *model.AssessmentResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[r.SessionID] = r
	return nil
}

func (m *memResults) GetBySession(ctx context.Context, id string) (*model.AssessmentResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.results[id], nil
}

func (m *memResults) DeleteBySession(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.results, id)
	return nil
}

func (m *memResults) EnsureIndexes(ctx context.Context) error { return nil }

type recordingBroadcaster struct {
	mu           sync.Mutex
	events       []string
	disconnected []string
}

func (b *recordingBroadcaster) BroadcastToSession(id string, msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, msgType)
}

func (b *recordingBroadcaster) DisconnectSession(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.disconnected = append(b.disconnected, id)
}

type fixture struct {
	coord       *TurnCoordinator
	sessions    *SessionGateway
	gen         *scriptedGenerator
	transcripts *memTranscripts
	results     *memResults
	events      *recordingBroadcaster
}

func newFixture(t *testing.T, maxAttempts int) *fixture {
	t.Helper()
	engine := assessment.NewEngine(assessment.DefaultCatalog())
	gateway := NewSessionGateway(cache.NewMemorySessionCache(time.Hour), cache.NewMemorySessionCache(time.Hour), engine, zap.NewNop())
	gen := &scriptedGenerator{}
	coord := NewTurnCoordinator(engine, gateway, gen, maxAttempts, zap.NewNop())

	f := &fixture{
		coord:       coord,
		sessions:    gateway,
		gen:         gen,
		transcripts: newMemTranscripts(),
		results:     newMemResults(),
		events:      &recordingBroadcaster{},
	}
	coord.SetRepositories(f.transcripts, f.results)
	coord.SetBroadcaster(f.events)
	return f
}

func (f *fixture) session(t *testing.T) string {
	t.Helper()
	view, err := f.coord.CreateSession(context.Background())
	require.NoError(t, err)
	return view.SessionID
}

func submit(t model.AnswerType) model.SubmitAnswerRequest {
	return model.SubmitAnswerRequest{Type: t, Payload: model.AnswerPayload{Text: "answer"}}
}

func TestTurnCoordinator_FullRun(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()
	id := f.session(t)

	for i, typ := range fullRun {
		res, err := f.coord.SubmitAnswer(ctx, id, submit(typ))
		require.NoError(t, err, "turn %d", i+1)
		require.NotNil(t, res.Answer)
		assert.Equal(t, typ, res.Answer.Type)
		assert.Equal(t, i+1, res.State.TotalAnswered)
		if i+1 < len(fullRun) {
			assert.Equal(t, fullRun[i+1], res.Next)
			assert.False(t, res.Complete)
		}
	}

	view, err := f.coord.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.AnswerTypeComplete, view.Next)
	assert.Equal(t, model.SectionSummary, view.State.CurrentSection)
	assert.Equal(t, float64(100), view.Progress.PercentComplete)

	entries, err := f.coord.Transcript(ctx, id)
	require.NoError(t, err)
	require.Len(t, entries, 10)
	for i, e := range entries {
		assert.Equal(t, i+1, e.Sequence)
		assert.Equal(t, fullRun[i], e.Type)
	}
	assert.Equal(t, "introduction", entries[0].Section)
	assert.Equal(t, "careerValues", entries[9].Section)

	result, err := f.coord.Results(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 10, result.TotalAnswered)
	assert.Equal(t, 6, result.TypeCounts[model.AnswerTypeMultipleChoice])
	assert.Equal(t, 2, result.TypeCounts[model.AnswerTypeRanking])
	assert.Equal(t, 2, result.TypeCounts[model.AnswerTypeText])

	assert.Contains(t, f.events.events, EventAssessmentComplete)
	assert.Equal(t, 10, f.gen.Calls())
}

func TestTurnCoordinator_CompleteNeverCallsGenerator(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()
	id := f.session(t)
	for _, typ := range fullRun {
		_, err := f.coord.SubmitAnswer(ctx, id, submit(typ))
		require.NoError(t, err)
	}
	calls := f.gen.Calls()

	res, err := f.coord.SubmitAnswer(ctx, id, model.SubmitAnswerRequest{Payload: model.AnswerPayload{Text: "more"}})
	require.NoError(t, err)
	assert.True(t, res.Complete)
	assert.Nil(t, res.Answer)
	assert.Equal(t, model.AnswerTypeComplete, res.Next)
	assert.Equal(t, 10, res.State.TotalAnswered)
	assert.Equal(t, calls, f.gen.Calls())
}

func TestTurnCoordinator_ContractViolationLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()
	id := f.session(t)

	_, err := f.coord.SubmitAnswer(ctx, id, submit(model.AnswerTypeText))
	require.NoError(t, err)
	before, err := f.coord.GetSession(ctx, id)
	require.NoError(t, err)
	beforeJSON, err := json.Marshal(before.State)
	require.NoError(t, err)

	f.gen.script = make([]func(GenerationRequest) (*model.Answer, error), f.gen.Calls()+3)
	for i := f.gen.Calls(); i < len(f.gen.script); i++ {
		f.gen.script[i] = wrongType(model.AnswerTypeText)
	}

	_, err = f.coord.SubmitAnswer(ctx, id, model.SubmitAnswerRequest{Payload: model.AnswerPayload{OptionID: "a"}})
	var contractErr *GenerationContractError
	require.ErrorAs(t, err, &contractErr)
	assert.Equal(t, model.AnswerTypeMultipleChoice, contractErr.Required)
	assert.Equal(t, model.AnswerTypeText, contractErr.Got)
	assert.Equal(t, 3, contractErr.Attempts)
	assert.Equal(t, 4, f.gen.Calls())

	after, err := f.coord.GetSession(ctx, id)
	require.NoError(t, err)
	afterJSON, err := json.Marshal(after.State)
	require.NoError(t, err)
	assert.JSONEq(t, string(beforeJSON), string(afterJSON))

	entries, err := f.coord.Transcript(ctx, id)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestTurnCoordinator_RetryThenSuccess(t *testing.T) {
	f := newFixture(t, 3)
	id := f.session(t)
	f.gen.script = []func(GenerationRequest) (*model.Answer, error){
		wrongType(model.AnswerTypeRanking),
		func(GenerationRequest) (*model.Answer, error) { return nil, errors.New("bad json") },
	}

	res, err := f.coord.SubmitAnswer(context.Background(), id, model.SubmitAnswerRequest{Payload: model.AnswerPayload{Text: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, 3, f.gen.Calls())
	assert.Equal(t, model.AnswerTypeText, res.Answer.Type)
	assert.Equal(t, 1, res.State.TotalAnswered)
}

func TestTurnCoordinator_GeneratorErrorsExhaustAttempts(t *testing.T) {
	f := newFixture(t, 2)
	id := f.session(t)
	boom := errors.New("upstream unavailable")
	fail := func(GenerationRequest) (*model.Answer, error) { return nil, boom }
	f.gen.script = []func(GenerationRequest) (*model.Answer, error){fail, fail}

	_, err := f.coord.SubmitAnswer(context.Background(), id, submit(model.AnswerTypeText))
	var contractErr *GenerationContractError
	require.ErrorAs(t, err, &contractErr)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 2, contractErr.Attempts)
}

func TestTurnCoordinator_ClientTypeMismatch(t *testing.T) {
	f := newFixture(t, 3)
	id := f.session(t)

	_, err := f.coord.SubmitAnswer(context.Background(), id, submit(model.AnswerTypeRanking))
	var mismatch *assessment.TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, model.AnswerTypeText, mismatch.Required)
	assert.Equal(t, 0, f.gen.Calls())

	_, err = f.coord.SubmitAnswer(context.Background(), id, submit("essay"))
	require.ErrorIs(t, err, ErrInvalidAnswer)
}

func TestTurnCoordinator_CancelledGenerationAborts(t *testing.T) {
	f := newFixture(t, 3)
	id := f.session(t)

	ctx, cancel := context.WithCancel(context.Background())
	f.gen.script = []func(GenerationRequest) (*model.Answer, error){
		func(GenerationRequest) (*model.Answer, error) {
			cancel()
			return &model.Answer{Type: model.AnswerTypeText}, nil
		},
	}

	_, err := f.coord.SubmitAnswer(ctx, id, submit(model.AnswerTypeText))
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, f.gen.Calls())

	view, err := f.coord.GetSession(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 0, view.State.TotalAnswered)

	// The same turn can be retried safely.
	res, err := f.coord.SubmitAnswer(context.Background(), id, submit(model.AnswerTypeText))
	require.NoError(t, err)
	assert.Equal(t, 1, res.State.TotalAnswered)
}

func TestTurnCoordinator_DuplicateTurnIDAppliesOnce(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()
	id := f.session(t)

	req := submit(model.AnswerTypeText)
	req.ClientTurnID = "turn-1"

	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		duplicates int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.coord.SubmitAnswer(ctx, id, req)
			if !assert.NoError(t, err) {
				return
			}
			if res.Duplicate {
				mu.Lock()
				duplicates++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	view, err := f.coord.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, view.State.TotalAnswered)
	assert.Equal(t, 7, duplicates)
	assert.Equal(t, 1, f.gen.Calls())
}

func TestTurnCoordinator_ConcurrentTurnsKeepInvariants(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()
	id := f.session(t)

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := model.SubmitAnswerRequest{ClientTurnID: fmt.Sprintf("t%d", i)}
			_, err := f.coord.SubmitAnswer(ctx, id, req)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	view, err := f.coord.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 6, view.State.TotalAnswered)
	assert.True(t, f.coord.Engine().Validate(view.State).OK())
}

func TestTurnCoordinator_ResetAndDelete(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()
	id := f.session(t)

	require.NoError(t, f.coord.SetPersona(ctx, id, json.RawMessage(`{"archetype":"explorer"}`)))
	for _, typ := range fullRun[:7] {
		_, err := f.coord.SubmitAnswer(ctx, id, submit(typ))
		require.NoError(t, err)
	}

	view, err := f.coord.Reset(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, view.State.TotalAnswered)
	assert.Equal(t, "introduction", view.State.CurrentSection)
	assert.Equal(t, model.AnswerTypeText, view.Next)
	assert.JSONEq(t, `{"archetype":"explorer"}`, string(view.Persona))
	for _, n := range view.State.SectionCounts {
		assert.Zero(t, n)
	}
	for _, n := range view.State.TypeCounts {
		assert.Zero(t, n)
	}
	assert.Contains(t, f.events.events, EventAssessmentReset)

	entries, err := f.coord.Transcript(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = f.coord.Results(ctx, id)
	require.ErrorIs(t, err, ErrNotComplete)

	require.NoError(t, f.coord.Delete(ctx, id))
	assert.Equal(t, []string{id}, f.events.disconnected)
}

func TestTurnCoordinator_SetPersonaRejectsInvalidJSON(t *testing.T) {
	f := newFixture(t, 3)
	id := f.session(t)
	err := f.coord.SetPersona(context.Background(), id, json.RawMessage(`{nope`))
	require.ErrorIs(t, err, ErrInvalidAnswer)
}

func TestTurnCoordinator_HistoryPassedToGenerator(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()
	id := f.session(t)

	var seen []int
	record := func(req GenerationRequest) (*model.Answer, error) {
		seen = append(seen, len(req.History))
		return &model.Answer{Type: req.Required}, nil
	}
	f.gen.script = []func(GenerationRequest) (*model.Answer, error){record, record, record}

	for _, typ := range fullRun[:3] {
		_, err := f.coord.SubmitAnswer(ctx, id, submit(typ))
		require.NoError(t, err)
	}
	assert.Equal(t, []int{0, 1, 2}, seen)
}

func TestTurnCoordinator_CorruptStateIsNeverApplied(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()
	id := f.session(t)

	s, err := f.sessions.Load(ctx, id)
	require.NoError(t, err)
	s.Assessment.TotalAnswered = 5
	require.NoError(t, f.sessions.Save(ctx, s))

	_, err = f.coord.SubmitAnswer(ctx, id, submit(model.AnswerTypeText))
	require.ErrorIs(t, err, ErrCorruptState)
	assert.Equal(t, 0, f.gen.Calls())

	_, err = f.coord.GetSession(ctx, id)
	require.ErrorIs(t, err, ErrCorruptState)

	stored, err := f.sessions.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.Assessment.TotalAnswered)
	assert.Equal(t, 0, stored.Assessment.SectionCounts["introduction"])
	entries, err := f.transcripts.ListBySession(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// Reset is the way out of a corrupt state.
	_, err = f.coord.Reset(ctx, id)
	require.NoError(t, err)
	res, err := f.coord.SubmitAnswer(ctx, id, submit(model.AnswerTypeText))
	require.NoError(t, err)
	assert.Equal(t, 1, res.State.TotalAnswered)
}

func TestTurnCoordinator_CreateSessionWhileDurableStoreDown(t *testing.T) {
	ctx := context.Background()
	engine := assessment.NewEngine(assessment.DefaultCatalog())
	durable := &flakyCache{SessionCache: cache.NewMemorySessionCache(time.Hour), failGet: true, failSave: true}
	gateway := NewSessionGateway(durable, cache.NewMemorySessionCache(time.Hour), engine, zap.NewNop())
	coord := NewTurnCoordinator(engine, gateway, &scriptedGenerator{}, 3, zap.NewNop())

	view, err := coord.CreateSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, view)
	assert.Equal(t, model.AnswerTypeText, view.Next)
	assert.True(t, gateway.Degraded(view.SessionID))

	res, err := coord.SubmitAnswer(ctx, view.SessionID, submit(model.AnswerTypeText))
	require.NoError(t, err)
	assert.Equal(t, 1, res.State.TotalAnswered)
	assert.Equal(t, model.AnswerTypeMultipleChoice, res.Next)
}
