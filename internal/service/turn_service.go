package service

import (
	"careerchat/internal/assessment"
	"careerchat/internal/model"
	"careerchat/internal/repository"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidAnswer = errors.New("invalid answer")
	ErrNotComplete   = errors.New("assessment not complete")
	// ErrCorruptState means a loaded assessment broke an invariant and was not used
	ErrCorruptState = errors.New("stored assessment state is inconsistent")
)

// TurnCoordinator runs one answer turn at a time per session: load, generate, apply, save
type TurnCoordinator struct {
	engine      *assessment.Engine
	sessions    *SessionGateway
	generator   Generator
	maxAttempts int
	locker      *sessionLocker
	logger      *zap.Logger

	transcripts repository.TranscriptRepo // optional
	results     repository.ResultRepo     // optional
	broadcaster Broadcaster               // optional
	now         func() time.Time
}

// NewTurnCoordinator creates a coordinator. maxAttempts bounds generation retries on a type mismatch.
func NewTurnCoordinator(engine *assessment.Engine, sessions *SessionGateway, generator Generator, maxAttempts int, logger *zap.Logger) *TurnCoordinator {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &TurnCoordinator{
		engine:      engine,
		sessions:    sessions,
		generator:   generator,
		maxAttempts: maxAttempts,
		locker:      newSessionLocker(),
		logger:      logger,
		now:         time.Now,
	}
}

// SetRepositories wires transcript and result persistence. Either may be nil.
func (c *TurnCoordinator) SetRepositories(transcripts repository.TranscriptRepo, results repository.ResultRepo) {
	c.transcripts = transcripts
	c.results = results
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (c *TurnCoordinator) SetBroadcaster(b Broadcaster) {
	c.broadcaster = b
}

// Engine exposes the progression engine, e.g. for the catalog endpoint
func (c *TurnCoordinator) Engine() *assessment.Engine {
	return c.engine
}

// CreateSession stores a new empty session
func (c *TurnCoordinator) CreateSession(ctx context.Context) (*model.SessionView, error) {
	id := uuid.New().String()
	s, err := c.sessions.Create(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	c.logger.Info("session created", zap.String("session_id", id))
	return c.view(s)
}

// GetSession returns the current state and derived progress
func (c *TurnCoordinator) GetSession(ctx context.Context, id string) (*model.SessionView, error) {
	s, err := c.sessions.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.checkState(s); err != nil {
		return nil, err
	}
	return c.view(s)
}

func (c *TurnCoordinator) view(s *model.Session) (*model.SessionView, error) {
	next, err := c.requiredType(s)
	if err != nil {
		return nil, err
	}
	return &model.SessionView{
		SessionID: s.ID,
		State:     s.Assessment,
		Next:      next,
		Progress:  c.engine.Progress(s.Assessment),
		Persona:   s.Persona,
	}, nil
}

// requiredType wraps the engine lookup and reports corrupt state to operators
func (c *TurnCoordinator) requiredType(s *model.Session) (model.AnswerType, error) {
	required, err := c.engine.RequiredType(s.Assessment)
	if err != nil {
		c.reportViolations(s.ID, s.Assessment)
		return "", err
	}
	return required, nil
}

// checkState validates a loaded assessment before anything reads or applies to it
func (c *TurnCoordinator) checkState(s *model.Session) error {
	res := c.engine.Validate(s.Assessment)
	if res.OK() {
		return nil
	}
	c.logViolations(s.ID, res)
	return fmt.Errorf("%w: session %s: %w", ErrCorruptState, s.ID, res.Err())
}

func (c *TurnCoordinator) reportViolations(id string, st model.AssessmentState) {
	c.logViolations(id, c.engine.Validate(st))
}

func (c *TurnCoordinator) logViolations(id string, res assessment.ValidationResult) {
	for _, v := range res.Violations {
		c.logger.Error("assessment invariant violated",
			zap.String("session_id", id),
			zap.String("invariant", v.Invariant),
			zap.String("detail", v.Detail))
	}
}

// SubmitAnswer records one turn for the session
func (c *TurnCoordinator) SubmitAnswer(ctx context.Context, id string, req model.SubmitAnswerRequest) (*model.TurnResult, error) {
	if req.Type != "" && !req.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidAnswer, req.Type)
	}

	unlock, err := c.locker.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	s, err := c.sessions.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.checkState(s); err != nil {
		return nil, err
	}

	if req.ClientTurnID != "" && req.ClientTurnID == s.LastTurnID {
		c.logger.Info("duplicate turn ignored",
			zap.String("session_id", id), zap.String("client_turn_id", req.ClientTurnID))
		res, err := c.result(s, nil)
		if err != nil {
			return nil, err
		}
		res.Duplicate = true
		return res, nil
	}

	required, err := c.requiredType(s)
	if err != nil {
		return nil, err
	}
	if required == model.AnswerTypeComplete {
		return c.result(s, nil)
	}

	section := s.Assessment.CurrentSection
	if req.Type != "" && req.Type != required {
		return nil, &assessment.TypeMismatchError{Section: section, Required: required, Got: req.Type}
	}

	genReq := GenerationRequest{
		SessionID:  id,
		Required:   required,
		SectionKey: section,
		Index:      s.Assessment.SectionCounts[section],
		Submission: req,
		History:    c.history(ctx, id),
		Persona:    s.Persona,
	}
	if sec, ok := c.engine.Catalog().Section(section); ok {
		genReq.SectionTitle = sec.Title
	}

	answer, err := c.generate(ctx, genReq)
	if err != nil {
		return nil, err
	}

	next, err := c.engine.Apply(s.Assessment, *answer)
	if err != nil {
		if errors.Is(err, assessment.ErrAlreadyComplete) {
			return c.result(s, nil)
		}
		c.reportViolations(id, s.Assessment)
		return nil, err
	}

	// The answer is accepted; finish persisting even if the caller goes away now.
	persistCtx := context.WithoutCancel(ctx)

	s.Assessment = next
	s.LastTurnID = req.ClientTurnID
	if err := c.sessions.Save(persistCtx, s); err != nil {
		return nil, fmt.Errorf("save session %s: %w", id, err)
	}

	c.logger.Info("turn recorded",
		zap.String("session_id", id),
		zap.String("section", section),
		zap.String("required_type", string(required)),
		zap.Int("total_answered", next.TotalAnswered))

	c.record(persistCtx, s, section, answer)

	res, err := c.result(s, answer)
	if err != nil {
		return nil, err
	}
	c.broadcast(id, EventProgressUpdate, res)
	if res.Complete {
		c.complete(persistCtx, s)
	}
	return res, nil
}

// generate asks the generator for an answer of the required type, retrying a bounded number
// of times. A mismatched answer is never returned; cancellation aborts at once.
func (c *TurnCoordinator) generate(ctx context.Context, req GenerationRequest) (*model.Answer, error) {
	contractErr := &GenerationContractError{SessionID: req.SessionID, Required: req.Required}

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		req.Attempt = attempt
		contractErr.Attempts = attempt

		answer, err := c.generator.Generate(ctx, req)
		if ctxErr := ctx.Err(); ctxErr != nil {
			c.logger.Info("turn aborted",
				zap.String("session_id", req.SessionID), zap.Int("attempt", attempt), zap.Error(ctxErr))
			return nil, ctxErr
		}
		if err != nil {
			contractErr.Err = err
			contractErr.Got = ""
			c.logger.Warn("generation failed",
				zap.String("session_id", req.SessionID),
				zap.String("section", req.SectionKey),
				zap.String("required_type", string(req.Required)),
				zap.Int("attempt", attempt),
				zap.Error(err))
			continue
		}
		if answer == nil || answer.Type != req.Required {
			contractErr.Err = nil
			if answer != nil {
				contractErr.Got = answer.Type
			}
			c.logger.Warn("generator returned wrong answer type",
				zap.String("session_id", req.SessionID),
				zap.String("section", req.SectionKey),
				zap.String("required_type", string(req.Required)),
				zap.String("got_type", string(contractErr.Got)),
				zap.Int("attempt", attempt))
			continue
		}
		return answer, nil
	}

	return nil, contractErr
}

func (c *TurnCoordinator) history(ctx context.Context, id string) []model.TranscriptEntry {
	if c.transcripts == nil {
		return nil
	}
	entries, err := c.transcripts.ListBySession(ctx, id)
	if err != nil {
		c.logger.Warn("transcript read failed", zap.String("session_id", id), zap.Error(err))
		return nil
	}
	return entries
}

func (c *TurnCoordinator) record(ctx context.Context, s *model.Session, section string, answer *model.Answer) {
	if c.transcripts == nil {
		return
	}
	entry := &model.TranscriptEntry{
		SessionID:  s.ID,
		Sequence:   s.Assessment.TotalAnswered,
		Section:    section,
		Type:       answer.Type,
		Payload:    answer.Payload,
		RecordedAt: c.now().UTC(),
	}
	if err := c.transcripts.Append(ctx, entry); err != nil {
		c.logger.Warn("transcript write failed", zap.String("session_id", s.ID), zap.Error(err))
	}
}

func (c *TurnCoordinator) complete(ctx context.Context, s *model.Session) {
	result := c.summarize(s)
	if c.results != nil {
		if err := c.results.Upsert(ctx, result); err != nil {
			c.logger.Warn("result write failed", zap.String("session_id", s.ID), zap.Error(err))
		}
	}
	c.logger.Info("assessment complete", zap.String("session_id", s.ID))
	c.broadcast(s.ID, EventAssessmentComplete, result)
}

func (c *TurnCoordinator) summarize(s *model.Session) *model.AssessmentResult {
	st := s.Assessment.Clone()
	return &model.AssessmentResult{
		SessionID:     s.ID,
		SectionCounts: st.SectionCounts,
		TypeCounts:    st.TypeCounts,
		TotalAnswered: st.TotalAnswered,
		Persona:       s.Persona,
		CompletedAt:   c.now().UTC(),
	}
}

func (c *TurnCoordinator) result(s *model.Session, answer *model.Answer) (*model.TurnResult, error) {
	next, err := c.requiredType(s)
	if err != nil {
		return nil, err
	}
	return &model.TurnResult{
		Answer:   answer,
		State:    s.Assessment,
		Next:     next,
		Progress: c.engine.Progress(s.Assessment),
		Complete: next == model.AnswerTypeComplete,
	}, nil
}

func (c *TurnCoordinator) broadcast(id, event string, payload interface{}) {
	if c.broadcaster != nil {
		c.broadcaster.BroadcastToSession(id, event, payload)
	}
}

// Reset puts the session back to the initial state. Persona is kept.
func (c *TurnCoordinator) Reset(ctx context.Context, id string) (*model.SessionView, error) {
	unlock, err := c.locker.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	s, err := c.sessions.Reset(ctx, id)
	if err != nil {
		return nil, err
	}
	c.purge(ctx, id)

	view, err := c.view(s)
	if err != nil {
		return nil, err
	}
	c.logger.Info("session reset", zap.String("session_id", id))
	c.broadcast(id, EventAssessmentReset, view)
	return view, nil
}

// Delete removes the session with its transcript and result, and drops live connections
func (c *TurnCoordinator) Delete(ctx context.Context, id string) error {
	unlock, err := c.locker.Lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	if err := c.sessions.Delete(ctx, id); err != nil {
		return err
	}
	c.purge(ctx, id)
	if c.broadcaster != nil {
		c.broadcaster.DisconnectSession(id)
	}
	c.logger.Info("session deleted", zap.String("session_id", id))
	return nil
}

func (c *TurnCoordinator) purge(ctx context.Context, id string) {
	if c.transcripts != nil {
		if err := c.transcripts.DeleteBySession(ctx, id); err != nil {
			c.logger.Warn("transcript delete failed", zap.String("session_id", id), zap.Error(err))
		}
	}
	if c.results != nil {
		if err := c.results.DeleteBySession(ctx, id); err != nil {
			c.logger.Warn("result delete failed", zap.String("session_id", id), zap.Error(err))
		}
	}
}

// SetPersona stores the opaque persona document on the session
func (c *TurnCoordinator) SetPersona(ctx context.Context, id string, persona json.RawMessage) error {
	if len(persona) == 0 || !json.Valid(persona) {
		return fmt.Errorf("%w: persona must be a JSON document", ErrInvalidAnswer)
	}

	unlock, err := c.locker.Lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	s, err := c.sessions.Load(ctx, id)
	if err != nil {
		return err
	}
	s.Persona = append(json.RawMessage(nil), persona...)
	return c.sessions.Save(ctx, s)
}

// Results returns the stored summary of a completed assessment
func (c *TurnCoordinator) Results(ctx context.Context, id string) (*model.AssessmentResult, error) {
	if c.results != nil {
		res, err := c.results.GetBySession(ctx, id)
		if err != nil {
			c.logger.Warn("result read failed", zap.String("session_id", id), zap.Error(err))
		} else if res != nil {
			return res, nil
		}
	}

	s, err := c.sessions.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.engine.IsComplete(s.Assessment) {
		return nil, ErrNotComplete
	}
	res := c.summarize(s)
	res.CompletedAt = s.UpdatedAt
	return res, nil
}

// Transcript returns the recorded turns, oldest first
func (c *TurnCoordinator) Transcript(ctx context.Context, id string) ([]model.TranscriptEntry, error) {
	if c.transcripts == nil {
		return []model.TranscriptEntry{}, nil
	}
	entries, err := c.transcripts.ListBySession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list transcript %s: %w", id, err)
	}
	if entries == nil {
		entries = []model.TranscriptEntry{}
	}
	return entries, nil
}
