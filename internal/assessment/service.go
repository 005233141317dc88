// Package assessment exposes the session operations of the analysis
// pipeline: starting a session, sequencing questions, recording answers and
// completing the session with a persisted analysis result.
package assessment

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/assessment-cli/internal/analyzer"
	"github.com/sells-group/assessment-cli/internal/catalog"
	"github.com/sells-group/assessment-cli/internal/contradiction"
	"github.com/sells-group/assessment-cli/internal/flow"
	"github.com/sells-group/assessment-cli/internal/inference"
	"github.com/sells-group/assessment-cli/internal/model"
	"github.com/sells-group/assessment-cli/internal/monitoring"
	"github.com/sells-group/assessment-cli/internal/recommend"
	"github.com/sells-group/assessment-cli/internal/scoring"
	"github.com/sells-group/assessment-cli/internal/store"
)

// Components are the stateless pipeline stages a Service runs.
type Components struct {
	Flow        *flow.Engine
	Aggregator  *inference.Aggregator
	Normalizer  *scoring.Normalizer
	Detector    *contradiction.Detector
	Synthesizer *recommend.Synthesizer
}

// DefaultComponents returns the built-in rule tables, panel and scoring
// configuration.
func DefaultComponents() Components {
	return Components{
		Flow:        flow.NewEngine(flow.DefaultRules()),
		Aggregator:  inference.NewAggregator(analyzer.DefaultPanel()),
		Normalizer:  scoring.NewNormalizer(scoring.DefaultConfig()),
		Detector:    contradiction.NewDetector(contradiction.DefaultRules()),
		Synthesizer: recommend.NewSynthesizer(),
	}
}

// withDefaults fills nil stages from DefaultComponents.
func (c Components) withDefaults() Components {
	def := DefaultComponents()
	if c.Flow == nil {
		c.Flow = def.Flow
	}
	if c.Aggregator == nil {
		c.Aggregator = def.Aggregator
	}
	if c.Normalizer == nil {
		c.Normalizer = def.Normalizer
	}
	if c.Detector == nil {
		c.Detector = def.Detector
	}
	if c.Synthesizer == nil {
		c.Synthesizer = def.Synthesizer
	}
	return c
}

// NewSession describes a session to create.
type NewSession struct {
	CompanyID string
	UserID    string
	Type      string
	Context   model.SessionContext
}

// Service runs assessment sessions against a catalog and a store. Ownership
// checks happen before any call reaches it.
type Service struct {
	catalog catalog.Provider
	store   store.Store
	comps   Components
	now     func() time.Time
}

// New creates a Service. Nil components fall back to the defaults.
func New(cat catalog.Provider, st store.Store, comps Components) *Service {
	return &Service{
		catalog: cat,
		store:   st,
		comps:   comps.withDefaults(),
		now:     time.Now,
	}
}

// WithClock replaces the clock used for session timestamps.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

// StartSession creates a session that is already in progress and returns
// its ID.
func (s *Service) StartSession(ctx context.Context, companyID, userID, sector string) (string, error) {
	sess, err := s.Start(ctx, NewSession{
		CompanyID: companyID,
		UserID:    userID,
		Context:   model.SessionContext{Sector: sector},
	})
	if err != nil {
		return "", err
	}
	return sess.ID, nil
}

// Start creates an in-progress session in a single write.
func (s *Service) Start(ctx context.Context, ns NewSession) (*model.AssessmentSession, error) {
	if ns.Type == "" {
		ns.Type = "full"
	}
	sess := model.AssessmentSession{
		CompanyID: ns.CompanyID,
		UserID:    ns.UserID,
		Type:      ns.Type,
		Context:   ns.Context,
	}
	if err := s.start(&sess, nil); err != nil {
		return nil, err
	}

	created, err := s.store.CreateSession(ctx, sess)
	if err != nil {
		return nil, eris.Wrap(err, "assessment: create session")
	}
	monitoring.SessionTransitions.WithLabelValues(string(model.SessionInProgress)).Inc()

	zap.L().Info("assessment: session started",
		zap.String("session_id", created.ID),
		zap.String("company_id", created.CompanyID),
		zap.String("sector", created.Context.Sector),
		zap.Int("total", created.TotalCount),
	)
	return created, nil
}

// CreateDraft stores a session in the draft state.
func (s *Service) CreateDraft(ctx context.Context, ns NewSession) (*model.AssessmentSession, error) {
	if ns.Type == "" {
		ns.Type = "full"
	}
	sess, err := s.store.CreateSession(ctx, model.AssessmentSession{
		CompanyID: ns.CompanyID,
		UserID:    ns.UserID,
		Type:      ns.Type,
		Status:    model.SessionDraft,
		Context:   ns.Context,
	})
	if err != nil {
		return nil, eris.Wrap(err, "assessment: create draft")
	}
	monitoring.SessionTransitions.WithLabelValues(string(model.SessionDraft)).Inc()
	return sess, nil
}

// Begin moves a draft session to in progress.
func (s *Service) Begin(ctx context.Context, id string) (*model.AssessmentSession, error) {
	sess, err := s.store.UpdateSession(ctx, id, func(sess *model.AssessmentSession, answers []model.Answer) error {
		return s.start(sess, answers)
	})
	if err != nil {
		return nil, err
	}
	monitoring.SessionTransitions.WithLabelValues(string(model.SessionInProgress)).Inc()
	return sess, nil
}

func (s *Service) start(sess *model.AssessmentSession, answers []model.Answer) error {
	if err := sess.Start(s.clock()); err != nil {
		return err
	}
	answered, total := s.progress(sess.Context.Sector, answers)
	return sess.Advance(sess.CurrentQuestionID, answered, total)
}

// GetSession returns a session by ID.
func (s *Service) GetSession(ctx context.Context, id string) (*model.AssessmentSession, error) {
	return s.store.GetSession(ctx, id)
}

// ListSessions returns sessions matching filter.
func (s *Service) ListSessions(ctx context.Context, filter store.SessionFilter) ([]model.AssessmentSession, error) {
	return s.store.ListSessions(ctx, filter)
}

// Answers returns the stored answers of a session.
func (s *Service) Answers(ctx context.Context, id string) ([]model.Answer, error) {
	if _, err := s.store.GetSession(ctx, id); err != nil {
		return nil, err
	}
	return s.store.GetAnswers(ctx, id)
}

// NextQuestion returns the next question for an in-progress session, or nil
// when every candidate has been answered or skipped. A nil result leaves
// the session unchanged.
func (s *Service) NextQuestion(ctx context.Context, id string) (*model.Question, error) {
	sess, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Status != model.SessionInProgress {
		return nil, eris.Wrapf(model.ErrInvalidSessionState, "session %s is %s", id, sess.Status)
	}

	answers, err := s.store.GetAnswers(ctx, id)
	if err != nil {
		return nil, err
	}
	sector := sess.Context.Sector
	return s.comps.Flow.Next(s.catalog.ActiveQuestions(sector), model.NewAnswerSet(answers), sess.CurrentQuestionID, sector), nil
}

// SubmitAnswer validates and stores an answer, then advances the session in
// the same transaction. Re-submitting a question overwrites its answer.
func (s *Service) SubmitAnswer(ctx context.Context, id, questionID string, value any) error {
	q, err := s.question(questionID)
	if err != nil {
		return err
	}
	normalized, err := model.NormalizeValue(*q, value)
	if err != nil {
		return err
	}

	err = s.record(ctx, q, model.Answer{
		SessionID:  id,
		QuestionID: questionID,
		Value:      value,
		Normalized: normalized,
		Confidence: 1,
		Source:     model.AnswerSourceUser,
		AnsweredAt: s.clock(),
	})
	if err != nil {
		return err
	}
	monitoring.AnswersSubmitted.WithLabelValues("answered").Inc()
	return nil
}

// SkipQuestion records an optional question as skipped. Required questions
// cannot be skipped.
func (s *Service) SkipQuestion(ctx context.Context, id, questionID, reason string) error {
	q, err := s.question(questionID)
	if err != nil {
		return err
	}
	if q.Required {
		return eris.Wrapf(model.ErrInvalidAnswer, "question %s is required and cannot be skipped", questionID)
	}

	err = s.record(ctx, q, model.Answer{
		SessionID:  id,
		QuestionID: questionID,
		Confidence: 1,
		Source:     model.AnswerSourceUser,
		Skipped:    true,
		SkipReason: reason,
		AnsweredAt: s.clock(),
	})
	if err != nil {
		return err
	}
	monitoring.AnswersSubmitted.WithLabelValues("skipped").Inc()
	return nil
}

func (s *Service) question(questionID string) (*model.Question, error) {
	q, ok := s.catalog.QuestionByID(questionID)
	if !ok {
		return nil, eris.Wrapf(model.ErrQuestionNotFound, "question %s", questionID)
	}
	return q, nil
}

func (s *Service) record(ctx context.Context, q *model.Question, answer model.Answer) error {
	_, err := s.store.SaveAnswer(ctx, answer, func(sess *model.AssessmentSession, answers []model.Answer) error {
		if sess.Status != model.SessionInProgress {
			return eris.Wrapf(model.ErrInvalidSessionState, "session %s is %s", sess.ID, sess.Status)
		}
		sector := sess.Context.Sector
		if !q.AppliesTo(sector) || s.comps.Flow.Excluded(sector, q.Category) {
			return eris.Wrapf(model.ErrQuestionNotFound, "question %s does not apply to sector %s", q.ID, sector)
		}
		answered, total := s.progress(sector, answers)
		return sess.Advance(q.ID, answered, total)
	})
	return err
}

func (s *Service) progress(sector string, answers []model.Answer) (answered, total int) {
	return s.comps.Flow.Progress(s.catalog.ActiveQuestions(sector), model.NewAnswerSet(answers), sector)
}

// CompleteSession runs the full pipeline over the session's answers, marks
// the session completed and appends the analysis result, all in one store
// transaction. Analyzer failures are recorded on the result.
func (s *Service) CompleteSession(ctx context.Context, id string) (*model.AnalysisResult, error) {
	sess, result, err := s.store.CompleteSession(ctx, id, func(sess *model.AssessmentSession, answers []model.Answer) (*model.AnalysisResult, error) {
		if sess.Status != model.SessionInProgress {
			return nil, eris.Wrapf(model.ErrInvalidSessionState, "session %s: %s -> %s", sess.ID, sess.Status, model.SessionCompleted)
		}
		res, err := s.Analyze(ctx, model.NewAnswerSet(answers), sess.Context)
		if err != nil {
			return nil, err
		}
		res.SessionID = sess.ID
		if err := sess.Complete(s.clock()); err != nil {
			return nil, err
		}
		return res, nil
	})
	if err != nil {
		return nil, err
	}

	monitoring.SessionTransitions.WithLabelValues(string(model.SessionCompleted)).Inc()
	monitoring.AnalysisResults.WithLabelValues("complete").Inc()
	zap.L().Info("assessment: session completed",
		zap.String("session_id", sess.ID),
		zap.Float64("composite", result.Score.Composite),
		zap.String("maturity", string(result.Score.Maturity)),
		zap.Int("alerts", len(result.Alerts)),
		zap.Int("failed_analyzers", len(result.Analyzers.Failed)),
	)
	return result, nil
}

// AbandonSession ends a draft or in-progress session.
func (s *Service) AbandonSession(ctx context.Context, id string) error {
	_, err := s.store.UpdateSession(ctx, id, func(sess *model.AssessmentSession, _ []model.Answer) error {
		return sess.Abandon(s.clock())
	})
	if err != nil {
		return err
	}
	monitoring.SessionTransitions.WithLabelValues(string(model.SessionAbandoned)).Inc()
	return nil
}

// Reanalyze re-runs the pipeline for a completed session and appends a new
// result. Earlier results are kept.
func (s *Service) Reanalyze(ctx context.Context, id string) (*model.AnalysisResult, error) {
	sess, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Status != model.SessionCompleted {
		return nil, eris.Wrapf(model.ErrInvalidSessionState, "session %s is %s, not completed", id, sess.Status)
	}
	answers, err := s.store.GetAnswers(ctx, id)
	if err != nil {
		return nil, err
	}

	res, err := s.Analyze(ctx, model.NewAnswerSet(answers), sess.Context)
	if err != nil {
		return nil, err
	}
	res.SessionID = id
	if err := s.store.AppendAnalysisResult(ctx, res); err != nil {
		return nil, err
	}
	monitoring.AnalysisResults.WithLabelValues("reanalyze").Inc()
	return res, nil
}

// LatestResult returns the most recent analysis result of a session.
func (s *Service) LatestResult(ctx context.Context, id string) (*model.AnalysisResult, error) {
	return s.store.LatestAnalysisResult(ctx, id)
}

// Results returns every analysis result of a session, oldest first.
func (s *Service) Results(ctx context.Context, id string) ([]model.AnalysisResult, error) {
	return s.store.ListAnalysisResults(ctx, store.ResultFilter{SessionID: id})
}

// Analyze runs the pipeline over an answer set without touching the store:
// the analyzer panel, contradiction detection, scoring and recommendation
// synthesis.
func (s *Service) Analyze(ctx context.Context, answers model.AnswerSet, sctx model.SessionContext) (*model.AnalysisResult, error) {
	res, err := s.comps.Aggregator.Run(ctx, answers, sctx)
	if err != nil {
		return nil, err
	}
	res.Alerts = append(res.Alerts, s.comps.Detector.Detect(answers)...)
	res.Score = s.comps.Normalizer.Score(res.Dimensions)
	res.Recommendations = s.comps.Synthesizer.Generate(res)
	res.CreatedAt = s.clock()
	return res, nil
}
