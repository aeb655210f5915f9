package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"sahayak/internal/cache"
	"sahayak/internal/classifier"
	"sahayak/internal/extract"
	"sahayak/internal/model"
	"sahayak/internal/repository"
	"sahayak/internal/resources"
)

var (
	ErrSOSNotFound      = errors.New("sos request not found")
	ErrNotOwner         = errors.New("sos request belongs to another teacher")
	ErrPlaybookNotFound = errors.New("playbook not found")
)

// Detached processing must finish well before this; the Gemini client carries
// its own, much shorter, HTTP timeout.
const defaultProcessTimeout = 2 * time.Minute

var languageNames = map[string]string{
	"en": "English",
	"hi": "Hindi",
	"kn": "Kannada",
}

// PedagogyService runs the SOS pipeline: classify, check the cache, generate,
// extract, merge resources, persist, and advance the request lifecycle.
type PedagogyService struct {
	sosRepo      repository.SOSRepo
	playbookRepo repository.PlaybookRepo
	memoryRepo   repository.MemoryRepo
	classifier   *classifier.Engine
	generator    *GeminiService
	provider     *resources.StaticProvider
	cache        cache.PlaybookCache
	broadcaster  Broadcaster
	logger       *zap.Logger

	processTimeout time.Duration
}

// NewPedagogyService wires the pipeline collaborators together.
func NewPedagogyService(
	sosRepo repository.SOSRepo,
	playbookRepo repository.PlaybookRepo,
	memoryRepo repository.MemoryRepo,
	engine *classifier.Engine,
	generator *GeminiService,
	provider *resources.StaticProvider,
	playbookCache cache.PlaybookCache,
	logger *zap.Logger,
) *PedagogyService {
	return &PedagogyService{
		sosRepo:        sosRepo,
		playbookRepo:   playbookRepo,
		memoryRepo:     memoryRepo,
		classifier:     engine,
		generator:      generator,
		provider:       provider,
		cache:          playbookCache,
		logger:         logger,
		processTimeout: defaultProcessTimeout,
	}
}

// SetBroadcaster attaches the WebSocket broadcaster (called after hub creation
// to avoid circular dependency)
func (s *PedagogyService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Submit stores a new SOS request and kicks off processing in the background.
// It returns the request id immediately; progress is delivered over the
// status stream.
func (s *PedagogyService) Submit(ctx context.Context, req *model.SOSRequest) (string, error) {
	applyInputDefaults(req)

	id, err := s.sosRepo.Create(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create sos request: %w", err)
	}

	s.notify(id, "status", map[string]interface{}{"status": string(model.SOSPending)})
	s.logger.Info("sos request accepted", zap.String("sosId", id), zap.String("teacherId", req.TeacherID))

	go func(sosID string) {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("recovered from panic in sos processing",
					zap.String("sosId", sosID), zap.Any("panic", r))
			}
		}()
		pctx, cancel := context.WithTimeout(context.Background(), s.processTimeout)
		defer cancel()
		s.process(pctx, sosID)
	}(id)

	return id, nil
}

// SubmitAndWait stores a new SOS request and processes it inline, returning
// the resolved request and its playbook. Used by the quick endpoint, which
// delivers the playbook in the response body instead of over the stream.
func (s *PedagogyService) SubmitAndWait(ctx context.Context, req *model.SOSRequest) (*model.SOSRequest, *model.Playbook, error) {
	applyInputDefaults(req)

	id, err := s.sosRepo.Create(ctx, req)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create sos request: %w", err)
	}

	playbookID, _, perr := s.process(ctx, id)
	if perr != nil {
		return nil, nil, perr
	}

	resolved, err := s.sosRepo.GetByID(ctx, id)
	if err != nil || resolved == nil {
		return nil, nil, fmt.Errorf("failed to reload sos request: %w", err)
	}
	playbook, err := s.playbookRepo.GetByID(ctx, playbookID)
	if err != nil || playbook == nil {
		return nil, nil, fmt.Errorf("failed to load playbook: %w", err)
	}
	return resolved, playbook, nil
}

func applyInputDefaults(req *model.SOSRequest) {
	req.Status = model.SOSPending
	if req.InputType == "" {
		req.InputType = model.InputText
	}
	if req.InputLanguage == "" {
		req.InputLanguage = "en"
	}
}

// process runs the full pipeline for a stored request. Degradations (cache
// down, AI failure, unparseable text) continue with substitutes; only
// unexpected failures transition the request to failed. On failure the
// transition and stream close have already happened when process returns.
func (s *PedagogyService) process(ctx context.Context, sosID string) (string, bool, error) {
	start := time.Now()

	req, err := s.sosRepo.GetByID(ctx, sosID)
	if err != nil {
		err = fmt.Errorf("failed to load sos request: %w", err)
		s.fail(sosID, err)
		return "", false, err
	}
	if req == nil {
		s.logger.Error("sos request vanished before processing", zap.String("sosId", sosID))
		return "", false, ErrSOSNotFound
	}

	if err := s.sosRepo.SetProcessing(ctx, sosID); err != nil {
		err = fmt.Errorf("failed to mark processing: %w", err)
		s.fail(sosID, err)
		return "", false, err
	}
	s.notify(sosID, "status", map[string]interface{}{"status": string(model.SOSProcessing)})

	// Caller-supplied subject and grade always win over inference; the rest
	// of the context comes from classification.
	classified := s.classifier.Classify(req.RawInput)
	if req.Context.Subject != "" {
		classified.Subject = req.Context.Subject
	}
	if req.Context.Grade != "" {
		classified.Grade = req.Context.Grade
	}
	if err := s.sosRepo.UpdateContext(ctx, sosID, classified); err != nil {
		err = fmt.Errorf("failed to save classified context: %w", err)
		s.fail(sosID, err)
		return "", false, err
	}

	languageName := languageNames[req.InputLanguage]
	if languageName == "" {
		languageName = "English"
	}

	kc := cache.KeyContext{
		Subject:  classified.Subject,
		Grade:    classified.Grade,
		Topic:    classified.Topic,
		Language: languageName,
	}

	var text string
	var fromCache bool
	if cached := s.cache.Lookup(ctx, kc); cached != nil {
		text = cached.Text
		fromCache = true
		s.logger.Info("serving playbook from cache", zap.String("sosId", sosID))
	} else {
		pc := PromptContext{
			Subject:      orDefault(classified.Subject, "General"),
			Grade:        orDefault(classified.Grade, "Mixed"),
			Topic:        orDefault(classified.Topic, "General Topic"),
			StudentCount: classified.StudentCount,
			Urgency:      string(classified.Urgency),
			Language:     languageName,
		}
		if pc.StudentCount <= 0 {
			pc.StudentCount = 30
		}

		result := s.generator.GeneratePlaybook(ctx, req.RawInput, pc)
		if ctx.Err() != nil {
			err = fmt.Errorf("processing cancelled: %w", ctx.Err())
			s.fail(sosID, err)
			return "", false, err
		}
		if !result.Success {
			s.logger.Warn("generation degraded to fallback",
				zap.String("sosId", sosID), zap.String("reason", result.ErrorDetail))
		}
		text = result.Text
		if text != "" {
			s.cache.Store(ctx, kc, &cache.CachedPlaybook{Text: text, Model: s.generator.Model()})
		}
	}

	bundle := s.provider.Bundle(
		orDefault(classified.Subject, "General"),
		orDefault(classified.Grade, "5"),
		classified.Topic,
	)
	parsed := extract.Parse(text)
	playbook := s.assemblePlaybook(sosID, req.InputLanguage, classified.Topic, parsed, bundle)

	playbookID, err := s.playbookRepo.Create(ctx, playbook)
	if err != nil {
		err = fmt.Errorf("failed to save playbook: %w", err)
		s.fail(sosID, err)
		return "", false, err
	}

	elapsed := time.Since(start)
	if err := s.sosRepo.SetResolved(ctx, sosID, playbookID, fromCache, elapsed); err != nil {
		err = fmt.Errorf("failed to mark resolved: %w", err)
		s.fail(sosID, err)
		return "", false, err
	}

	s.updateMemory(ctx, req.TeacherID, classified)

	s.notify(sosID, "resolved", map[string]interface{}{
		"playbookId":       playbookID,
		"fromCache":        fromCache,
		"processingTimeMs": elapsed.Milliseconds(),
	})
	s.closeStream(sosID)

	s.logger.Info("sos request resolved",
		zap.String("sosId", sosID),
		zap.String("playbookId", playbookID),
		zap.Bool("fromCache", fromCache),
		zap.Int64("elapsedMs", elapsed.Milliseconds()))
	return playbookID, fromCache, nil
}

// assemblePlaybook combines the extracted structure with provider resources.
// Provider videos replace whatever the text suggested; the NCERT reference and
// DIKSHA link are overlaid when the provider found them.
func (s *PedagogyService) assemblePlaybook(sosID, language, topic string, parsed extract.Result, bundle resources.Bundle) *model.Playbook {
	pb := &model.Playbook{
		SOSRequestID:      sosID,
		Title:             parsed.Title,
		Summary:           parsed.Summary,
		ImmediateActions:  parsed.ImmediateActions,
		RecoverySteps:     parsed.RecoverySteps,
		Alternatives:      parsed.Alternatives,
		SuccessIndicators: parsed.SuccessIndicators,
		YoutubeVideos:     bundle.Videos,
		TeachingResources: parsed.TeachingResources,
		TeachingTips:      parsed.TeachingTips,
		NCERTReference:    parsed.NCERTReference,
		EstimatedMinutes:  parsed.EstimatedMinutes,
		Difficulty:        parsed.Difficulty,
		ModelUsed:         s.generator.Model(),
		Language:          language,
	}

	if tb := bundle.Textbook; tb != nil {
		if tb.Chapter > 0 {
			pb.NCERTReference = fmt.Sprintf("%s Chapter %d | PDF: %s", tb.BookName, tb.Chapter, tb.PDFURL)
		} else {
			pb.NCERTReference = fmt.Sprintf("%s | Link: %s", tb.BookName, tb.ChapterListURL)
		}
	}

	if app := bundle.App; app != nil {
		diksha := model.TeachingResource{
			Title:        "DIKSHA: " + orDefault(topic, "Learning Resources"),
			URL:          app.WebURL,
			ResourceType: "diksha",
			Description:  app.Text,
		}
		pb.TeachingResources = append([]model.TeachingResource{diksha}, pb.TeachingResources...)
	}

	return pb
}

// fail transitions the request to failed and closes its stream. A fresh
// context is used so the transition persists even when the pipeline context
// is already dead.
func (s *PedagogyService) fail(sosID string, cause error) {
	s.logger.Error("sos processing failed", zap.String("sosId", sosID), zap.Error(cause))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.sosRepo.SetFailed(ctx, sosID); err != nil {
		s.logger.Error("failed to mark sos request failed",
			zap.String("sosId", sosID), zap.Error(err))
	}

	s.notify(sosID, "failed", map[string]interface{}{
		"error": "Failed to generate playbook. Please try again.",
	})
	s.closeStream(sosID)
}

// updateMemory records the request in the teacher's classroom memory.
// Best-effort: a memory failure never fails the request.
func (s *PedagogyService) updateMemory(ctx context.Context, teacherID string, classified model.ClassifiedContext) {
	mem, err := s.memoryRepo.GetByTeacherID(ctx, teacherID)
	if err != nil {
		s.logger.Warn("failed to load classroom memory", zap.String("teacherId", teacherID), zap.Error(err))
		return
	}
	if mem == nil {
		mem = &model.ClassroomMemory{TeacherID: teacherID}
	}

	mem.RecordSOS(classified.Subject, classified.IssueCategory)
	mem.TotalPlaybooks++

	if err := s.memoryRepo.Save(ctx, mem); err != nil {
		s.logger.Warn("failed to update classroom memory", zap.String("teacherId", teacherID), zap.Error(err))
	}
}

// GetSOS returns a request after checking ownership.
func (s *PedagogyService) GetSOS(ctx context.Context, sosID, teacherID string) (*model.SOSRequest, error) {
	req, err := s.sosRepo.GetByID(ctx, sosID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sos request: %w", err)
	}
	if req == nil {
		return nil, ErrSOSNotFound
	}
	if req.TeacherID != teacherID {
		return nil, ErrNotOwner
	}
	return req, nil
}

// ListSOS returns a teacher's requests, newest first. An empty status means
// no status filter.
func (s *PedagogyService) ListSOS(ctx context.Context, teacherID string, status model.SOSStatus, skip, limit int64) ([]*model.SOSRequest, error) {
	reqs, err := s.sosRepo.GetByTeacherID(ctx, teacherID, status, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sos requests: %w", err)
	}
	return reqs, nil
}

// GetPlaybook returns the playbook for a request after checking ownership,
// counting the view.
func (s *PedagogyService) GetPlaybook(ctx context.Context, sosID, teacherID string) (*model.Playbook, error) {
	if _, err := s.GetSOS(ctx, sosID, teacherID); err != nil {
		return nil, err
	}

	playbook, err := s.playbookRepo.GetBySOSID(ctx, sosID)
	if err != nil {
		return nil, fmt.Errorf("failed to load playbook: %w", err)
	}
	if playbook == nil {
		return nil, ErrPlaybookNotFound
	}

	if err := s.playbookRepo.IncrementViews(ctx, playbook.ID.Hex()); err != nil {
		s.logger.Warn("failed to count playbook view", zap.String("playbookId", playbook.ID.Hex()), zap.Error(err))
	}
	return playbook, nil
}

// SubmitFeedback stores feedback on a resolved request. Positive feedback on
// a delivered playbook is also recorded as a successful strategy in the
// teacher's classroom memory.
func (s *PedagogyService) SubmitFeedback(ctx context.Context, sosID, teacherID string, feedback model.SOSFeedback) error {
	req, err := s.sosRepo.GetByID(ctx, sosID)
	if err != nil {
		return fmt.Errorf("failed to load sos request: %w", err)
	}
	if req == nil {
		return ErrSOSNotFound
	}
	if req.TeacherID != teacherID {
		return ErrNotOwner
	}

	if err := s.sosRepo.SaveFeedback(ctx, sosID, feedback); err != nil {
		return fmt.Errorf("failed to save feedback: %w", err)
	}

	if feedback.Worked && req.PlaybookID != "" {
		s.recordStrategy(ctx, req, feedback)
	}
	return nil
}

// recordStrategy marks the playbook behind a worked request as a successful
// strategy. Best-effort.
func (s *PedagogyService) recordStrategy(ctx context.Context, req *model.SOSRequest, feedback model.SOSFeedback) {
	playbook, err := s.playbookRepo.GetByID(ctx, req.PlaybookID)
	if err != nil || playbook == nil {
		s.logger.Warn("failed to load playbook for strategy record",
			zap.String("playbookId", req.PlaybookID), zap.Error(err))
		return
	}

	mem, err := s.memoryRepo.GetByTeacherID(ctx, req.TeacherID)
	if err != nil {
		s.logger.Warn("failed to load classroom memory", zap.String("teacherId", req.TeacherID), zap.Error(err))
		return
	}
	if mem == nil {
		mem = &model.ClassroomMemory{TeacherID: req.TeacherID}
	}

	mem.RecordStrategy(req.PlaybookID, playbook.Title, req.Context.Subject, req.Context.Topic, feedback.Rating)

	if err := s.memoryRepo.Save(ctx, mem); err != nil {
		s.logger.Warn("failed to record successful strategy", zap.String("teacherId", req.TeacherID), zap.Error(err))
	}
}

// TeacherStats builds the per-teacher dashboard from classroom memory. A
// teacher with no memory yet gets zeros, not an error.
func (s *PedagogyService) TeacherStats(ctx context.Context, teacherID string) (*model.TeacherStats, error) {
	mem, err := s.memoryRepo.GetByTeacherID(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("failed to load classroom memory: %w", err)
	}

	stats := &model.TeacherStats{
		TopIssues:      []model.IssueCount{},
		BestStrategies: []model.StrategySummary{},
		SubjectsTaught: []string{},
	}
	if mem == nil {
		return stats, nil
	}

	stats.TotalSOSRequests = mem.TotalSOSRequests
	stats.TotalResolutions = mem.TotalResolutions
	stats.SubjectsTaught = mem.SubjectsTaught
	for _, p := range mem.TopIssues(5) {
		stats.TopIssues = append(stats.TopIssues, model.IssueCount{Issue: p.IssueType, Count: p.OccurrenceCount})
	}
	for _, st := range mem.BestStrategies(5) {
		stats.BestStrategies = append(stats.BestStrategies, model.StrategySummary{Summary: st.Summary, Rating: st.Rating})
	}
	return stats, nil
}

// Overview builds the public system overview.
func (s *PedagogyService) Overview(ctx context.Context) (*model.OverviewStats, error) {
	total, err := s.sosRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count sos requests: %w", err)
	}
	playbooks, err := s.playbookRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count playbooks: %w", err)
	}
	resolved, err := s.sosRepo.CountByStatus(ctx, model.SOSResolved)
	if err != nil {
		return nil, fmt.Errorf("failed to count resolved requests: %w", err)
	}

	denom := total
	if denom == 0 {
		denom = 1
	}
	rate := math.Round(float64(resolved)/float64(denom)*100*10) / 10

	return &model.OverviewStats{
		TotalSOSRequests: total,
		TotalPlaybooks:   playbooks,
		TotalResolved:    resolved,
		SuccessRate:      rate,
	}, nil
}

// CacheStats exposes the semantic cache counters.
func (s *PedagogyService) CacheStats() cache.StatsSnapshot {
	return s.cache.Stats()
}

func (s *PedagogyService) notify(sosID, msgType string, payload interface{}) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastToRequest(sosID, msgType, payload)
	}
}

func (s *PedagogyService) closeStream(sosID string) {
	if s.broadcaster != nil {
		s.broadcaster.CloseRequest(sosID)
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
