package gate

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"mastergate/internal/analysis"
	"mastergate/internal/config"
	"mastergate/internal/logging"
	"mastergate/internal/queue"
	"mastergate/internal/rules"
	"mastergate/internal/services"
	"mastergate/internal/simulate"
)

// Repository is the queue surface the orchestrator drives. Satisfied by
// queue.Store.
type Repository interface {
	OldestPending(ctx context.Context, userID string) (*queue.Submission, error)
	Claim(ctx context.Context, id int64, userID string) (bool, error)
	RecoverStuck(ctx context.Context, userID string, staleAfter time.Duration) (int64, error)
	ResetToPending(ctx context.Context, id int64, userID string) error
	Finalize(ctx context.Context, id int64, userID string, decision queue.Decision, reason string, metricsJSON []byte, events []queue.MetricEvent) error
	FindDuplicate(ctx context.Context, userID, contentHash string, excludeID int64) (*queue.Submission, error)
	LastTerminal(ctx context.Context, userID string) (*queue.Submission, error)
	SaveSimulation(ctx context.Context, id int64, payload []byte) error
}

// Measurer produces the acoustic profile of a submission.
type Measurer interface {
	Measure(ctx context.Context, sourcePath string) (analysis.Bundle, error)
}

// Simulator predicts lossy-delivery distortion for a measured submission.
type Simulator interface {
	Simulate(ctx context.Context, sourcePath string, preEncodePeakDBTP float64) (simulate.Result, error)
}

// Entitlements answers whether feedback detail may be disclosed for a
// decided submission.
type Entitlements interface {
	FeedbackUnlocked(ctx context.Context, userID string, submissionID int64) (bool, error)
}

// Auditor records security anomalies; implementations must be best-effort.
type Auditor interface {
	RecordHashMismatch(ctx context.Context, userID string, submissionID int64, reason string)
}

// Orchestrator sequences one gating run: recovery, claim, duplicate check,
// measurement, simulation, rule evaluation, finalize, feedback gating. Every
// step failure resolves the claimed item to a safe queue state before the
// response is returned; infrastructure faults never surface as rejections.
type Orchestrator struct {
	cfg          *config.Config
	repo         Repository
	measurer     Measurer
	simulator    Simulator
	entitlements Entitlements
	auditor      Auditor
	logger       *slog.Logger
}

// New wires an orchestrator. auditor may be nil when no audit sink is
// configured.
func New(cfg *config.Config, repo Repository, measurer Measurer, simulator Simulator, entitlements Entitlements, auditor Auditor, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:          cfg,
		repo:         repo,
		measurer:     measurer,
		simulator:    simulator,
		entitlements: entitlements,
		auditor:      auditor,
		logger:       logging.NewComponentLogger(logger, "gate"),
	}
}

// Process runs one pipeline invocation for the given user. Concurrent
// invocations for the same user are safe: the claim primitive guarantees at
// most one proceeds past claiming.
func (o *Orchestrator) Process(ctx context.Context, userID string) Outcome {
	if userID == "" {
		return unauthorizedOutcome()
	}
	ctx = services.WithUserID(ctx, userID)
	ctx = services.WithRequestID(ctx, uuid.NewString())

	if _, err := o.repo.RecoverStuck(ctx, userID, o.cfg.StaleProcessingAfter()); err != nil {
		o.logger.ErrorContext(ctx, "stuck-item recovery failed", logging.Error(err))
		return infraOutcome(CodeQueueClaimFailed)
	}

	item, err := o.repo.OldestPending(ctx, userID)
	if err != nil {
		o.logger.ErrorContext(ctx, "pending lookup failed", logging.Error(err))
		return infraOutcome(CodeQueueClaimFailed)
	}
	if item == nil {
		return o.idleOutcome(ctx, userID)
	}
	ctx = services.WithSubmissionID(ctx, item.ID)

	claimed, err := o.repo.Claim(ctx, item.ID, userID)
	if err != nil {
		o.logger.ErrorContext(ctx, "claim failed", logging.Error(err))
		return infraOutcome(CodeQueueClaimFailed)
	}
	if !claimed {
		return Outcome{OK: true, Processed: false, Reason: CodeAlreadyClaimed, QueueID: formatQueueID(item.ID)}
	}

	return o.runClaimed(ctx, userID, item)
}

// Status reports the caller's most recent terminal decision without touching
// queue state.
func (o *Orchestrator) Status(ctx context.Context, userID string) Outcome {
	if userID == "" {
		return unauthorizedOutcome()
	}
	return o.idleOutcome(services.WithUserID(ctx, userID), userID)
}

// runClaimed owns the item from claim to resolution. A panic anywhere in the
// claimed section resets the item and reports worker_unhandled_error, so the
// submission can never be stranded in processing by a bug.
func (o *Orchestrator) runClaimed(ctx context.Context, userID string, item *queue.Submission) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.ErrorContext(ctx, "orchestration panic",
				logging.Any("panic", r))
			o.reset(ctx, item)
			outcome = infraOutcome(CodeWorkerUnhandled)
		}
	}()

	o.verifyContentHash(ctx, userID, item)

	prior, err := o.repo.FindDuplicate(ctx, userID, item.ContentHash, item.ID)
	if err != nil {
		return o.failClosed(ctx, item, CodeDuplicateCheck, err)
	}
	if prior != nil {
		return o.resolveDuplicate(ctx, userID, item, prior)
	}

	bundle, err := o.measurer.Measure(ctx, item.SourcePath)
	if err != nil {
		return o.failClosed(ctx, item, CodeMeasurementFailed, err)
	}

	o.simulateAdvisory(ctx, item, bundle)

	violations := rules.Evaluate(bundle, o.cfg.Gate)
	decision := queue.DecisionApproved
	reason := ""
	if len(violations) > 0 {
		decision = queue.DecisionRejected
		reason = rules.Summarize(violations)
	}

	payload, err := bundle.MarshalPayload()
	if err != nil {
		return o.failClosed(ctx, item, CodeMetricsInvalid, err)
	}

	if err := o.repo.Finalize(ctx, item.ID, userID, decision, reason, payload, bundleEvents(bundle)); err != nil {
		return o.failClosed(ctx, item, classifyPersistFailure(err), err)
	}

	o.logger.InfoContext(ctx, "submission gated",
		logging.String("decision", string(decision)),
		logging.Int("violations", len(violations)))

	return Outcome{
		OK:                true,
		Processed:         true,
		Decision:          string(decision),
		Reason:            reason,
		FeedbackAvailable: o.feedbackAvailable(ctx, userID, item.ID),
		QueueID:           formatQueueID(item.ID),
	}
}

// resolveDuplicate reuses the prior terminal decision for identical audio,
// skipping measurement and simulation entirely.
func (o *Orchestrator) resolveDuplicate(ctx context.Context, userID string, item, prior *queue.Submission) Outcome {
	decision, ok := prior.Decision()
	if !ok {
		// FindDuplicate only returns terminal items; a non-terminal result
		// here is a repository contract violation.
		return o.failClosed(ctx, item, CodeDuplicateCheck, errors.New("duplicate precedent is not terminal"))
	}

	if err := o.repo.Finalize(ctx, item.ID, userID, decision, ReasonDuplicateAudio, nil, nil); err != nil {
		return o.failClosed(ctx, item, classifyPersistFailure(err), err)
	}

	o.logger.InfoContext(ctx, "duplicate submission resolved from precedent",
		logging.Int64("prior_submission_id", prior.ID),
		logging.String("decision", string(decision)))

	return Outcome{
		OK:                true,
		Processed:         true,
		Decision:          string(decision),
		Reason:            ReasonDuplicateAudio,
		FeedbackAvailable: o.feedbackAvailable(ctx, userID, item.ID),
		QueueID:           formatQueueID(item.ID),
	}
}

// simulateAdvisory runs and persists the codec distortion simulation.
// Advisory-only: every failure here is swallowed after logging and the
// pipeline continues with the gating decision unaffected.
func (o *Orchestrator) simulateAdvisory(ctx context.Context, item *queue.Submission, bundle analysis.Bundle) {
	if o.simulator == nil {
		return
	}
	result, err := o.simulator.Simulate(ctx, item.SourcePath, bundle.TruePeakDBTP)
	if err != nil {
		o.logger.WarnContext(ctx, "codec simulation failed", logging.Error(err))
		return
	}
	payload, err := result.MarshalPayload()
	if err != nil {
		o.logger.WarnContext(ctx, "codec simulation payload invalid", logging.Error(err))
		return
	}
	if err := o.repo.SaveSimulation(ctx, item.ID, payload); err != nil {
		o.logger.WarnContext(ctx, "codec simulation not persisted", logging.Error(err))
	}
}

// verifyContentHash compares the stored hash with the audio on disk and
// audit-logs a mismatch. The stored hash stays authoritative for duplicate
// detection; an unreadable file is left for the measurement stage to report.
func (o *Orchestrator) verifyContentHash(ctx context.Context, userID string, item *queue.Submission) {
	if o.auditor == nil {
		return
	}
	actual, err := hashFile(item.SourcePath)
	if err != nil {
		return
	}
	if actual != item.ContentHash {
		o.logger.WarnContext(ctx, "content hash mismatch",
			logging.String("stored", item.ContentHash),
			logging.String("actual", actual))
		o.auditor.RecordHashMismatch(ctx, userID, item.ID, "stored content hash does not match audio on disk")
	}
}

func (o *Orchestrator) idleOutcome(ctx context.Context, userID string) Outcome {
	last, err := o.repo.LastTerminal(ctx, userID)
	if err != nil {
		o.logger.ErrorContext(ctx, "terminal history lookup failed", logging.Error(err))
		return infraOutcome(CodeQueueLookupFailed)
	}
	if last == nil {
		return Outcome{OK: true, Processed: false, Reason: ReasonIdle}
	}
	decision, _ := last.Decision()
	return Outcome{
		OK:                true,
		Processed:         false,
		Reason:            ReasonIdle,
		Decision:          string(decision),
		FeedbackAvailable: o.feedbackAvailable(ctx, userID, last.ID),
		QueueID:           formatQueueID(last.ID),
	}
}

// feedbackAvailable consults the entitlement resolver. Resolver failures
// report feedback as unavailable rather than failing a decided submission.
func (o *Orchestrator) feedbackAvailable(ctx context.Context, userID string, submissionID int64) *bool {
	if o.entitlements == nil {
		return boolPtr(false)
	}
	unlocked, err := o.entitlements.FeedbackUnlocked(ctx, userID, submissionID)
	if err != nil {
		o.logger.WarnContext(ctx, "entitlement lookup failed", logging.Error(err))
		return boolPtr(false)
	}
	return boolPtr(unlocked)
}

// failClosed is the single fail-closed helper every error branch routes
// through: reset the item to pending, log the cause, and surface only the
// coarse machine-readable code.
func (o *Orchestrator) failClosed(ctx context.Context, item *queue.Submission, code string, cause error) Outcome {
	o.logger.ErrorContext(ctx, "pipeline step failed",
		logging.String("code", code),
		logging.Bool("infrastructure", services.IsInfrastructure(cause)),
		logging.Error(cause))
	o.reset(ctx, item)
	return infraOutcome(code)
}

func (o *Orchestrator) reset(ctx context.Context, item *queue.Submission) {
	if err := o.repo.ResetToPending(ctx, item.ID, item.UserID); err != nil {
		o.logger.ErrorContext(ctx, "fail-closed reset failed", logging.Error(err))
	}
}

func classifyPersistFailure(err error) string {
	switch {
	case errors.Is(err, queue.ErrMetricsPersist):
		return CodeMetricsUpsertFailed
	case errors.Is(err, queue.ErrEventsPersist):
		return CodeEventsUpsertFailed
	default:
		return CodePersistFailed
	}
}

// bundleEvents flattens the bundle's time-series observations into the rows
// persisted beside the decision.
func bundleEvents(bundle analysis.Bundle) []queue.MetricEvent {
	events := make([]queue.MetricEvent, 0, len(bundle.SilenceSegments)+len(bundle.PeakEvents)+len(bundle.PhaseSeries))
	for _, segment := range bundle.SilenceSegments {
		events = append(events, queue.MetricEvent{
			Kind:         "silence",
			StartSeconds: segment.StartSeconds,
			EndSeconds:   segment.EndSeconds,
		})
	}
	for _, peak := range bundle.PeakEvents {
		events = append(events, queue.MetricEvent{
			Kind:         "true_peak",
			StartSeconds: peak.TimeSeconds,
			Value:        peak.LevelDBTP,
		})
	}
	for _, phase := range bundle.PhaseSeries {
		events = append(events, queue.MetricEvent{
			Kind:         "phase",
			StartSeconds: phase.TimeSeconds,
			Value:        phase.Correlation,
		})
	}
	return events
}

func formatQueueID(id int64) string {
	return strconv.FormatInt(id, 10)
}
