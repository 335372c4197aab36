package contact

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aman-churiwal/getyoursite/internal/circuitbreaker"
	"github.com/aman-churiwal/getyoursite/internal/metrics"
	"github.com/aman-churiwal/getyoursite/internal/models"
	"github.com/aman-churiwal/getyoursite/internal/notify"
	"github.com/aman-churiwal/getyoursite/internal/ratelimit"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Stage is a checkpoint of the ingestion state machine.
type Stage string

const (
	StageReceived    Stage = "received"
	StageRateChecked Stage = "rate_checked"
	StageValidated   Stage = "validated"
	StageSanitized   Stage = "sanitized"
	StagePersisted   Stage = "persisted"
	StageNotified    Stage = "notified"
	StageRejected    Stage = "rejected"
)

const DefaultNotifyTimeout = 10 * time.Second

// Store persists accepted submissions.
type Store interface {
	Insert(ctx context.Context, submission *models.Submission) (uuid.UUID, error)
}

// PipelineConfig wires a Pipeline. Notifier may be nil or notify.Nop when
// outbound mail is not configured.
type PipelineConfig struct {
	Limiter       ratelimit.Limiter
	Validator     *Validator
	Store         Store
	Notifier      notify.Notifier
	NotifyTimeout time.Duration
	Logger        *zap.Logger
	Clock         func() time.Time
}

// Pipeline runs a contact submission through rate limiting, validation,
// sanitization and persistence, then hands it to the notifier in the
// background.
type Pipeline struct {
	limiter       ratelimit.Limiter
	validator     *Validator
	store         Store
	notifier      notify.Notifier
	notifyTimeout time.Duration
	logger        *zap.Logger
	now           func() time.Time

	pending sync.WaitGroup
}

func NewPipeline(cfg PipelineConfig) *Pipeline {
	if cfg.Validator == nil {
		cfg.Validator = NewValidator()
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = DefaultNotifyTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	return &Pipeline{
		limiter:       cfg.Limiter,
		validator:     cfg.Validator,
		store:         cfg.Store,
		notifier:      cfg.Notifier,
		notifyTimeout: cfg.NotifyTimeout,
		logger:        cfg.Logger,
		now:           cfg.Clock,
	}
}

// Submit returns the stored submission, or one of ErrRateLimited,
// *ValidationError or *StorageError. Any other error comes from the rate
// limiter backend.
func (p *Pipeline) Submit(ctx context.Context, in Input, clientAddress string) (*models.Submission, error) {
	stage := StageReceived
	log := p.logger.With(zap.String("client", clientAddress))

	reject := func(outcome string, err error) (*models.Submission, error) {
		metrics.ObserveSubmission(outcome)
		log.Info("contact submission rejected",
			zap.String("stage", string(stage)),
			zap.String("next", string(StageRejected)),
			zap.String("outcome", outcome),
			zap.Error(err))
		return nil, err
	}

	allowed, err := p.limiter.Allow(ctx, clientAddress)
	if err != nil {
		return reject(metrics.OutcomeLimiterError, fmt.Errorf("rate limit check failed: %w", err))
	}
	if !allowed {
		metrics.ObserveRateLimitRejection("contact")
		return reject(metrics.OutcomeRateLimited, ErrRateLimited)
	}
	stage = StageRateChecked

	trimmed := in.Trimmed()
	if violations := p.validator.Validate(trimmed); len(violations) > 0 {
		return reject(metrics.OutcomeInvalid, &ValidationError{Errors: violations})
	}
	stage = StageValidated

	subject := trimmed.Subject
	if subject == "" {
		subject = models.DefaultSubject
	}
	submission := &models.Submission{
		Name:          Sanitize(trimmed.Name),
		Email:         Sanitize(trimmed.Email),
		Subject:       Sanitize(subject),
		Message:       Sanitize(trimmed.Message),
		ClientAddress: clientAddress,
		CreatedAt:     p.now().UTC(),
		Read:          false,
	}
	stage = StageSanitized

	if _, err := p.store.Insert(ctx, submission); err != nil {
		return reject(metrics.OutcomeStorageFail, &StorageError{Err: err})
	}
	stage = StagePersisted
	metrics.ObserveSubmission(metrics.OutcomeAccepted)
	log.Info("contact submission accepted",
		zap.String("id", submission.ID.String()),
		zap.String("stage", string(stage)))

	p.dispatch(notify.Notification{Submission: *submission, ReplyTo: trimmed.Email})

	return submission, nil
}

func (p *Pipeline) dispatch(n notify.Notification) {
	log := p.logger.With(zap.String("id", n.Submission.ID.String()))

	if _, nop := p.notifier.(notify.Nop); p.notifier == nil || nop {
		metrics.ObserveNotification(metrics.NotifySkipped)
		log.Debug("mail not configured, skipping notification")
		return
	}

	p.pending.Add(1)
	go func() {
		defer p.pending.Done()

		ctx, cancel := context.WithTimeout(context.Background(), p.notifyTimeout)
		defer cancel()

		err := p.sendWithTimeout(ctx, n)
		switch {
		case err == nil:
			metrics.ObserveNotification(metrics.NotifySent)
			log.Info("notification sent",
				zap.String("notifier", p.notifier.Name()),
				zap.String("stage", string(StageNotified)))
		case errors.Is(err, circuitbreaker.ErrCircuitOpen):
			metrics.ObserveNotification(metrics.NotifyCircuitOpen)
			log.Warn("notification skipped, mail circuit is open")
		case errors.Is(err, context.DeadlineExceeded):
			metrics.ObserveNotification(metrics.NotifyTimeout)
			log.Warn("notification timed out", zap.Duration("timeout", p.notifyTimeout))
		default:
			metrics.ObserveNotification(metrics.NotifyFailed)
			log.Warn("notification failed", zap.Error(err))
		}
	}()
}

// sendWithTimeout returns when the notifier does or when ctx expires,
// whichever is first.
func (p *Pipeline) sendWithTimeout(ctx context.Context, n notify.Notification) error {
	done := make(chan error, 1)
	go func() {
		done <- p.notifier.Send(ctx, n)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pipeline) Limiter() ratelimit.Limiter {
	return p.limiter
}

// Wait blocks until every in-flight notification has finished or timed out.
func (p *Pipeline) Wait() {
	p.pending.Wait()
}
