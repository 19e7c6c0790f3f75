package outreach

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"outreach_backend/internal/events"
	"outreach_backend/internal/leads/domain"
	leadrepo "outreach_backend/internal/leads/repository"
	"outreach_backend/internal/sender"
	"outreach_backend/internal/touches"
	"outreach_backend/platform/config"
	"outreach_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// LeadStore is the slice of the lead repository the engine drives. All lead
// mutation during a cycle goes through these four operations; the claim is
// the only cross-worker synchronization point.
type LeadStore interface {
	ClaimBatch(ctx context.Context, channel domain.Channel, limit int, claimToken string) ([]domain.Lead, error)
	Complete(ctx context.Context, leadID uuid.UUID, claimToken string, newStatus domain.Status, failureReason *string) error
	Requeue(ctx context.Context, leadID uuid.UUID, claimToken string, cooldownUntil time.Time) error
	Defer(ctx context.Context, leadID uuid.UUID, claimToken string, cooldownUntil time.Time) error
}

// TouchLedger is the slice of the touch ledger the engine writes to.
type TouchLedger interface {
	Record(ctx context.Context, p touches.RecordParams) (uuid.UUID, error)
}

// CycleStats summarizes one engine cycle for one channel.
type CycleStats struct {
	Claimed  int
	Sent     int
	Deferred int
	Requeued int
	Failed   int
}

// Engine is the state machine engine: it claims batches of ready leads for
// a channel, runs the dedup guard, dispatches the channel sender, records
// the outcome, and completes or requeues the claim. Multiple engine
// instances may run concurrently across processes; they coordinate only
// through the lead store's atomic claim.
type Engine struct {
	store    LeadStore
	ledger   TouchLedger
	guard    *Guard
	senders  map[domain.Channel]sender.Sender
	limiters map[domain.Channel]*rate.Limiter
	bus      events.Bus
	cfg      config.OutreachConfig
	log      *logger.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewEngine creates an engine over the given senders. Channels without a
// sender are skipped by RunCycle.
func NewEngine(store LeadStore, ledger TouchLedger, guard *Guard, senders []sender.Sender, bus events.Bus, cfg config.OutreachConfig, log *logger.Logger) *Engine {
	byChannel := make(map[domain.Channel]sender.Sender, len(senders))
	limiters := make(map[domain.Channel]*rate.Limiter, len(senders))
	perSecond := cfg.GetSendRatePerSecond()
	if perSecond <= 0 {
		perSecond = 1
	}
	for _, s := range senders {
		if s == nil {
			continue
		}
		byChannel[s.Channel()] = s
		limiters[s.Channel()] = rate.NewLimiter(rate.Limit(perSecond), 1)
	}

	return &Engine{
		store:    store,
		ledger:   ledger,
		guard:    guard,
		senders:  byChannel,
		limiters: limiters,
		bus:      bus,
		cfg:      cfg,
		log:      log,
		sleep:    sleepCtx,
	}
}

// EnabledChannels returns the channels that have a configured sender.
func (e *Engine) EnabledChannels() []domain.Channel {
	var out []domain.Channel
	for _, channel := range domain.AllChannels {
		if _, ok := e.senders[channel]; ok {
			out = append(out, channel)
		}
	}
	return out
}

// RunCycle claims one batch of ready leads for the channel and processes
// them. A storage failure during the claim fails the whole cycle closed; a
// failure on an individual lead never affects the rest of the batch.
func (e *Engine) RunCycle(ctx context.Context, channel domain.Channel) (CycleStats, error) {
	snd, ok := e.senders[channel]
	if !ok {
		return CycleStats{}, nil
	}

	claimToken := uuid.NewString()
	log := &logger.Logger{Logger: e.log.With("channel", string(channel), "claim_token", claimToken)}

	leads, err := e.store.ClaimBatch(ctx, channel, e.cfg.GetClaimBatchSize(), claimToken)
	if err != nil {
		return CycleStats{}, fmt.Errorf("claim batch: %w", err)
	}
	if len(leads) == 0 {
		return CycleStats{}, nil
	}

	stats := CycleStats{Claimed: len(leads)}
	var mu sync.Mutex

	concurrency := e.cfg.GetSendConcurrency()
	if concurrency < 1 {
		concurrency = 1
	}

	var group errgroup.Group
	group.SetLimit(concurrency)
	for _, lead := range leads {
		group.Go(func() error {
			outcome := e.processLead(ctx, channel, snd, lead, claimToken, log)
			mu.Lock()
			switch outcome {
			case outcomeSent:
				stats.Sent++
			case outcomeDeferred:
				stats.Deferred++
			case outcomeRequeued:
				stats.Requeued++
			case outcomeFailed:
				stats.Failed++
			}
			mu.Unlock()
			return nil
		})
	}
	_ = group.Wait()

	log.Info("outreach cycle complete",
		"claimed", stats.Claimed, "sent", stats.Sent,
		"deferred", stats.Deferred, "requeued", stats.Requeued, "failed", stats.Failed,
	)
	return stats, nil
}

type outcome int

const (
	outcomeSent outcome = iota
	outcomeDeferred
	outcomeRequeued
	outcomeFailed
)

func (e *Engine) processLead(ctx context.Context, channel domain.Channel, snd sender.Sender, lead domain.Lead, claimToken string, log *logger.Logger) outcome {
	eligible, windowEnd, err := e.guard.Eligible(ctx, lead.ID, channel)
	if err != nil {
		// Fail closed: release the claim without penalty and let a later
		// cycle retry once storage recovers.
		log.DatabaseError("dedup guard", err)
		e.release(ctx, lead.ID, claimToken, time.Now(), log)
		return outcomeDeferred
	}
	if !eligible {
		e.release(ctx, lead.ID, claimToken, windowEnd, log)
		return outcomeDeferred
	}

	result, sendErr := e.sendWithRetry(ctx, channel, snd, lead)
	if sendErr == nil {
		return e.completeSent(ctx, channel, lead, claimToken, result, log)
	}

	if sender.IsPermanent(sendErr) {
		log.SendFailure(lead.ID.String(), string(channel), "permanent", sendErr)
		return e.fail(ctx, channel, lead, claimToken, sendErr, log)
	}

	// Transient, retries exhausted for this cycle.
	log.SendFailure(lead.ID.String(), string(channel), "transient", sendErr)
	attempts := lead.Attempts + 1
	if attempts >= e.cfg.GetMaxSendAttempts() {
		return e.fail(ctx, channel, lead, claimToken,
			fmt.Errorf("gave up after %d attempts: %w", attempts, sendErr), log)
	}

	cooldown := requeueCooldown(attempts)
	if err := e.store.Requeue(ctx, lead.ID, claimToken, time.Now().Add(cooldown)); err != nil {
		e.logClaimLoss(lead.ID, "requeue", err, log)
	}
	return outcomeRequeued
}

// sendWithRetry invokes the sender with a bounded timeout per attempt,
// retrying transient failures with exponential backoff.
func (e *Engine) sendWithRetry(ctx context.Context, channel domain.Channel, snd sender.Sender, lead domain.Lead) (sender.Result, error) {
	msg := composeMessage(e.cfg, lead, channel)

	retries := e.cfg.GetRetryCount()
	if retries < 1 {
		retries = 1
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		if limiter, ok := e.limiters[channel]; ok {
			if err := limiter.Wait(ctx); err != nil {
				return sender.Result{}, sender.Transient(err)
			}
		}

		sendCtx, cancel := context.WithTimeout(ctx, e.cfg.GetSendTimeout())
		result, err := snd.Send(sendCtx, lead, msg)
		cancel()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if sender.IsPermanent(err) || ctx.Err() != nil {
			return sender.Result{}, err
		}

		if attempt < retries {
			delay := e.cfg.GetRetryBaseDelay() << (attempt - 1)
			if delay > 30*time.Second {
				delay = 30 * time.Second
			}
			if err := e.sleep(ctx, delay); err != nil {
				return sender.Result{}, sender.Transient(err)
			}
		}
	}
	return sender.Result{}, lastErr
}

func (e *Engine) completeSent(ctx context.Context, channel domain.Channel, lead domain.Lead, claimToken string, result sender.Result, log *logger.Logger) outcome {
	var providerID *string
	if result.ProviderMessageID != "" {
		providerID = &result.ProviderMessageID
	}

	touchID, err := e.ledger.Record(ctx, touches.RecordParams{
		LeadID:            lead.ID,
		Channel:           channel,
		Status:            touches.StatusSent,
		ProviderMessageID: providerID,
	})
	if err != nil {
		// The message is out; losing the ledger row weakens the cooldown
		// guard but must not strand the claim.
		log.DatabaseError("record touch", err)
	}

	if err := e.store.Complete(ctx, lead.ID, claimToken, domain.StatusContacted, nil); err != nil {
		e.logClaimLoss(lead.ID, "complete", err, log)
		return outcomeSent
	}

	if e.bus != nil {
		e.bus.Publish(ctx, events.TouchRecorded{
			BaseEvent: events.NewBaseEvent(),
			TouchID:   touchID,
			LeadID:    lead.ID,
			Channel:   string(channel),
			Status:    string(touches.StatusSent),
		})
		e.bus.Publish(ctx, events.LeadContacted{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    lead.ID,
			Channel:   string(channel),
			TouchID:   touchID,
		})
	}
	return outcomeSent
}

func (e *Engine) fail(ctx context.Context, channel domain.Channel, lead domain.Lead, claimToken string, cause error, log *logger.Logger) outcome {
	reason := cause.Error()
	if err := e.store.Complete(ctx, lead.ID, claimToken, domain.StatusFailed, &reason); err != nil {
		e.logClaimLoss(lead.ID, "fail", err, log)
		return outcomeFailed
	}

	if e.bus != nil {
		e.bus.Publish(ctx, events.LeadFailed{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    lead.ID,
			Channel:   string(channel),
			Reason:    reason,
		})
	}
	return outcomeFailed
}

func (e *Engine) release(ctx context.Context, leadID uuid.UUID, claimToken string, cooldownUntil time.Time, log *logger.Logger) {
	if err := e.store.Defer(ctx, leadID, claimToken, cooldownUntil); err != nil {
		e.logClaimLoss(leadID, "defer", err, log)
	}
}

// logClaimLoss reports a completion that raced a stale-claim release. The
// lead has already been handed to another owner, so the operation is a
// no-op by design; anything else is a real storage error.
func (e *Engine) logClaimLoss(leadID uuid.UUID, op string, err error, log *logger.Logger) {
	if errors.Is(err, leadrepo.ErrNotClaimed) {
		log.Warn("claim lost before "+op, "lead_id", leadID.String())
		return
	}
	log.DatabaseError(op, err)
}

// requeueCooldown spaces out cross-cycle retries: 1m, 2m, 4m... capped at
// one hour.
func requeueCooldown(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	if attempts > 6 {
		attempts = 6
	}
	return time.Minute << (attempts - 1)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
