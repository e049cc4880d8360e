package indexing

import (
	"context"
	"errors"

	"github.com/jonboulle/clockwork"
	"github.com/lumen-agency/site-core/internal/models"
	"github.com/lumen-agency/site-core/internal/pkg/metrics"
	"go.uber.org/zap"
)

// Batch walks a list of targets one provider call at a time.
type Batch struct {
	client   *Client
	recorder Recorder
	pacer    *Pacer
	clock    clockwork.Clock
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

func NewBatch(client *Client, recorder Recorder, clock clockwork.Clock, logger *zap.Logger, m *metrics.Metrics) *Batch {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Batch{
		client:   client,
		recorder: recorder,
		pacer:    NewPacer(clock),
		clock:    clock,
		logger:   logger.Named("IndexingBatch"),
		metrics:  m,
	}
}

// InspectBatch inspects every target against siteURL.
func (b *Batch) InspectBatch(ctx context.Context, targets []Target, siteURL, token string) *RunResult {
	return b.run(ctx, ModeInspect, targets, func(ctx context.Context, t Target) Outcome {
		res, err := b.client.Inspect(ctx, token, t.URL, siteURL)
		now := b.clock.Now()
		if err != nil {
			return failedOutcome(t, asProviderError(err), now)
		}
		return Outcome{
			Target:        t,
			Success:       true,
			Verdict:       res.Verdict,
			CoverageState: res.CoverageState,
			LastCrawledAt: res.LastCrawledAt,
			Errors:        res.Errors,
			Warnings:      res.Warnings,
			CheckedAt:     now,
		}
	})
}

// SubmitBatch publishes a URL_UPDATED notification for every target.
func (b *Batch) SubmitBatch(ctx context.Context, targets []Target, token string) *RunResult {
	return b.run(ctx, ModeSubmit, targets, func(ctx context.Context, t Target) Outcome {
		res, err := b.client.Publish(ctx, token, t.URL)
		now := b.clock.Now()
		if err != nil {
			return failedOutcome(t, asProviderError(err), now)
		}
		return Outcome{
			Target:     t,
			Success:    true,
			Verdict:    models.VerdictSubmitted,
			NotifiedAt: res.NotifiedAt,
			CheckedAt:  now,
		}
	})
}

// run calls, reconciles and paces each target in order. It never stops
// early: the caller's cancellation is detached and every failure is
// captured in the result.
func (b *Batch) run(ctx context.Context, mode Mode, targets []Target, call func(context.Context, Target) Outcome) *RunResult {
	ctx = context.WithoutCancel(ctx)
	result := &RunResult{
		Mode:      mode,
		Total:     len(targets),
		StartedAt: b.clock.Now(),
		Outcomes:  make([]Outcome, 0, len(targets)),
	}

	for _, t := range targets {
		o := call(ctx, t)
		if err := b.recorder.Reconcile(ctx, o); err != nil {
			b.logger.Error("reconcile failed", zap.String("url", t.URL), zap.Error(err))
			persistErr := KindPersistence.describe() + ": " + err.Error()
			if o.Success {
				o.Success = false
				o.ErrorKind = KindPersistence
				o.ErrorMessage = persistErr
			} else {
				// keep the provider classification
				o.ErrorMessage += "; " + persistErr
			}
		} else if !o.Success {
			b.logger.Warn("provider call failed",
				zap.String("mode", string(mode)),
				zap.String("url", t.URL),
				zap.String("kind", string(o.ErrorKind)),
				zap.String("error", o.ErrorMessage),
			)
		}

		if o.Success {
			result.Succeeded++
		} else {
			result.Failed++
		}
		b.countOutcome(mode, o)
		result.Outcomes = append(result.Outcomes, o)

		b.pacer.Wait()
	}

	result.FinishedAt = b.clock.Now()
	return result
}

func (b *Batch) countOutcome(mode Mode, o Outcome) {
	if b.metrics == nil {
		return
	}
	label := "success"
	if !o.Success {
		label = string(o.ErrorKind)
	}
	b.metrics.IndexingOutcomesTotal.WithLabelValues(string(mode), label).Inc()
}

func asProviderError(err error) *ProviderError {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr
	}
	return classify(0, err.Error())
}
