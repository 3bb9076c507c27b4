package notifier

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

const DefaultTick = 5 * time.Minute

type Ticker interface {
	Tick(ctx context.Context) (TickResult, error)
}

type Runner struct {
	Log   *zap.Logger
	UC    Ticker
	Every time.Duration

	busy atomic.Bool
	wg   sync.WaitGroup

	mTicks    prometheus.Counter
	mSent     prometheus.Counter
	mDeduped  prometheus.Counter
	mErr      prometheus.Counter
	mOverlap  prometheus.Counter
	mLoopDur  prometheus.Histogram
	mSkipped  prometheus.Counter
	mPanicked prometheus.Counter
}

func NewRunner(log *zap.Logger, uc Ticker, every time.Duration, reg prometheus.Registerer) *Runner {
	if every <= 0 {
		every = DefaultTick
	}
	f := promauto.With(reg)
	return &Runner{
		Log:   log.With(zap.String("component", "notifier.runner")),
		UC:    uc,
		Every: every,
		mTicks: f.NewCounter(prometheus.CounterOpts{
			Name: "notifier_ticks_total", Help: "Notifier ticks executed",
		}),
		mSent: f.NewCounter(prometheus.CounterOpts{
			Name: "notifier_reminders_sent_total", Help: "Prayer reminders sent",
		}),
		mDeduped: f.NewCounter(prometheus.CounterOpts{
			Name: "notifier_reminders_deduped_total", Help: "Due reminders already sent earlier",
		}),
		mErr: f.NewCounter(prometheus.CounterOpts{
			Name: "notifier_errors_total", Help: "Errors in notifier ticks",
		}),
		mOverlap: f.NewCounter(prometheus.CounterOpts{
			Name: "notifier_ticks_overlapped_total", Help: "Ticks dropped because the previous one was still running",
		}),
		mLoopDur: f.NewHistogram(prometheus.HistogramOpts{
			Name: "notifier_tick_duration_seconds", Help: "Notifier tick duration",
			Buckets: prometheus.DefBuckets,
		}),
		mSkipped: f.NewCounter(prometheus.CounterOpts{
			Name: "notifier_ticks_no_location_total", Help: "Ticks skipped because no location is configured",
		}),
		mPanicked: f.NewCounter(prometheus.CounterOpts{
			Name: "notifier_tick_panics_total", Help: "Ticks that panicked",
		}),
	}
}

// TryTick runs one tick unless another is still in flight. It reports whether
// the tick ran.
func (r *Runner) TryTick(ctx context.Context) bool {
	if !r.busy.CompareAndSwap(false, true) {
		r.mOverlap.Inc()
		r.Log.Warn("previous tick still running, skipping")
		return false
	}
	defer r.busy.Store(false)
	r.tick(ctx)
	return true
}

func (r *Runner) tick(ctx context.Context) {
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			r.mPanicked.Inc()
			r.mErr.Inc()
			r.Log.Error("tick panicked", zap.String("panic", fmt.Sprint(p)), zap.Stack("stack"))
		}
		r.mLoopDur.Observe(time.Since(start).Seconds())
	}()

	r.mTicks.Inc()
	res, err := r.UC.Tick(ctx)
	if err != nil {
		r.mErr.Inc()
		r.Log.Warn("tick error", zap.Error(err))
	}
	if res.NoLocation {
		r.mSkipped.Inc()
		r.Log.Debug("no location configured")
		return
	}
	r.mSent.Add(float64(res.Sent))
	r.mDeduped.Add(float64(res.Deduped))
	r.mErr.Add(float64(res.Errors))
	if res.Due > 0 {
		r.Log.Info("tick done",
			zap.Int("due", res.Due),
			zap.Int("sent", res.Sent),
			zap.Int("deduped", res.Deduped),
			zap.Int("suppressed", res.Suppressed),
			zap.Int("errors", res.Errors),
		)
	}
}

// Run ticks immediately and then every r.Every until ctx is done. Each tick runs
// in its own goroutine so a slow provider cannot delay the schedule; overlapping
// ticks are dropped.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.Every)
	defer ticker.Stop()
	defer r.wg.Wait()

	r.spawn(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.spawn(ctx)
		}
	}
}

func (r *Runner) spawn(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.TryTick(ctx)
	}()
}

// CheckCoverage warns when the tolerance band is too narrow for the tick period,
// which lets reminder instants fall between two ticks.
func CheckCoverage(log *zap.Logger, every, tolerance time.Duration) {
	if 2*tolerance < every {
		log.Warn("tolerance band narrower than tick period; some reminders can be missed",
			zap.Duration("tick", every), zap.Duration("tolerance", tolerance))
	}
}
