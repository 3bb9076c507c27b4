package reminders

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler runs reminder jobs on cron specs in one timezone. A job that is
// still running when its next slot comes up is skipped.
type Scheduler struct {
	c   *cron.Cron
	log *zap.Logger
	ctx context.Context

	mRuns *prometheus.CounterVec
	mErrs *prometheus.CounterVec
	mDur  *prometheus.HistogramVec
}

var specParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

func NewScheduler(loc *time.Location, log *zap.Logger, reg prometheus.Registerer) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	log = log.With(zap.String("component", "reminders.scheduler"))
	cl := cronLogger{l: log.Sugar()}
	f := promauto.With(reg)

	return &Scheduler{
		c: cron.New(
			cron.WithLocation(loc),
			cron.WithParser(specParser),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		log: log,
		ctx: context.Background(),
		mRuns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "reminders_job_runs_total", Help: "Reminder job executions",
		}, []string{"job"}),
		mErrs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "reminders_job_errors_total", Help: "Reminder job failures",
		}, []string{"job"}),
		mDur: f.NewHistogramVec(prometheus.HistogramOpts{
			Name: "reminders_job_duration_seconds", Help: "Reminder job duration",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
	}
}

// Add registers fn under spec. An empty spec disables the job.
func (s *Scheduler) Add(name, spec string, fn func(ctx context.Context) error) error {
	if spec == "" {
		s.log.Info("job disabled", zap.String("job", name))
		return nil
	}
	_, err := s.c.AddFunc(spec, func() {
		start := time.Now()
		s.mRuns.WithLabelValues(name).Inc()
		err := fn(s.ctx)
		s.mDur.WithLabelValues(name).Observe(time.Since(start).Seconds())
		if err != nil {
			s.mErrs.WithLabelValues(name).Inc()
			s.log.Warn("job failed", zap.String("job", name), zap.Error(err))
			return
		}
		s.log.Debug("job done", zap.String("job", name), zap.Duration("elapsed", time.Since(start)))
	})
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	s.log.Info("job scheduled", zap.String("job", name), zap.String("spec", spec))
	return nil
}

// Run starts the cron loop and blocks until ctx is done, then waits for running
// jobs to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.ctx = ctx
	s.c.Start()
	<-ctx.Done()
	<-s.c.Stop().Done()
	return ctx.Err()
}

type cronLogger struct{ l *zap.SugaredLogger }

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
