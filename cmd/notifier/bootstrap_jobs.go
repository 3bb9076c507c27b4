package main

import (
	"time"

	config "github.com/NordCoder/Reminderus/internal/config/notifier"
	"github.com/NordCoder/Reminderus/internal/domain/notification"
	"github.com/NordCoder/Reminderus/internal/prayer"
	pg "github.com/NordCoder/Reminderus/internal/repository/postgres"
	notifier "github.com/NordCoder/Reminderus/internal/services/prayer-notifier"
	"github.com/NordCoder/Reminderus/internal/services/reminders"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func buildScheduler(
	cfg *config.Config,
	st *stores,
	gate *notifier.Gate,
	sender notification.EmailSender,
	l *zap.Logger,
	reg prometheus.Registerer,
) (*reminders.Scheduler, error) {
	loc, err := prayer.LoadZone(cfg.Reminders.Timezone)
	if err != nil {
		return nil, err
	}
	s := reminders.NewScheduler(loc, l, reg)
	clock := notification.SystemClock{}

	if st.pg != nil {
		events := &reminders.EventDigest{
			Events: pg.NewEventRepo(st.pg), Gate: gate, Sender: sender,
			Clock: clock, Loc: loc, Log: l.With(zap.String("component", "reminders.events")),
		}
		if err := s.Add("event_digest", cfg.Reminders.EventsSpec, events.Run); err != nil {
			return nil, err
		}
		tasks := &reminders.DueTasks{
			Tasks: pg.NewTaskRepo(st.pg), Gate: gate, Sender: sender,
			Clock: clock, Loc: loc, Batch: cfg.Reminders.TaskBatch,
			Log: l.With(zap.String("component", "reminders.tasks")),
		}
		if err := s.Add("due_tasks", cfg.Reminders.TasksSpec, tasks.Run); err != nil {
			return nil, err
		}
	} else {
		l.Info("event and task reminders need postgres; not scheduled")
	}

	keep := &reminders.KeepAlive{Store: pingFunc(st.ping), Timeout: 5 * time.Second}
	if err := s.Add("keep_alive", cfg.Reminders.KeepAliveSpec, keep.Run); err != nil {
		return nil, err
	}
	return s, nil
}
