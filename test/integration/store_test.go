//go:build integration

package integration

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/NordCoder/Reminderus/internal/domain/location"
	"github.com/NordCoder/Reminderus/internal/domain/notification"
	"github.com/NordCoder/Reminderus/internal/domain/outbox"
	"github.com/NordCoder/Reminderus/internal/domain/prayerlog"
	pg "github.com/NordCoder/Reminderus/internal/repository/postgres"
	"github.com/NordCoder/Reminderus/internal/services/prayer-notifier/repo"
	"github.com/NordCoder/Reminderus/internal/services/reminders"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openStores(t *testing.T) (*pg.DB, func(tables ...string)) {
	t.Helper()
	cfg := LoadCfg()
	sqlDB := DBOpen(t, cfg.DBDSN)

	db, err := pg.New(context.Background(), pg.Config{DSN: cfg.DBDSN, MaxConns: 8, QueryTimeout: 5 * time.Second})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	return db, func(tables ...string) { Truncate(t, sqlDB, tables...) }
}

func TestNotificationLog_OnlyOneConcurrentInsertWins(t *testing.T) {
	db, truncate := openStores(t)
	truncate("notification_log")
	store := pg.NewNotificationRepo(db)

	key := notification.Key{Type: notification.TypePrayerHalf, Date: "2024-06-01", RefID: "Asr"}
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.Insert(context.Background(), &notification.Record{Key: key, SentAt: time.Now().UTC()})
			assert.NoError(t, err)
			if ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	exists, err := store.Exists(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, exists)

	other := key
	other.Date = "2024-06-02"
	exists, err = store.Exists(context.Background(), other)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPublishingLog_QueuesEventInSameTx(t *testing.T) {
	db, truncate := openStores(t)
	truncate("notification_log", "outbox")

	log := repo.PublishingLog{
		Log:    pg.NewNotificationRepo(db),
		Outbox: pg.NewOutboxRepo(db),
		Tx:     pg.NewTransactor(db, zap.NewNop()),
	}
	rec := &notification.Record{
		Key:    notification.Key{Type: notification.TypePrayerStart, Date: "2024-06-01", RefID: "Fajr"},
		SentAt: time.Date(2024, 6, 1, 5, 0, 0, 0, time.UTC),
	}

	ok, err := log.Insert(context.Background(), rec)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = log.Insert(context.Background(), rec)
	require.NoError(t, err)
	assert.False(t, ok, "duplicate must not queue a second event")

	msgs, err := pg.NewOutboxRepo(db).PickBatch(context.Background(), 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, outbox.KindNotificationSent, msgs[0].Kind)
	assert.Equal(t, "notification_sent:prayer_start/2024-06-01/Fajr", msgs[0].IdempotencyKey)

	// Picked messages are not handed out again until the TTL passes.
	again, err := pg.NewOutboxRepo(db).PickBatch(context.Background(), 10, time.Minute)
	require.NoError(t, err)
	assert.Empty(t, again)

	require.NoError(t, pg.NewOutboxRepo(db).MarkSuccess(context.Background(), []string{msgs[0].IdempotencyKey}))
}

func TestLocationAndPrayerLog(t *testing.T) {
	db, truncate := openStores(t)
	truncate("user_settings", "prayer_logs")
	ctx := context.Background()

	locs := pg.NewLocationRepo(db)
	l, err := locs.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, l)

	require.NoError(t, locs.Upsert(ctx, &location.Location{Lat: 24.86, Lng: 67.01, Timezone: "Asia/Karachi"}))
	require.NoError(t, locs.Upsert(ctx, &location.Location{Lat: 21.42, Lng: 39.82, Timezone: "Asia/Riyadh"}))
	l, err = locs.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, l)
	assert.Equal(t, "Asia/Riyadh", l.Timezone)

	logs := pg.NewPrayerLogRepo(db)
	done, err := logs.IsCompleted(ctx, "fajr", "2024-06-01")
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, logs.Upsert(ctx, &prayerlog.Entry{PrayerID: "fajr", Date: "2024-06-01", Completed: true}))
	require.NoError(t, logs.Upsert(ctx, &prayerlog.Entry{PrayerID: "dhuhr", Date: "2024-06-01", Completed: false}))
	done, err = logs.IsCompleted(ctx, "fajr", "2024-06-01")
	require.NoError(t, err)
	assert.True(t, done)

	entries, err := logs.ListByDate(ctx, "2024-06-01")
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	require.NoError(t, logs.Upsert(ctx, &prayerlog.Entry{PrayerID: "asr", Date: "2024-06-03", Completed: true}))
	ranged, err := logs.ListRange(ctx, "2024-06-02", "2024-06-07")
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, prayerlog.Entry{PrayerID: "asr", Date: "2024-06-03", Completed: true}, *ranged[0])
}

func TestTasks_DueAndMarked(t *testing.T) {
	db, truncate := openStores(t)
	truncate("tasks")
	ctx := context.Background()

	now := time.Now().UTC()
	_, err := db.Pool.Exec(ctx, `INSERT INTO tasks (text, due_at) VALUES ('past', $1), ('future', $2), ('undated', NULL)`,
		now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)

	tasks := pg.NewTaskRepo(db)
	due, err := tasks.ListDueUnreminded(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "past", due[0].Text)

	require.NoError(t, tasks.MarkReminded(ctx, due[0].ID))
	due, err = tasks.ListDueUnreminded(ctx, now, 10)
	require.NoError(t, err)
	assert.Empty(t, due)

	assert.ErrorIs(t, tasks.MarkReminded(ctx, 999999), pg.ErrNotFound)
}

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

type digestGate struct{ sent map[notification.Key]bool }

func (g *digestGate) ShouldSend(_ context.Context, k notification.Key) bool { return !g.sent[k] }
func (g *digestGate) MarkSent(_ context.Context, k notification.Key, _ time.Time) {
	g.sent[k] = true
}

type collectSender struct{ msgs []notification.Message }

func (s *collectSender) Send(_ context.Context, m notification.Message) error {
	s.msgs = append(s.msgs, m)
	return nil
}

// withSessionZone adds a session TimeZone to the DSN so date matching can be
// checked against a server zone far from the reminder zone.
func withSessionZone(dsn, zone string) string {
	if strings.Contains(dsn, "://") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		return dsn + sep + "timezone=" + zone
	}
	return dsn + " timezone=" + zone
}

func TestEvents_DigestUsesPlainDates(t *testing.T) {
	_, truncate := openStores(t)
	truncate("events")
	ctx := context.Background()

	db, err := pg.New(ctx, pg.Config{DSN: withSessionZone(LoadCfg().DBDSN, "Pacific/Kiritimati"), QueryTimeout: 5 * time.Second})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	_, err = db.Pool.Exec(ctx, `INSERT INTO events (title, event_date) VALUES ('Fajr halaqa', '2024-06-02'), ('Eid prep', '2024-06-01')`)
	require.NoError(t, err)

	events := pg.NewEventRepo(db)
	got, err := events.ListByDate(ctx, "2024-06-02")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Fajr halaqa", got[0].Title)
	assert.Equal(t, "2024-06-02", got[0].Date)

	karachi, err := time.LoadLocation("Asia/Karachi")
	require.NoError(t, err)
	sender := &collectSender{}
	job := &reminders.EventDigest{
		Events: events,
		Gate:   &digestGate{sent: map[notification.Key]bool{}},
		Sender: sender,
		// 08:00 PKT on the 1st; tomorrow is the 2nd in Karachi.
		Clock: fixedClock(time.Date(2024, 6, 1, 3, 0, 0, 0, time.UTC)),
		Loc:   karachi,
		Log:   zap.NewNop(),
	}
	require.NoError(t, job.Run(ctx))
	require.Len(t, sender.msgs, 1)
	assert.Contains(t, sender.msgs[0].Text, "Fajr halaqa")
	assert.NotContains(t, sender.msgs[0].Text, "Eid prep")
}
