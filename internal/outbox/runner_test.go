package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/NordCoder/Reminderus/internal/domain/notification"
	"github.com/NordCoder/Reminderus/internal/domain/outbox"
	"github.com/NordCoder/Reminderus/internal/obs/retry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memRepo struct {
	mu      sync.Mutex
	pending []outbox.Message
	done    []string
	pickErr error
}

func (m *memRepo) Enqueue(_ context.Context, key string, kind outbox.Kind, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, outbox.Message{IdempotencyKey: key, Kind: kind, Data: data})
	return nil
}

func (m *memRepo) PickBatch(_ context.Context, batch int, _ time.Duration) ([]outbox.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pickErr != nil {
		return nil, m.pickErr
	}
	n := min(batch, len(m.pending))
	out := append([]outbox.Message(nil), m.pending[:n]...)
	m.pending = m.pending[n:]
	return out, nil
}

func (m *memRepo) MarkSuccess(_ context.Context, keys []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.done = append(m.done, keys...)
	return nil
}

func (m *memRepo) marked() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.done...)
}

type fakePublisher struct {
	mu   sync.Mutex
	got  []notification.SentEvent
	fail map[string]bool
}

func (p *fakePublisher) PublishNotificationSent(_ context.Context, ev notification.SentEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail[ev.Key.RefID] {
		return errors.New("broker down")
	}
	p.got = append(p.got, ev)
	return nil
}

func sentPayload(t *testing.T, ref string) []byte {
	t.Helper()
	b, err := json.Marshal(notification.SentEvent{
		EventID: "ev-" + ref,
		Key:     notification.Key{Type: notification.TypePrayerStart, Date: "2024-06-01", RefID: ref},
		SentAt:  time.Date(2024, 6, 1, 5, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return b
}

func onceOnly() retry.Policy {
	return retry.Policy{Name: "test", Attempts: 1}
}

func TestRelay_MarksOnlySuccessful(t *testing.T) {
	repo := &memRepo{}
	pub := &fakePublisher{fail: map[string]bool{"Asr": true}}
	ctx := context.Background()

	require.NoError(t, repo.Enqueue(ctx, "k-fajr", outbox.KindNotificationSent, sentPayload(t, "Fajr")))
	require.NoError(t, repo.Enqueue(ctx, "k-asr", outbox.KindNotificationSent, sentPayload(t, "Asr")))
	require.NoError(t, repo.Enqueue(ctx, "k-bad", outbox.KindNotificationSent, []byte("{")))
	require.NoError(t, repo.Enqueue(ctx, "k-unknown", outbox.Kind(99), nil))

	reg := prometheus.NewRegistry()
	r := NewOutboxRunner(zap.NewNop(), repo, NewDispatch(pub, onceOnly(), reg), Config{BatchSize: 10}, reg)
	r.relay(ctx)

	assert.Equal(t, []string{"k-fajr"}, repo.marked())
	require.Len(t, pub.got, 1)
	assert.Equal(t, "Fajr", pub.got[0].Key.RefID)
	assert.Equal(t, "ev-Fajr", pub.got[0].EventID)
}

func TestRelay_PickError(t *testing.T) {
	repo := &memRepo{pickErr: errors.New("db down")}
	reg := prometheus.NewRegistry()
	r := NewOutboxRunner(zap.NewNop(), repo, NewDispatch(&fakePublisher{}, onceOnly(), reg), Config{}, reg)

	r.relay(context.Background())
	assert.Empty(t, repo.marked())
}

func TestHandler_RetriesBeforeGivingUp(t *testing.T) {
	calls := 0
	pub := publisherFunc(func(context.Context, notification.SentEvent) error {
		calls++
		if calls < 3 {
			return errors.New("leader not available")
		}
		return nil
	})
	pol := retry.Policy{Name: "test", Attempts: 5, Backoff: retry.ExpoJitter{Base: time.Millisecond}}

	h, err := NewDispatch(pub, pol, prometheus.NewRegistry())(outbox.KindNotificationSent)
	require.NoError(t, err)
	require.NoError(t, h(context.Background(), sentPayload(t, "Isha")))
	assert.Equal(t, 3, calls)
}

type publisherFunc func(context.Context, notification.SentEvent) error

func (f publisherFunc) PublishNotificationSent(ctx context.Context, ev notification.SentEvent) error {
	return f(ctx, ev)
}

func TestRun_StopsWithContext(t *testing.T) {
	repo := &memRepo{}
	pub := &fakePublisher{}
	require.NoError(t, repo.Enqueue(context.Background(), "k1", outbox.KindNotificationSent, sentPayload(t, "Dhuhr")))

	reg := prometheus.NewRegistry()
	r := NewOutboxRunner(zap.NewNop(), repo, NewDispatch(pub, onceOnly(), reg),
		Config{Workers: 2, WaitTime: 5 * time.Millisecond}, reg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(repo.marked()) == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runner did not stop")
	}
}

func TestDispatch_UnknownKind(t *testing.T) {
	_, err := NewDispatch(&fakePublisher{}, onceOnly(), prometheus.NewRegistry())(outbox.Kind(7))
	require.Error(t, err)
	assert.True(t, errors.Is(err, outbox.ErrUnknownKind))
	assert.Contains(t, err.Error(), "kind_7")
}
