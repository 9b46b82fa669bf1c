package events

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/onboardlens/onboardlens/pkg/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func event(projectID uuid.UUID, t models.WebhookEventType) models.ProjectEvent {
	return models.ProjectEvent{ProjectID: projectID, EventType: t, ReceivedAt: time.Now().UTC()}
}

func TestHub_PublishReachesOnlyProjectSubscribers(t *testing.T) {
	hub := NewHub(0, zap.NewNop())
	defer hub.Close()

	p1, p2 := uuid.New(), uuid.New()
	a := hub.Subscribe(p1)
	b := hub.Subscribe(p1)
	c := hub.Subscribe(p2)
	defer a.Close()
	defer b.Close()
	defer c.Close()

	hub.Publish(event(p1, models.WebhookEventStepCompletion))

	for _, sub := range []*Subscription{a, b} {
		select {
		case got := <-sub.Events():
			assert.Equal(t, models.WebhookEventStepCompletion, got.EventType)
		default:
			t.Fatal("expected event for project subscriber")
		}
	}
	select {
	case <-c.Events():
		t.Fatal("subscriber of another project must not receive the event")
	default:
	}
}

func TestHub_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub(2, zap.NewNop())
	defer hub.Close()

	projectID := uuid.New()
	sub := hub.Subscribe(projectID)
	defer sub.Close()

	for i := 0; i < 5; i++ {
		hub.Publish(event(projectID, models.WebhookEventUserDropOff))
	}
	assert.Len(t, sub.Events(), 2)
}

func TestSubscription_CloseIsIdempotentAndUnsubscribes(t *testing.T) {
	hub := NewHub(0, zap.NewNop())
	defer hub.Close()

	projectID := uuid.New()
	sub := hub.Subscribe(projectID)
	require.Equal(t, 1, hub.SubscriberCount(projectID))

	sub.Close()
	sub.Close()
	assert.Equal(t, 0, hub.SubscriberCount(projectID))

	_, open := <-sub.Events()
	assert.False(t, open)

	// publishing after close must not panic on the closed channel
	hub.Publish(event(projectID, models.WebhookEventFunnelCompletion))
}

func TestHub_CloseEndsSubscriptions(t *testing.T) {
	hub := NewHub(0, zap.NewNop())
	projectID := uuid.New()
	sub := hub.Subscribe(projectID)

	hub.Close()

	_, open := <-sub.Events()
	assert.False(t, open)
	sub.Close()

	late := hub.Subscribe(projectID)
	_, open = <-late.Events()
	assert.False(t, open, "subscriptions on a closed hub start closed")
	assert.Equal(t, 0, hub.SubscriberCount(projectID))
}

func TestHub_ConcurrentPublishAndSubscribe(t *testing.T) {
	hub := NewHub(8, zap.NewNop())
	defer hub.Close()
	projectID := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sub := hub.Subscribe(projectID)
			time.Sleep(time.Millisecond)
			sub.Close()
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				hub.Publish(event(projectID, models.WebhookEventStepCompletion))
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, hub.SubscriberCount(projectID))
}
