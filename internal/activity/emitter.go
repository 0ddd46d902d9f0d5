package activity

import (
	"time"

	"github.com/google/uuid"

	"github.com/loyalty-next/internal/logger"
	"github.com/loyalty-next/internal/queue"
)

// Activity one structured event for the activity stream
type Activity struct {
	Type              string
	RetailerSlug      string
	AccountHolderUUID string
	Timestamp         time.Time
	Data              map[string]any
}

// Emitter publishes activity events, at-least-once
type Emitter interface {
	Emit(activities ...Activity)
}

// QueueEmitter default emitter backed by the task queue
type QueueEmitter struct {
	client *queue.Client
}

// NewQueueEmitter creates the queue-backed emitter
func NewQueueEmitter(client *queue.Client) *QueueEmitter {
	return &QueueEmitter{client: client}
}

// Emit enqueues one publish task per activity; failures are logged, never returned
func (e *QueueEmitter) Emit(activities ...Activity) {
	if e == nil || e.client == nil {
		return
	}
	for _, act := range activities {
		ts := act.Timestamp
		if ts.IsZero() {
			ts = time.Now()
		}
		payload := queue.ActivityPayload{
			Type:              act.Type,
			RetailerSlug:      act.RetailerSlug,
			AccountHolderUUID: act.AccountHolderUUID,
			ActivityID:        uuid.NewString(),
			Timestamp:         ts,
			Data:              act.Data,
		}
		if err := e.client.EnqueueActivity(payload); err != nil {
			logger.Errorw("enqueue activity failed",
				"type", act.Type,
				"retailer", act.RetailerSlug,
				"error", err)
		}
	}
}

// NopEmitter emitter that drops everything, used in tests
type NopEmitter struct{}

// Emit drops the activities
func (NopEmitter) Emit(...Activity) {}
