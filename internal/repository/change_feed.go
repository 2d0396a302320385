package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/dept-scheduler-api/internal/models"
)

const (
	changeFeedChannel  = "scheduler:changes"
	revisionKeyPattern = "scheduler:revision:%s"
	subscriberBuffer   = 64
)

// ChangeFeed bumps a per-department revision on every write and fans the
// event out to subscribers. Redis INCR/PUBLISH is used when a client is
// configured; otherwise revisions and delivery stay in process.
type ChangeFeed struct {
	client *redis.Client
	logger *zap.Logger

	mu          sync.Mutex
	revisions   map[string]int64
	subscribers map[int]chan models.ChangeEvent
	nextID      int
}

// NewChangeFeed constructs a change feed. client may be nil.
func NewChangeFeed(client *redis.Client, logger *zap.Logger) *ChangeFeed {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChangeFeed{
		client:      client,
		logger:      logger,
		revisions:   make(map[string]int64),
		subscribers: make(map[int]chan models.ChangeEvent),
	}
}

// Publish records the event and returns it stamped with its revision.
func (f *ChangeFeed) Publish(ctx context.Context, event models.ChangeEvent) (models.ChangeEvent, error) {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	if f.client == nil {
		f.mu.Lock()
		f.revisions[event.DepartmentID]++
		event.Revision = f.revisions[event.DepartmentID]
		f.mu.Unlock()
		f.fanOut(event)
		return event, nil
	}

	rev, err := f.client.Incr(ctx, fmt.Sprintf(revisionKeyPattern, event.DepartmentID)).Result()
	if err != nil {
		return event, fmt.Errorf("bump revision: %w", err)
	}
	event.Revision = rev
	payload, err := json.Marshal(event)
	if err != nil {
		return event, fmt.Errorf("marshal change event: %w", err)
	}
	if err := f.client.Publish(ctx, changeFeedChannel, payload).Err(); err != nil {
		return event, fmt.Errorf("publish change event: %w", err)
	}
	return event, nil
}

// Revision returns the current revision of a department (0 when untouched).
func (f *ChangeFeed) Revision(ctx context.Context, departmentID string) (int64, error) {
	if f.client == nil {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.revisions[departmentID], nil
	}
	rev, err := f.client.Get(ctx, fmt.Sprintf(revisionKeyPattern, departmentID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read revision: %w", err)
	}
	return rev, nil
}

// Subscribe delivers events until ctx is cancelled, then closes the channel.
func (f *ChangeFeed) Subscribe(ctx context.Context) <-chan models.ChangeEvent {
	out := make(chan models.ChangeEvent, subscriberBuffer)
	if f.client == nil {
		f.mu.Lock()
		id := f.nextID
		f.nextID++
		f.subscribers[id] = out
		f.mu.Unlock()
		go func() {
			<-ctx.Done()
			f.mu.Lock()
			delete(f.subscribers, id)
			f.mu.Unlock()
			close(out)
		}()
		return out
	}

	pubsub := f.client.Subscribe(ctx, changeFeedChannel)
	go func() {
		defer close(out)
		defer pubsub.Close() //nolint:errcheck
		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var event models.ChangeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					f.logger.Warn("discarding malformed change event", zap.Error(err))
					continue
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

func (f *ChangeFeed) fanOut(event models.ChangeEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, ch := range f.subscribers {
		select {
		case ch <- event:
		default:
			f.logger.Warn("change subscriber lagging, event dropped",
				zap.Int("subscriber", id),
				zap.String("department_id", event.DepartmentID),
				zap.String("collection", event.Collection))
		}
	}
}
