package agentbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultSendTimeout bounds how long SendPrompt waits for the bus to accept
// a prompt before the send is treated as failed.
const DefaultSendTimeout = 180 * time.Second

// Client provides instance-scoped Redis operations for the agent session bus.
// All keys and channels are automatically namespaced with the instance name.
// The client is thread-safe and can be used concurrently from multiple goroutines.
type Client struct {
	rdb          *redis.Client
	instanceName string
	sendTimeout  time.Duration
}

// NewClient creates a new agent bus client for the specified instance.
// The client automatically namespaces all keys and channels with the instance name.
//
// Parameters:
//   - redisOpts: Redis connection options (address, password, DB, etc.)
//   - instanceName: moot instance identifier (must not be empty)
//
// Returns an error if instanceName is empty.
func NewClient(redisOpts *redis.Options, instanceName string) (*Client, error) {
	if instanceName == "" {
		return nil, fmt.Errorf("instance name cannot be empty")
	}

	return &Client{
		rdb:          redis.NewClient(redisOpts),
		instanceName: instanceName,
		sendTimeout:  DefaultSendTimeout,
	}, nil
}

// SetSendTimeout overrides the send-side timeout applied by SendPrompt.
// Values <= 0 restore the default.
func (c *Client) SetSendTimeout(d time.Duration) {
	if d <= 0 {
		d = DefaultSendTimeout
	}
	c.sendTimeout = d
}

// Close closes the Redis connection. Implements io.Closer.
// After calling Close(), the client should not be used.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping verifies Redis connectivity. Useful for health checks.
// Returns an error if Redis is not reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// CreateSession creates a new idle session and publishes a session_created
// event. Returns the generated session ID.
//
// parentID may be empty; when set it records which session this one was
// spawned from (e.g. a scoring session derived from a review session).
func (c *Client) CreateSession(ctx context.Context, parentID, title string) (string, error) {
	session := &Session{
		ID:          uuid.New().String(),
		ParentID:    parentID,
		Title:       title,
		Status:      SessionStatusIdle,
		CreatedAtMs: time.Now().UnixMilli(),
	}

	if err := session.Validate(); err != nil {
		return "", fmt.Errorf("invalid session: %w", err)
	}

	key := SessionKey(c.instanceName, session.ID)
	if err := c.rdb.HSet(ctx, key, SessionToHash(session)).Err(); err != nil {
		return "", fmt.Errorf("failed to write session to Redis: %w", err)
	}

	if err := c.publishEvent(ctx, "session_created", session.ID, map[string]string{"title": title}); err != nil {
		return "", err
	}

	return session.ID, nil
}

// GetSession retrieves a session by ID.
// Returns (nil, redis.Nil) if the session doesn't exist.
// Use IsNotFound() to check for not-found errors.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	key := SessionKey(c.instanceName, sessionID)

	hashData, err := c.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read session from Redis: %w", err)
	}

	// HGetAll returns an empty map for non-existent keys
	if len(hashData) == 0 {
		return nil, redis.Nil
	}

	session, err := HashToSession(hashData)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize session: %w", err)
	}

	return session, nil
}

// SendPrompt pushes a prompt onto the session's prompt list for the runner
// to consume, and publishes a prompt_sent event. The whole operation is
// bounded by the client's send timeout; a timed-out send leaves the prompt
// unsent and returns the deadline error.
//
// toolPermissions lists the tools the runner may use while handling this
// prompt. An empty list means no tools.
func (c *Client) SendPrompt(ctx context.Context, sessionID, text string, toolPermissions []string) error {
	sendCtx, cancel := context.WithTimeout(ctx, c.sendTimeout)
	defer cancel()

	// Verify the session exists before queuing work against it
	if _, err := c.GetSession(sendCtx, sessionID); err != nil {
		if IsNotFound(err) {
			return fmt.Errorf("session %s does not exist", sessionID)
		}
		return err
	}

	message := &Message{
		ID:              uuid.New().String(),
		SessionID:       sessionID,
		Role:            MessageRolePrompt,
		Text:            text,
		ToolPermissions: toolPermissions,
		CreatedAtMs:     time.Now().UnixMilli(),
	}

	if err := message.Validate(); err != nil {
		return fmt.Errorf("invalid message: %w", err)
	}

	messageJSON, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal prompt message: %w", err)
	}

	key := SessionPromptsKey(c.instanceName, sessionID)
	if err := c.rdb.RPush(sendCtx, key, messageJSON).Err(); err != nil {
		return fmt.Errorf("failed to push prompt to Redis: %w", err)
	}

	return c.publishEvent(sendCtx, "prompt_sent", sessionID, nil)
}

// Status returns the runner-reported status of a session.
// Returns redis.Nil if the session doesn't exist.
func (c *Client) Status(ctx context.Context, sessionID string) (SessionStatus, error) {
	key := SessionKey(c.instanceName, sessionID)

	raw, err := c.rdb.HGet(ctx, key, "status").Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", redis.Nil
		}
		return "", fmt.Errorf("failed to read session status: %w", err)
	}

	status := SessionStatus(raw)
	if err := status.Validate(); err != nil {
		return "", fmt.Errorf("session %s has corrupt status: %w", sessionID, err)
	}

	return status, nil
}

// SetStatus updates the runner-reported status of a session.
// Called by runners; exposed on the client so both sides share one schema.
func (c *Client) SetStatus(ctx context.Context, sessionID string, status SessionStatus) error {
	if err := status.Validate(); err != nil {
		return fmt.Errorf("invalid status: %w", err)
	}

	key := SessionKey(c.instanceName, sessionID)
	if err := c.rdb.HSet(ctx, key, "status", string(status)).Err(); err != nil {
		return fmt.Errorf("failed to update session status: %w", err)
	}

	return nil
}

// AppendResponse appends a response message to the session's response list
// and publishes a response_appended event. Called by runners.
func (c *Client) AppendResponse(ctx context.Context, sessionID, text string) error {
	message := &Message{
		ID:          uuid.New().String(),
		SessionID:   sessionID,
		Role:        MessageRoleResponse,
		Text:        text,
		CreatedAtMs: time.Now().UnixMilli(),
	}

	messageJSON, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal response message: %w", err)
	}

	key := SessionMessagesKey(c.instanceName, sessionID)
	if err := c.rdb.RPush(ctx, key, messageJSON).Err(); err != nil {
		return fmt.Errorf("failed to push response to Redis: %w", err)
	}

	return c.publishEvent(ctx, "response_appended", sessionID, nil)
}

// Prompts retrieves all prompt messages for a session in send order.
// Runners consume this list to find work.
func (c *Client) Prompts(ctx context.Context, sessionID string) ([]Message, error) {
	key := SessionPromptsKey(c.instanceName, sessionID)

	raw, err := c.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read session prompts: %w", err)
	}

	prompts := make([]Message, 0, len(raw))
	for i, entry := range raw {
		var prompt Message
		if err := json.Unmarshal([]byte(entry), &prompt); err != nil {
			return nil, fmt.Errorf("failed to unmarshal prompt at index %d: %w", i, err)
		}
		prompts = append(prompts, prompt)
	}

	return prompts, nil
}

// Messages retrieves all response messages for a session in append order.
// Returns an empty slice if the session has no responses yet (not an error).
func (c *Client) Messages(ctx context.Context, sessionID string) ([]Message, error) {
	key := SessionMessagesKey(c.instanceName, sessionID)

	raw, err := c.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read session messages: %w", err)
	}

	messages := make([]Message, 0, len(raw))
	for i, entry := range raw {
		var message Message
		if err := json.Unmarshal([]byte(entry), &message); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message at index %d: %w", i, err)
		}
		messages = append(messages, message)
	}

	return messages, nil
}

// MessageCount returns the number of response messages accumulated on a
// session. This is the observation count watched by the completion monitor.
func (c *Client) MessageCount(ctx context.Context, sessionID string) (int, error) {
	key := SessionMessagesKey(c.instanceName, sessionID)

	count, err := c.rdb.LLen(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count session messages: %w", err)
	}

	return int(count), nil
}

// publishEvent publishes a SessionEvent on the instance's session_events channel.
func (c *Client) publishEvent(ctx context.Context, event, sessionID string, data map[string]string) error {
	payload, err := json.Marshal(&SessionEvent{
		Event:     event,
		SessionID: sessionID,
		Data:      data,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal session event: %w", err)
	}

	channel := SessionEventsChannel(c.instanceName)
	if err := c.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish session event: %w", err)
	}

	return nil
}

// Subscription represents an active Pub/Sub subscription to session events.
// Caller must call Close() when done to clean up resources.
type Subscription struct {
	events <-chan *SessionEvent
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of session events.
// The channel will be closed when the subscription is closed or the context is cancelled.
func (s *Subscription) Events() <-chan *SessionEvent {
	return s.events
}

// Errors returns the channel of subscription errors.
// Errors include JSON unmarshaling failures and other non-fatal issues.
// The subscription continues after errors - messages are skipped.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription and cleans up resources. Implements io.Closer.
// Safe to call multiple times - subsequent calls are no-ops.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// SubscribeSessionEvents subscribes to session events for this instance.
// Returns a Subscription that delivers SessionEvent objects.
// Caller must call subscription.Close() when done.
// Context cancellation also stops the subscription.
//
// Events are delivered on a buffered channel (size 10) to prevent blocking.
// If the subscriber is too slow, events may be dropped by Redis Pub/Sub
// (at-most-once delivery).
func (c *Client) SubscribeSessionEvents(ctx context.Context) (*Subscription, error) {
	channel := SessionEventsChannel(c.instanceName)
	pubsub := c.rdb.Subscribe(ctx, channel)

	eventsChan := make(chan *SessionEvent, 10)
	errorsChan := make(chan error, 10)

	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()

		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var event SessionEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to unmarshal session event: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- &event:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}

// IsNotFound returns true if the error is a Redis "key not found" error (redis.Nil).
// Use this to check if GetSession or Status returned "not found".
func IsNotFound(err error) bool {
	return errors.Is(err, redis.Nil)
}
