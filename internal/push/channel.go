package push

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/nimasrn/lead-desk/pkg/logger"
	"github.com/nimasrn/lead-desk/pkg/prom"
	"github.com/nimasrn/lead-desk/pkg/redis"
)

var ErrNotConnected = errors.New("push channel is not connected")

// Channel is the client end. Handlers run on the dispatch goroutine, one
// event at a time. Reconnects are handled by the redis client, so a lost
// connection only delays events.
type Channel struct {
	rdb redis.RedisAdapter
	log logger.Logger

	mu   sync.Mutex
	ps   *redis.PubSub
	done chan struct{}

	nextID   atomic.Uint64
	hmu      sync.RWMutex
	activity map[HandlerID]func(Activity)
	messages map[HandlerID]func(NewMessage)
}

func NewChannel(rdb redis.RedisAdapter) *Channel {
	return &Channel{
		rdb:      rdb,
		log:      logger.With("component", "push_channel"),
		activity: make(map[HandlerID]func(Activity)),
		messages: make(map[HandlerID]func(NewMessage)),
	}
}

// Connect subscribes to the server events and starts dispatching. It is a
// no-op when already connected.
func (c *Channel) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ps != nil {
		return nil
	}

	ps, err := c.rdb.Subscribe(ctx, EventMessageActivity, EventNewMessage)
	if err != nil {
		return err
	}
	c.ps = ps
	c.done = make(chan struct{})
	go c.dispatch(ps, c.done)

	c.log.Info("push channel connected")
	return nil
}

// Disconnect stops dispatching and waits for the running handler to return.
func (c *Channel) Disconnect() error {
	c.mu.Lock()
	ps, done := c.ps, c.done
	c.ps, c.done = nil, nil
	c.mu.Unlock()
	if ps == nil {
		return nil
	}

	err := ps.Close()
	<-done
	c.log.Info("push channel disconnected")
	return err
}

func (c *Channel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ps != nil
}

func (c *Channel) SubscribeToLead(ctx context.Context, phone string) error {
	return c.emit(ctx, EventSubscribeToLead, phone)
}

func (c *Channel) UnsubscribeFromLead(ctx context.Context, phone string) error {
	return c.emit(ctx, EventUnsubscribeFromLead, phone)
}

func (c *Channel) emit(ctx context.Context, event, phone string) error {
	if !c.Connected() {
		return ErrNotConnected
	}
	if err := c.rdb.Publish(ctx, event, []byte(phone)); err != nil {
		c.log.Warn("push emit failed", "event", event, "phone", phone, "error", err)
		return err
	}
	return nil
}

func (c *Channel) OnMessageActivity(h func(Activity)) HandlerID {
	id := HandlerID(c.nextID.Add(1))
	c.hmu.Lock()
	c.activity[id] = h
	c.hmu.Unlock()
	prom.AddPushHandlers(EventMessageActivity, 1)
	return id
}

func (c *Channel) OffMessageActivity(id HandlerID) {
	c.hmu.Lock()
	_, ok := c.activity[id]
	delete(c.activity, id)
	c.hmu.Unlock()
	if ok {
		prom.AddPushHandlers(EventMessageActivity, -1)
	}
}

func (c *Channel) OnNewMessage(h func(NewMessage)) HandlerID {
	id := HandlerID(c.nextID.Add(1))
	c.hmu.Lock()
	c.messages[id] = h
	c.hmu.Unlock()
	prom.AddPushHandlers(EventNewMessage, 1)
	return id
}

func (c *Channel) OffNewMessage(id HandlerID) {
	c.hmu.Lock()
	_, ok := c.messages[id]
	delete(c.messages, id)
	c.hmu.Unlock()
	if ok {
		prom.AddPushHandlers(EventNewMessage, -1)
	}
}

func (c *Channel) dispatch(ps *redis.PubSub, done chan struct{}) {
	defer close(done)
	for msg := range ps.Channel() {
		event := c.rdb.Strip(msg.Channel)
		prom.IncPushEvent(event)

		switch event {
		case EventMessageActivity:
			var a Activity
			if err := json.Unmarshal([]byte(msg.Payload), &a); err != nil || a.LeadPhone == "" {
				c.drop(event, "malformed", msg.Payload)
				continue
			}
			c.hmu.RLock()
			handlers := make([]func(Activity), 0, len(c.activity))
			for _, h := range c.activity {
				handlers = append(handlers, h)
			}
			c.hmu.RUnlock()
			for _, h := range handlers {
				c.safely(event, func() { h(a) })
			}
		case EventNewMessage:
			var m NewMessage
			if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
				c.drop(event, "malformed", msg.Payload)
				continue
			}
			c.hmu.RLock()
			handlers := make([]func(NewMessage), 0, len(c.messages))
			for _, h := range c.messages {
				handlers = append(handlers, h)
			}
			c.hmu.RUnlock()
			for _, h := range handlers {
				c.safely(event, func() { h(m) })
			}
		default:
			c.drop(event, "unknown_event", msg.Payload)
		}
	}
}

func (c *Channel) drop(event, reason, payload string) {
	prom.IncPushDropped(reason)
	c.log.Warn("push event dropped", "event", event, "reason", reason, "payload", payload)
}

func (c *Channel) safely(event string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			prom.IncPushDropped("handler_panic")
			c.log.Error("push handler panicked", "event", event, "panic", r)
		}
	}()
	fn()
}
