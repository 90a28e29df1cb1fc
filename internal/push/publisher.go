package push

import (
	"context"
	"encoding/json"

	"github.com/nimasrn/lead-desk/internal/model"
	"github.com/nimasrn/lead-desk/pkg/redis"
)

// Publisher is the server end: it emits activity and new-message events.
type Publisher struct {
	rdb redis.RedisAdapter
}

func NewPublisher(rdb redis.RedisAdapter) *Publisher {
	return &Publisher{rdb: rdb}
}

func (p *Publisher) MessageActivity(ctx context.Context, phone string) error {
	b, err := json.Marshal(Activity{LeadPhone: phone})
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, EventMessageActivity, b)
}

func (p *Publisher) NewMessage(ctx context.Context, msg model.ChatMessage) error {
	b, err := json.Marshal(NewMessage{LeadPhone: msg.LeadPhone, Message: &msg})
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, EventNewMessage, b)
}

// LeadSubscriptions follows the subscribe and unsubscribe events clients
// emit. fn gets the event name and the phone.
func (p *Publisher) LeadSubscriptions(ctx context.Context, fn func(event, phone string)) (stop func() error, err error) {
	ps, err := p.rdb.Subscribe(ctx, EventSubscribeToLead, EventUnsubscribeFromLead)
	if err != nil {
		return nil, err
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range ps.Channel() {
			fn(p.rdb.Strip(msg.Channel), msg.Payload)
		}
	}()
	return func() error {
		err := ps.Close()
		<-done
		return err
	}, nil
}
