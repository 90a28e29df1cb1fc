// Package mockapi is an in-memory stand-in for the remote lead service. It
// serves the same routes the client calls and emits push events through
// redis when a publisher is configured.
package mockapi

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/lead-desk/internal/model"
	"github.com/nimasrn/lead-desk/internal/push"
	"github.com/rs/zerolog/log"
)

var (
	ErrLeadNotFound = errors.New("lead not found")
	ErrEmptyMessage = errors.New("message is required")
)

// Publisher receives the events the service emits. push.Publisher
// satisfies it.
type Publisher interface {
	MessageActivity(ctx context.Context, phone string) error
	NewMessage(ctx context.Context, msg model.ChatMessage) error
}

// Service holds leads and conversations in memory.
type Service struct {
	instanceID string
	publisher  Publisher
	now        func() time.Time

	mu            sync.RWMutex
	leads         []model.Lead
	conversations map[string][]model.ChatMessage
	nextLeadID    int64
	nextMessageID int64
	subscribers   map[string]int
}

func NewService(seed []model.Lead, publisher Publisher) *Service {
	s := &Service{
		instanceID:    "MOCK_LEADS_" + uuid.New().String()[:8],
		publisher:     publisher,
		now:           time.Now,
		conversations: make(map[string][]model.ChatMessage),
		subscribers:   make(map[string]int),
		nextLeadID:    1,
		nextMessageID: 1,
	}
	for _, l := range seed {
		if l.ID >= s.nextLeadID {
			s.nextLeadID = l.ID + 1
		}
		s.leads = append(s.leads, l)
	}
	return s
}

func (s *Service) InstanceID() string {
	return s.instanceID
}

func (s *Service) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

func (s *Service) Leads() []model.Lead {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.leads)
}

func (s *Service) indexOf(id int64) int {
	return slices.IndexFunc(s.leads, func(l model.Lead) bool { return l.ID == id })
}

func (s *Service) Create(in model.LeadInput) (model.Lead, error) {
	if err := in.Validate(); err != nil {
		return model.Lead{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l := model.Lead{
		ID:             s.nextLeadID,
		LeadName:       in.LeadName,
		LeadPhone:      in.LeadPhone,
		TgUsername:     in.TgUsername,
		BomText:        in.BomText,
		BomDate:        in.BomDate,
		BitText:        in.BitText,
		BitDate:        in.BitDate,
		PtText:         in.PtText,
		PtDate:         in.PtDate,
		WgText:         in.WgText,
		WgDate:         in.WgDate,
		NeedsAttention: in.NeedsAttention,
		OptedOut:       in.OptedOut,
		FuBomSent:      in.FuBomSent,
		FuBomConfirmed: in.FuBomConfirmed,
		Fu2BomSent:     in.Fu2BomSent,
		FuBitSent:      in.FuBitSent,
		Fu2BitSent:     in.Fu2BitSent,
		CreatedAt:      s.timestamp(),
	}
	s.nextLeadID++
	s.leads = append(s.leads, l)
	return l, nil
}

// Update overlays the present keys of updates on the stored lead.
func (s *Service) Update(id int64, updates model.LeadUpdate) (model.Lead, error) {
	if err := updates.Validate(); err != nil {
		return model.Lead{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i == -1 {
		return model.Lead{}, ErrLeadNotFound
	}

	raw, err := json.Marshal(s.leads[i])
	if err != nil {
		return model.Lead{}, err
	}
	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return model.Lead{}, err
	}
	for k, v := range updates {
		fields[k] = v
	}
	raw, err = json.Marshal(fields)
	if err != nil {
		return model.Lead{}, err
	}
	var updated model.Lead
	if err := json.Unmarshal(raw, &updated); err != nil {
		return model.Lead{}, err
	}
	updated.ID = s.leads[i].ID
	updated.CreatedAt = s.leads[i].CreatedAt
	s.leads[i] = updated
	return updated, nil
}

func (s *Service) Delete(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i == -1 {
		return ErrLeadNotFound
	}
	s.leads = slices.Delete(s.leads, i, i+1)
	return nil
}

// SwitchAttention flips needs_attention of the lead whose phone or id
// equals identifier.
func (s *Service) SwitchAttention(identifier string) (model.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.leads, func(l model.Lead) bool {
		return l.LeadPhone == identifier || strconv.FormatInt(l.ID, 10) == identifier
	})
	if i == -1 {
		return model.Lead{}, ErrLeadNotFound
	}
	s.leads[i].NeedsAttention = !s.leads[i].NeedsAttention
	return s.leads[i], nil
}

func (s *Service) leadByPhone(phone string) (model.Lead, bool) {
	i := slices.IndexFunc(s.leads, func(l model.Lead) bool { return l.LeadPhone == phone })
	if i == -1 {
		return model.Lead{}, false
	}
	return s.leads[i], true
}

func (s *Service) Conversations(phone string) ([]model.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.leadByPhone(phone); !ok {
		return nil, ErrLeadNotFound
	}
	out := slices.Clone(s.conversations[phone])
	if out == nil {
		out = []model.ChatMessage{}
	}
	return out, nil
}

// Send records an outgoing message and announces the activity.
func (s *Service) Send(ctx context.Context, phone, text string) (model.ChatMessage, error) {
	return s.record(ctx, phone, text, model.DirectionOutgoing)
}

// Receive records an incoming message as if the lead had written it.
func (s *Service) Receive(ctx context.Context, phone, text string) (model.ChatMessage, error) {
	return s.record(ctx, phone, text, model.DirectionIncoming)
}

func (s *Service) record(ctx context.Context, phone, text string, dir model.Direction) (model.ChatMessage, error) {
	if text == "" {
		return model.ChatMessage{}, ErrEmptyMessage
	}
	s.mu.Lock()
	lead, ok := s.leadByPhone(phone)
	if !ok {
		s.mu.Unlock()
		return model.ChatMessage{}, ErrLeadNotFound
	}
	ts := s.timestamp()
	msg := model.ChatMessage{
		LeadID:      lead.ID,
		MessageID:   s.nextMessageID,
		LeadName:    lead.LeadName,
		LeadPhone:   lead.LeadPhone,
		MessageText: text,
		Direction:   dir,
		Timestamp:   &ts,
	}
	s.nextMessageID++
	s.conversations[phone] = append(s.conversations[phone], msg)
	s.mu.Unlock()

	s.announce(ctx, msg)
	return msg, nil
}

func (s *Service) announce(ctx context.Context, msg model.ChatMessage) {
	if s.publisher == nil {
		return
	}
	if msg.Direction == model.DirectionIncoming {
		if err := s.publisher.NewMessage(ctx, msg); err != nil {
			log.Warn().Err(err).Str("phone", msg.LeadPhone).Msg("Failed to publish new message")
		}
	}
	if err := s.publisher.MessageActivity(ctx, msg.LeadPhone); err != nil {
		log.Warn().Err(err).Str("phone", msg.LeadPhone).Msg("Failed to publish message activity")
	}
}

// TrackSubscription applies a subscribe or unsubscribe event from a client.
func (s *Service) TrackSubscription(subscribe bool, phone string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if subscribe {
		s.subscribers[phone]++
		return
	}
	if s.subscribers[phone] <= 1 {
		delete(s.subscribers, phone)
		return
	}
	s.subscribers[phone]--
}

// Subscribers returns how many clients follow phone.
func (s *Service) Subscribers(phone string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.subscribers[phone]
}

// SubscriptionSource reports the lead subscription events clients emit.
// push.Publisher satisfies it.
type SubscriptionSource interface {
	LeadSubscriptions(ctx context.Context, fn func(event, phone string)) (stop func() error, err error)
}

// Follow keeps the subscriber counts in step with src until stop is called.
func (s *Service) Follow(ctx context.Context, src SubscriptionSource) (stop func() error, err error) {
	return src.LeadSubscriptions(ctx, func(event, phone string) {
		switch event {
		case push.EventSubscribeToLead:
			s.TrackSubscription(true, phone)
		case push.EventUnsubscribeFromLead:
			s.TrackSubscription(false, phone)
		default:
			return
		}
		log.Debug().Str("event", event).Str("phone", phone).Msg("Lead subscription changed")
	})
}
