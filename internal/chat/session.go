// Package chat keeps the conversation of the selected lead and sends
// messages to it with an optimistic local echo.
package chat

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nimasrn/lead-desk/internal/api"
	"github.com/nimasrn/lead-desk/internal/model"
	"github.com/nimasrn/lead-desk/internal/push"
	"github.com/nimasrn/lead-desk/internal/store"
	"github.com/nimasrn/lead-desk/pkg/logger"
	"github.com/nimasrn/lead-desk/pkg/prom"
)

const (
	msgLoadFailed = "Failed to load conversations"
	msgSendFailed = "Failed to send message"
)

var errSendRejected = errors.New(msgSendFailed)

// provisionalSeq hands out message ids for local echoes. They are negative
// so they never collide with server ids.
var provisionalSeq atomic.Int64

func init() {
	provisionalSeq.Store(-time.Now().UnixMilli())
}

func nextProvisionalID() int64 {
	return provisionalSeq.Add(-1)
}

type ConversationService interface {
	GetConversations(ctx context.Context, phone string) ([]model.ChatMessage, error)
	SendMessage(ctx context.Context, phone, text string) (api.Ack, error)
}

// Selection yields the lead whose conversation is shown.
type Selection interface {
	SelectedLead() *model.Lead
}

// Session is safe for concurrent use. Fetches started by Bind and
// HandleActivity run in the background and are waited for by Close.
type Session struct {
	svc ConversationService
	sel Selection
	log logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.RWMutex
	messages []model.ChatMessage
	loading  bool
	sending  bool
	err      string
	closed   bool
	boundID  *int64

	subsMu sync.Mutex
	nextID int
	subs   map[int]func()
}

func NewSession(svc ConversationService, sel Selection) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		svc:      svc,
		sel:      sel,
		log:      logger.With("component", "chat_session"),
		ctx:      ctx,
		cancel:   cancel,
		messages: []model.ChatMessage{},
		subs:     make(map[int]func()),
	}
}

// Subscribe registers fn to run after every state change.
func (s *Session) Subscribe(fn func()) (cancel func()) {
	s.subsMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, id)
			s.subsMu.Unlock()
		})
	}
}

func (s *Session) notify() {
	s.subsMu.Lock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(), len(ids))
	for i, id := range ids {
		fns[i] = s.subs[id]
	}
	s.subsMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// commit applies fn unless the session was closed. It reports whether fn ran.
func (s *Session) commit(fn func()) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	fn()
	s.mu.Unlock()
	s.notify()
	return true
}

func (s *Session) Messages() []model.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.messages)
}

func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Session) Sending() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sending
}

func (s *Session) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func reason(err error) string {
	if err == nil || err.Error() == "" {
		return "Unknown error"
	}
	return err.Error()
}

// Fetch replaces the conversation with the one stored for the selected lead.
// A response for a lead that is no longer selected is discarded.
func (s *Session) Fetch(ctx context.Context) error {
	lead := s.sel.SelectedLead()
	if lead == nil {
		return nil
	}
	phone := lead.LeadPhone

	if !s.commit(func() {
		s.loading = true
		s.err = ""
	}) {
		return nil
	}

	msgs, err := s.svc.GetConversations(ctx, phone)

	current := s.sel.SelectedLead()
	stale := current == nil || current.LeadPhone != phone
	s.commit(func() {
		s.loading = false
		if stale {
			return
		}
		if err != nil {
			s.err = msgLoadFailed + ": " + reason(err)
			return
		}
		if msgs == nil {
			msgs = []model.ChatMessage{}
		}
		s.messages = msgs
	})
	if err != nil {
		s.log.Warn("conversation fetch failed", "phone", phone, "error", err)
		return err
	}
	return nil
}

// Send shows text as a provisional outgoing message right away, then posts
// it. On success the conversation is re-fetched; otherwise the provisional
// message is removed again.
func (s *Session) Send(ctx context.Context, text string) error {
	lead := s.sel.SelectedLead()
	if lead == nil || strings.TrimSpace(text) == "" {
		return nil
	}

	pending := model.ChatMessage{
		LeadID:      lead.ID,
		MessageID:   nextProvisionalID(),
		LeadName:    lead.LeadName,
		LeadPhone:   lead.LeadPhone,
		MessageText: text,
		Direction:   model.DirectionOutgoing,
	}
	if !s.commit(func() {
		s.messages = append(s.messages, pending)
		s.sending = true
		s.err = ""
	}) {
		return nil
	}

	ack, err := s.svc.SendMessage(ctx, lead.LeadPhone, text)
	if err == nil && !ack.Success {
		err = errSendRejected
	}
	if err != nil {
		prom.IncChatSendRollback()
		s.log.Warn("message send failed", "phone", lead.LeadPhone, "error", err)
		s.commit(func() {
			s.messages = slices.DeleteFunc(s.messages, func(m model.ChatMessage) bool {
				return m.MessageID == pending.MessageID
			})
			s.sending = false
			s.err = msgSendFailed + ": " + reason(err)
		})
		return err
	}

	s.commit(func() { s.sending = false })
	return s.Fetch(ctx)
}

// background runs a fetch tied to the session lifetime.
func (s *Session) background() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()
	go func() {
		defer s.wg.Done()
		_ = s.Fetch(s.ctx)
	}()
}

// HandleActivity re-fetches when the activity concerns the selected lead.
// It returns immediately and suits being registered as a push handler.
func (s *Session) HandleActivity(a push.Activity) {
	lead := s.sel.SelectedLead()
	if lead == nil || a.LeadPhone != lead.LeadPhone {
		return
	}
	s.background()
}

// Bind follows the selection of st: a newly selected lead gets its
// conversation fetched and deselecting clears it.
func (s *Session) Bind(st *store.Store) (cancel func()) {
	s.onSelection()
	return st.Subscribe(func(c store.Change) {
		if c.Has(store.ChangeSelection) {
			s.onSelection()
		}
	})
}

func (s *Session) onSelection() {
	lead := s.sel.SelectedLead()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if lead == nil {
		changed := s.boundID != nil
		s.boundID = nil
		s.messages = []model.ChatMessage{}
		s.mu.Unlock()
		if changed {
			s.notify()
		}
		return
	}
	if s.boundID != nil && *s.boundID == lead.ID {
		s.mu.Unlock()
		return
	}
	id := lead.ID
	s.boundID = &id
	s.mu.Unlock()

	s.background()
}

// Close discards the session. Commits from calls still in flight are
// dropped and background fetches are waited for.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
	s.wg.Wait()
}
