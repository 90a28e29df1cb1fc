package mockapi_test

import (
	"context"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/nimasrn/lead-desk/internal/api"
	"github.com/nimasrn/lead-desk/internal/chat"
	"github.com/nimasrn/lead-desk/internal/filter"
	"github.com/nimasrn/lead-desk/internal/mockapi"
	"github.com/nimasrn/lead-desk/internal/model"
	"github.com/nimasrn/lead-desk/internal/push"
	"github.com/nimasrn/lead-desk/internal/store"
	"github.com/nimasrn/lead-desk/pkg/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func seedLeads() []model.Lead {
	return []model.Lead{
		{ID: 1, LeadName: "Ann", LeadPhone: "555-0001", CreatedAt: "2024-01-03T00:00:00Z"},
		{ID: 2, LeadName: "Bob", LeadPhone: "555-0002", BomText: strPtr("sent"), CreatedAt: "2024-01-01T00:00:00Z"},
		{ID: 3, LeadName: "Cid", LeadPhone: "", TgUsername: strPtr("@cid"), OptedOut: true, CreatedAt: "2024-01-02T00:00:00Z"},
	}
}

type env struct {
	svc    *mockapi.Service
	client *api.Client
	store  *store.Store
	rdb    redis.RedisAdapter
}

func setup(t *testing.T) env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	rdb, err := redis.NewRedisAdapter(t.Name()+"-"+mr.Addr(), "leaddesk:", &redis.Options{Addrs: []string{mr.Addr()}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	svc := mockapi.NewService(seedLeads(), push.NewPublisher(rdb))
	srv := httptest.NewServer(mockapi.SetupRouter(mockapi.NewHandler(svc), "/api", api.DefaultRoutes))
	t.Cleanup(srv.Close)

	client, err := api.NewClient(&api.Config{BaseURL: srv.URL + "/api", Timeout: 2 * time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	st := store.New(client)
	require.NoError(t, st.FetchLeads(context.Background()))
	return env{svc: svc, client: client, store: st, rdb: rdb}
}

func TestEndToEnd_LeadLifecycle(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	leads := e.store.Leads()
	require.Len(t, leads, 3)
	assert.Equal(t, "@cid", leads[2].LeadPhone)

	created, err := e.store.CreateLead(ctx, model.LeadInput{LeadName: "Dee", LeadPhone: "555-0004"})
	require.NoError(t, err)
	require.NotNil(t, e.store.SelectedLead())
	assert.Equal(t, created.ID, e.store.SelectedLead().ID)

	_, err = e.store.UpdateLead(ctx, created.ID, model.LeadUpdate{model.FieldOptedOut: true})
	require.NoError(t, err)
	got, ok := e.store.GetLeadByID(created.ID)
	require.True(t, ok)
	assert.True(t, got.OptedOut)

	require.NoError(t, e.store.SwitchAttention(ctx, "555-0001"))
	got, _ = e.store.GetLeadByID(1)
	assert.True(t, got.NeedsAttention)

	require.NoError(t, e.store.DeleteLead(ctx, created.ID))
	assert.Len(t, e.store.Leads(), 3)
	assert.Nil(t, e.store.SelectedLead())

	_, err = e.store.UpdateLead(ctx, 99, model.LeadUpdate{model.FieldOptedOut: true})
	require.Error(t, err)
	assert.Equal(t, "Lead not found", e.store.Error())
}

func TestEndToEnd_PresetOverRemoteLeads(t *testing.T) {
	e := setup(t)

	sel := store.NewPresetSelector(e.store, filter.Presets())
	defer sel.Close()

	require.NoError(t, sel.Toggle(filter.PresetBOM))
	// Cid lacks the BOM text and opted out; the others stay
	view := e.store.Filtered()
	require.Len(t, view, 2)
	assert.Equal(t, int64(1), view[0].ID)
	assert.Equal(t, int64(2), view[1].ID)

	e.store.SortLeads(model.FieldCreatedAt, filter.Desc)
	require.NoError(t, sel.Toggle(filter.PresetBOM))
	assert.False(t, e.store.Filtering())
	assert.Equal(t, e.store.Leads(), e.store.Filtered())
}

func TestEndToEnd_ChatWithPush(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	stop, err := e.svc.Follow(ctx, push.NewPublisher(e.rdb))
	require.NoError(t, err)
	defer func() { _ = stop() }()

	ch := push.NewChannel(e.rdb)
	require.NoError(t, ch.Connect(ctx))
	defer func() { _ = ch.Disconnect() }()

	session := chat.NewSession(e.client, e.store)
	defer session.Close()
	unbind := session.Bind(e.store)
	defer unbind()
	ch.OnMessageActivity(session.HandleActivity)

	var commits atomic.Int32
	session.Subscribe(func() { commits.Add(1) })

	// the selection fetch commits twice: loading on, then the result
	e.store.SelectLeadByID(1)
	require.Eventually(t, func() bool { return commits.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, ch.SubscribeToLead(ctx, "555-0001"))
	assert.Eventually(t, func() bool { return e.svc.Subscribers("555-0001") == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, session.Send(ctx, "hello"))
	msgs := session.Messages()
	require.Len(t, msgs, 1)
	assert.False(t, msgs[0].Pending())
	assert.Equal(t, "hello", msgs[0].MessageText)

	_, err = e.svc.Receive(ctx, "555-0001", "hi there")
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return len(session.Messages()) == 2 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, ch.UnsubscribeFromLead(ctx, "555-0001"))
	assert.Eventually(t, func() bool { return e.svc.Subscribers("555-0001") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestEndToEnd_SendToUnknownPhoneRollsBack(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	require.NoError(t, e.store.DeleteLead(ctx, 1))
	session := chat.NewSession(e.client, staticSelection{lead: model.Lead{ID: 1, LeadName: "Ann", LeadPhone: "555-0001"}})
	defer session.Close()

	require.Error(t, session.Send(ctx, "anyone there"))
	assert.Empty(t, session.Messages())
	assert.Equal(t, "Failed to send message: Failed to send message", session.Error())
}

type staticSelection struct {
	lead model.Lead
}

func (s staticSelection) SelectedLead() *model.Lead {
	l := s.lead
	return &l
}
