package push

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/nimasrn/lead-desk/internal/model"
	"github.com/nimasrn/lead-desk/pkg/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPrefix = "leaddesk:"

func setupTestRedis(t *testing.T) (redis.RedisAdapter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	adapter, err := redis.NewRedisAdapter(t.Name()+"-"+mr.Addr(), testPrefix, &redis.Options{Addrs: []string{mr.Addr()}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = adapter.Close() })
	return adapter, mr
}

func connected(t *testing.T) (*Channel, *Publisher, *miniredis.Miniredis) {
	t.Helper()
	rdb, mr := setupTestRedis(t)
	ch := NewChannel(rdb)
	require.NoError(t, ch.Connect(context.Background()))
	t.Cleanup(func() { _ = ch.Disconnect() })
	return ch, NewPublisher(rdb), mr
}

func TestChannel_MessageActivity(t *testing.T) {
	ch, pub, _ := connected(t)

	got := make(chan Activity, 1)
	ch.OnMessageActivity(func(a Activity) { got <- a })

	require.NoError(t, pub.MessageActivity(context.Background(), "555-0001"))

	select {
	case a := <-got:
		assert.Equal(t, "555-0001", a.LeadPhone)
	case <-time.After(2 * time.Second):
		t.Fatal("activity not delivered")
	}
}

func TestChannel_OffMessageActivity(t *testing.T) {
	ch, pub, _ := connected(t)

	removed := make(chan Activity, 1)
	kept := make(chan Activity, 1)
	id := ch.OnMessageActivity(func(a Activity) { removed <- a })
	ch.OnMessageActivity(func(a Activity) { kept <- a })
	ch.OffMessageActivity(id)

	require.NoError(t, pub.MessageActivity(context.Background(), "555-0001"))

	select {
	case <-kept:
	case <-time.After(2 * time.Second):
		t.Fatal("activity not delivered")
	}
	assert.Empty(t, removed)
}

func TestChannel_NewMessage(t *testing.T) {
	ch, pub, _ := connected(t)

	got := make(chan NewMessage, 1)
	ch.OnNewMessage(func(m NewMessage) { got <- m })

	require.NoError(t, pub.NewMessage(context.Background(), model.ChatMessage{LeadPhone: "555-0002", MessageID: 7, MessageText: "hey"}))

	select {
	case m := <-got:
		assert.Equal(t, "555-0002", m.LeadPhone)
		require.NotNil(t, m.Message)
		assert.Equal(t, int64(7), m.Message.MessageID)
	case <-time.After(2 * time.Second):
		t.Fatal("new-message not delivered")
	}
}

func TestChannel_MalformedAndPanickingHandlersAreSurvived(t *testing.T) {
	ch, pub, mr := connected(t)

	got := make(chan Activity, 2)
	ch.OnMessageActivity(func(a Activity) {
		if a.LeadPhone == "boom" {
			panic("handler bug")
		}
		got <- a
	})

	mr.Publish(testPrefix+EventMessageActivity, "not json")
	mr.Publish(testPrefix+EventMessageActivity, `{"leadPhone":""}`)
	require.NoError(t, pub.MessageActivity(context.Background(), "boom"))
	require.NoError(t, pub.MessageActivity(context.Background(), "555-0003"))

	select {
	case a := <-got:
		assert.Equal(t, "555-0003", a.LeadPhone)
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch stopped after bad events")
	}
}

func TestChannel_SubscribeToLead(t *testing.T) {
	ch, pub, _ := connected(t)

	events := make(chan [2]string, 2)
	stop, err := pub.LeadSubscriptions(context.Background(), func(event, phone string) {
		events <- [2]string{event, phone}
	})
	require.NoError(t, err)
	defer stop()

	require.NoError(t, ch.SubscribeToLead(context.Background(), "555-0001"))
	require.NoError(t, ch.UnsubscribeFromLead(context.Background(), "555-0001"))

	for _, want := range [][2]string{{EventSubscribeToLead, "555-0001"}, {EventUnsubscribeFromLead, "555-0001"}} {
		select {
		case e := <-events:
			assert.Equal(t, want, e)
		case <-time.After(2 * time.Second):
			t.Fatalf("missing %s", want[0])
		}
	}
}

func TestChannel_ConnectLifecycle(t *testing.T) {
	rdb, mr := setupTestRedis(t)
	ch := NewChannel(rdb)

	assert.False(t, ch.Connected())
	assert.ErrorIs(t, ch.SubscribeToLead(context.Background(), "x"), ErrNotConnected)
	assert.NoError(t, ch.Disconnect())

	require.NoError(t, ch.Connect(context.Background()))
	require.NoError(t, ch.Connect(context.Background()))
	assert.True(t, ch.Connected())
	assert.ElementsMatch(t, []string{testPrefix + EventMessageActivity, testPrefix + EventNewMessage}, mr.PubSubChannels(""))

	require.NoError(t, ch.Disconnect())
	assert.False(t, ch.Connected())
}
