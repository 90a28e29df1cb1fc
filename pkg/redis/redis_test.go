package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T, prefix string) (RedisAdapter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	adapter, err := NewRedisAdapter(t.Name()+"-"+mr.Addr(), prefix, &Options{Addrs: []string{mr.Addr()}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = adapter.Close() })
	return adapter, mr
}

func TestNewRedisAdapter_SameNameReturnsSameInstance(t *testing.T) {
	mr := miniredis.RunT(t)
	name := t.Name() + "-" + mr.Addr()
	a, err := NewRedisAdapter(name, "p:", &Options{Addrs: []string{mr.Addr()}})
	require.NoError(t, err)
	defer a.Close()

	b, err := NewRedisAdapter(name, "other:", &Options{Addrs: []string{mr.Addr()}})
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Same(t, a, GetRedis(name))
}

func TestNewRedisAdapter_Unreachable(t *testing.T) {
	_, err := NewRedisAdapter(t.Name(), "", &Options{Addrs: []string{"127.0.0.1:1"}, DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	assert.Error(t, err)
}

func TestPublishSubscribe_Prefixed(t *testing.T) {
	adapter, mr := setupTestRedis(t, "leaddesk:")
	ctx := context.Background()

	ps, err := adapter.Subscribe(ctx, "message-activity")
	require.NoError(t, err)
	defer ps.Close()

	assert.Equal(t, []string{"leaddesk:message-activity"}, mr.PubSubChannels(""))

	require.NoError(t, adapter.Publish(ctx, "message-activity", []byte(`{"leadPhone":"+1"}`)))

	select {
	case msg := <-ps.Channel():
		assert.Equal(t, "leaddesk:message-activity", msg.Channel)
		assert.Equal(t, "message-activity", adapter.Strip(msg.Channel))
		assert.Equal(t, `{"leadPhone":"+1"}`, msg.Payload)
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered")
	}
}

func TestChannelAndStrip(t *testing.T) {
	adapter, _ := setupTestRedis(t, "x:")
	assert.Equal(t, "x:new-message", adapter.Channel("new-message"))
	assert.Equal(t, "unprefixed", adapter.Strip("unprefixed"))
}
