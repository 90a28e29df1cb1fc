package redis

import (
	"context"
	"sync"

	goredis "github.com/redis/go-redis/v9"
)

var NilError = goredis.Nil

type Options = goredis.UniversalOptions

type PubSub = goredis.PubSub

type Message = goredis.Message

// RedisAdapter is the subset of redis used by the push channel and the mock
// lead service. Every key and channel name is prefixed.
type RedisAdapter interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channels ...string) (*PubSub, error)
	Channel(name string) string
	Strip(name string) string
	Client() goredis.UniversalClient
	Close() error
}

type redisAdapter struct {
	prefix   string
	Conn     goredis.UniversalClient
	ConnName string
}

var redisLock = &sync.RWMutex{}
var redisInstance map[string]RedisAdapter

func NewRedisAdapter(connName string, keysPrefix string, opts *goredis.UniversalOptions) (RedisAdapter, error) {
	redisLock.RLock()
	if redisInstance != nil {
		if adapter, ok := redisInstance[connName]; ok {
			redisLock.RUnlock()
			return adapter, nil
		}
	}
	redisLock.RUnlock()

	redisLock.Lock()
	if redisInstance == nil {
		redisInstance = make(map[string]RedisAdapter)
	}
	if adapter, ok := redisInstance[connName]; ok {
		redisLock.Unlock()
		return adapter, nil
	}
	redisLock.Unlock()

	c := goredis.NewUniversalClient(opts)
	if cmd := c.Ping(context.Background()); cmd.Err() != nil {
		_ = c.Close()
		return nil, cmd.Err()
	}

	adapter := &redisAdapter{
		Conn:     c,
		prefix:   keysPrefix,
		ConnName: connName,
	}

	redisLock.Lock()
	redisInstance[connName] = adapter
	redisLock.Unlock()

	return adapter, nil
}

func GetRedis(connName ...string) RedisAdapter {
	redisLock.RLock()
	defer redisLock.RUnlock()

	name := "default"
	if len(connName) > 0 && connName[0] != "" {
		name = connName[0]
	}

	if adapter, ok := redisInstance[name]; ok {
		return adapter
	}

	// Fallback to default
	return redisInstance["default"]
}

func (r *redisAdapter) Publish(ctx context.Context, channel string, payload []byte) error {
	return r.Conn.Publish(ctx, r.prefix+channel, payload).Err()
}

// Subscribe subscribes to the prefixed channels and waits for the server
// to confirm, so messages published after it returns are not missed.
func (r *redisAdapter) Subscribe(ctx context.Context, channels ...string) (*PubSub, error) {
	names := make([]string, len(channels))
	for i, ch := range channels {
		names[i] = r.prefix + ch
	}
	ps := r.Conn.Subscribe(ctx, names...)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}
	return ps, nil
}

func (r *redisAdapter) Channel(name string) string {
	return r.prefix + name
}

func (r *redisAdapter) Strip(name string) string {
	if len(name) >= len(r.prefix) && name[:len(r.prefix)] == r.prefix {
		return name[len(r.prefix):]
	}
	return name
}

func (r *redisAdapter) Client() goredis.UniversalClient {
	return r.Conn
}

// Close closes the connection and forgets the named instance.
func (r *redisAdapter) Close() error {
	redisLock.Lock()
	if redisInstance[r.ConnName] == RedisAdapter(r) {
		delete(redisInstance, r.ConnName)
	}
	redisLock.Unlock()
	return r.Conn.Close()
}
