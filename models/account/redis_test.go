package account

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gomodule/redigo/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredisStore(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	pool := &redis.Pool{
		MaxIdle: 8,
		Dial: func() (redis.Conn, error) {
			return redis.Dial("tcp", mr.Addr())
		},
	}
	t.Cleanup(func() { pool.Close() })
	return NewRedis(pool), mr
}

func TestRedisStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		s, _ := newMiniredisStore(t)
		return s
	})
}

func TestRedis_Keys(t *testing.T) {
	s, mr := newMiniredisStore(t)
	created, err := s.Insert(context.Background(), newTestAccount("a@x.com"))
	require.NoError(t, err)

	id, err := mr.Get("account:email:a@x.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, id)
	assert.True(t, mr.Exists("account:"+created.ID))

	members, err := mr.Members("accounts")
	require.NoError(t, err)
	assert.Equal(t, []string{created.ID}, members)
}

func TestRedis_Ping(t *testing.T) {
	s, mr := newMiniredisStore(t)
	assert.NoError(t, s.Ping(context.Background()))

	mr.Close()
	assert.Error(t, s.Ping(context.Background()))
}
