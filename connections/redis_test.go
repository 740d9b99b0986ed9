package connections

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gomodule/redigo/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.RequireAuth("pw")

	pool := Redis(mr.Addr(), "pw")
	defer pool.Close()

	conn := pool.Get()
	defer conn.Close()

	pong, err := redis.String(conn.Do("PING"))
	require.NoError(t, err)
	assert.Equal(t, "PONG", pong)
}

func TestRedis_WrongPassword(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.RequireAuth("pw")

	pool := Redis(mr.Addr(), "nope")
	defer pool.Close()

	conn := pool.Get()
	defer conn.Close()
	assert.Error(t, conn.Err())
}
