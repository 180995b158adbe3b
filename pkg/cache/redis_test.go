package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisCache_RejectsBadPort(t *testing.T) {
	_, err := NewRedisCache(RedisConfig{Host: "localhost", Port: 70000})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis config")
}

func TestRedisCache_WrapKey(t *testing.T) {
	c := &RedisCache{prefix: "marketsim"}
	assert.Equal(t, "marketsim:portfolio:42", c.wrapKey("portfolio:42"))
	assert.Equal(t, []string{"marketsim:a", "marketsim:b"}, c.wrapKeys("a", "b"))

	bare := &RedisCache{}
	assert.Equal(t, "a", bare.wrapKey("a"))
}
