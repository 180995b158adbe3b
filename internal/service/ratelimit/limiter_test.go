package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiter_BurstPerKey(t *testing.T) {
	l := New(0.001, 2)

	assert.True(t, l.Allow("alice"))
	assert.True(t, l.Allow("alice"))
	assert.False(t, l.Allow("alice"))

	assert.True(t, l.Allow("bob"), "keys are independent")
}

func TestLimiter_Prune(t *testing.T) {
	l := New(1, 1)
	l.Allow("alice")

	assert.Equal(t, 0, l.Prune(time.Hour))
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 1, l.Prune(time.Millisecond))
}
