package signal

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestJoinRateLimiter(t *testing.T) {
	rl := NewJoinRateLimiter(2, time.Minute)
	u1, u2 := uuid.New(), uuid.New()

	assert.True(t, rl.Allow(u1))
	assert.True(t, rl.Allow(u1))
	assert.False(t, rl.Allow(u1), "third attempt inside the window")
	assert.True(t, rl.Allow(u2), "limits are per user")
}

func TestJoinRateLimiter_WindowSlides(t *testing.T) {
	rl := NewJoinRateLimiter(1, 10*time.Millisecond)
	u := uuid.New()

	assert.True(t, rl.Allow(u))
	assert.False(t, rl.Allow(u))
	time.Sleep(20 * time.Millisecond)
	assert.True(t, rl.Allow(u), "stale attempts fall out of the window")
}
