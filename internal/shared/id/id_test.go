package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRequestID(t *testing.T) {
	id := NewRequestID()

	assert.True(t, strings.HasPrefix(id.String(), "req_"))
	assert.True(t, IsValid(strings.TrimPrefix(id.String(), "req_")))
}

func TestNewSessionID(t *testing.T) {
	id := NewSessionID()

	assert.True(t, strings.HasPrefix(id.String(), "sess_"))
}

func TestUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		s := NewUUID()
		assert.False(t, seen[s], "duplicate UUID generated")
		seen[s] = true
	}
}

func TestNewUUID(t *testing.T) {
	u := NewUUID()

	assert.Len(t, u, 36)
	assert.True(t, IsUUID(u))
	assert.False(t, IsUUID("not-a-uuid"))
}

func TestTimestamp(t *testing.T) {
	g := NewGenerator()
	ulidStr := g.GenerateString()

	ts, err := Timestamp(ulidStr)
	assert.NoError(t, err)
	assert.False(t, ts.IsZero())

	_, err = Timestamp("garbage")
	assert.Error(t, err)
}
