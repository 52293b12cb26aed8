package redisx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// Timeout harus masuk ke Options si client, bukan cuma ke copy yang dibuang.
func TestNewAppliesTimeouts(t *testing.T) {
	c := New("localhost:6379")
	defer c.Close()

	opts := c.Options()
	assert.Equal(t, 2*time.Second, opts.ReadTimeout)
	assert.Equal(t, 2*time.Second, opts.WriteTimeout)
}
