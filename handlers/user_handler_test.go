package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// Activation links stay valid for two days, matching the lifetime the
// activation emails advertise.
func TestActivationTokenLifetimeIsTwoDays(t *testing.T) {
	assert.Equal(t, 48*time.Hour, activationTokenTTL)
}
