package friendship

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusIsTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.True(t, StatusAccepted.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())
}

func TestDecisionResolve(t *testing.T) {
	status, ok := DecisionAccept.Resolve()
	assert.True(t, ok)
	assert.Equal(t, StatusAccepted, status)

	status, ok = DecisionReject.Resolve()
	assert.True(t, ok)
	assert.Equal(t, StatusRejected, status)

	_, ok = Decision("block").Resolve()
	assert.False(t, ok)

	_, ok = Decision("").Resolve()
	assert.False(t, ok)
}
