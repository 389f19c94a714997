package tokenmgr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateTransitions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from, to State
		allowed  bool
	}{
		{StateAnonymous, StateAuthenticated, true},  // login
		{StateAnonymous, StateAnonymous, true},      // idempotent logout
		{StateAnonymous, StateRefreshing, false},    // nothing to refresh
		{StateAuthenticated, StateRefreshing, true}, // 401 observed
		{StateAuthenticated, StateAnonymous, true},  // logout
		{StateRefreshing, StateAuthenticated, true}, // refresh succeeded
		{StateRefreshing, StateAnonymous, true},     // refresh failed
		{StateRefreshing, StateRefreshing, false},   // single cycle at a time
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.canTransition(tc.to),
			"%s → %s", tc.from, tc.to)
	}
}
