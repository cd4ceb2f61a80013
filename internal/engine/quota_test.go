package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFiringQuota(t *testing.T) {
	tests := []struct {
		name    string
		limit   int
		firings int
		wantErr bool
	}{
		{"under limit", 3, 2, false},
		{"at limit", 3, 3, false},
		{"over limit", 3, 4, true},
		{"disabled", 0, 1000, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q := newFiringQuota(tc.limit)
			var err error
			for i := 0; i < tc.firings && err == nil; i++ {
				err = q.Check(7)
			}
			if !tc.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var fe *FiringsExceededError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, FiringsExceededError{Seq: 7, Firings: 4, Limit: 3}, *fe)
			assert.Equal(t, "dispatch 7 exceeded firing quota: 4 firings > 3 limit", err.Error())
		})
	}
}

func TestIsQuotaError_Wrapped(t *testing.T) {
	inner := &FiringsExceededError{Seq: 1, Firings: 2, Limit: 1}
	assert.True(t, IsQuotaError(fmt.Errorf("dispatch: %w", inner)))
	assert.True(t, IsQuotaError(&RuntimeError{Code: ErrCodeQuotaExceeded}))
	assert.False(t, IsQuotaError(&RuntimeError{Code: ErrCodeRulePanic}))
	assert.False(t, IsPanicError(inner))
}

func TestRuntimeError_Message(t *testing.T) {
	r := NewRule("id", "zombies", nil, nil)
	err := newPanicError(3, r, "execute", "nil map")
	assert.Equal(t, "RULE_PANIC: panic during execute: nil map (seq=3, rule=zombies)", err.Error())
	assert.Equal(t, "QUOTA_EXCEEDED: too many (seq=9)", (&RuntimeError{Code: ErrCodeQuotaExceeded, Message: "too many", Seq: 9}).Error())
}
