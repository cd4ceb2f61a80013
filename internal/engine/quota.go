package engine

import (
	"errors"
	"fmt"
)

// DefaultMaxFirings is the engine's default firing cap. Zero means every
// matching rule fires; WithMaxFirings opts into a cap.
const DefaultMaxFirings = 0

// firingQuota counts rule firings within one dispatch. Once the limit is
// reached, remaining matching rules are skipped.
type firingQuota struct {
	limit   int
	current int
}

func newFiringQuota(limit int) *firingQuota {
	return &firingQuota{limit: limit}
}

// Check counts one firing and fails once the limit is passed. A limit of 0
// or less disables the quota.
func (q *firingQuota) Check(seq int64) error {
	q.current++
	if q.limit > 0 && q.current > q.limit {
		return &FiringsExceededError{Seq: seq, Firings: q.current, Limit: q.limit}
	}
	return nil
}

// FiringsExceededError is returned when a dispatch exceeds its firing quota.
type FiringsExceededError struct {
	Seq     int64
	Firings int
	Limit   int
}

func (e *FiringsExceededError) Error() string {
	return fmt.Sprintf("dispatch %d exceeded firing quota: %d firings > %d limit", e.Seq, e.Firings, e.Limit)
}

// IsFiringsExceededError reports whether err is a FiringsExceededError.
func IsFiringsExceededError(err error) bool {
	var fe *FiringsExceededError
	return errors.As(err, &fe)
}
