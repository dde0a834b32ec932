package ioacquire

import (
	"fmt"

	"github.com/gnames/fungidb/pkg/errcode"
	"github.com/gnames/gn"
)

// PartialFailureError is returned when a pass exceeds its failure
// budget.
func PartialFailureError(passID string, failed, budget int) error {
	msg := `Image pass <em>%s</em> stopped after <em>%d</em> failures

<em>How to fix:</em>
  1. Check that the upstream origin and the object store are reachable
  2. Raise acquirer.max_failures or set it to 0 for no limit`

	return &gn.Error{
		Code: errcode.PartialFailureError,
		Msg:  msg,
		Vars: []any{passID, failed},
		Err: fmt.Errorf("pass %s: %d failures exceed budget %d",
			passID, failed, budget),
	}
}

// CancelledError is returned when a pass is interrupted.
func CancelledError(passID string, err error) error {
	return &gn.Error{
		Code: errcode.CancelledError,
		Msg:  "Image pass <em>%s</em> was cancelled",
		Vars: []any{passID},
		Err:  fmt.Errorf("pass %s cancelled: %w", passID, err),
	}
}
