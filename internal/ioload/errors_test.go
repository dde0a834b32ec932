package ioload

import (
	"context"
	"errors"
	"testing"

	"github.com/gnames/fungidb/pkg/errcode"
	"github.com/gnames/gn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrors(t *testing.T) {
	cause := errors.New("connection reset")

	tests := []struct {
		msg  string
		err  error
		code gn.ErrorCode
	}{
		{"not connected", NotConnectedError(), errcode.StoreNotConnectedError},
		{"cancelled", CancelledError(context.Canceled), errcode.CancelledError},
		{"upsert", UpsertError(3, cause), errcode.UpsertError},
		{"partial", PartialFailureError(2, 1), errcode.PartialFailureError},
	}

	for _, v := range tests {
		t.Run(v.msg, func(t *testing.T) {
			var gnErr *gn.Error
			require.True(t, errors.As(v.err, &gnErr))
			assert.Equal(t, v.code, gnErr.Code)
			assert.NotEmpty(t, gnErr.Msg)
			require.Error(t, gnErr.Err)
		})
	}

	var gnErr *gn.Error
	require.True(t, errors.As(UpsertError(3, cause), &gnErr))
	assert.ErrorIs(t, gnErr.Err, cause)
	assert.Equal(t, []any{3}, gnErr.Vars)

	require.True(t, errors.As(PartialFailureError(2, 1), &gnErr))
	assert.Equal(t, "load: 2 row errors, 1 rejected records", gnErr.Err.Error())
}
