package iofs

import (
	"errors"
	"testing"

	"github.com/gnames/fungidb/pkg/errcode"
	"github.com/gnames/gn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrors(t *testing.T) {
	cause := errors.New("permission denied")

	tests := []struct {
		msg  string
		err  error
		code gn.ErrorCode
		arg  string
		text string
	}{
		{"create dir", CreateDirError("/a/b", cause),
			errcode.CreateDirError, "/a/b", "cannot create"},
		{"copy file", CopyFileError("/a/config.yaml", cause),
			errcode.CopyFileError, "/a/config.yaml", "cannot copy"},
		{"read file", ReadFileError("/a/names.csv", cause),
			errcode.ReadFileError, "/a/names.csv", "cannot read"},
		{"create file", CreateFileError("/a/out.jsonl", cause),
			errcode.CreateFileError, "/a/out.jsonl", "cannot create"},
	}

	for _, v := range tests {
		t.Run(v.msg, func(t *testing.T) {
			var gnErr *gn.Error
			require.True(t, errors.As(v.err, &gnErr))
			assert.Equal(t, v.code, gnErr.Code)
			assert.Contains(t, gnErr.Msg, "%s")
			require.Len(t, gnErr.Vars, 1)
			assert.Equal(t, v.arg, gnErr.Vars[0])
			assert.ErrorIs(t, gnErr.Err, cause)
			assert.Contains(t, gnErr.Err.Error(), v.text)
			assert.Contains(t, gnErr.Err.Error(), "TestErrors")
		})
	}
}
