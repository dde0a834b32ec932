package ioobject

import (
	"fmt"

	"github.com/gnames/fungidb/pkg/errcode"
	"github.com/gnames/gn"
)

// ConnectionError is returned when the object store is not reachable
// or the bucket does not exist.
func ConnectionError(endpoint, bucket string, err error) error {
	msg := `Cannot use object store bucket <em>%s</em> at <em>%s</em>

<em>How to fix:</em>
  1. Check object_store.endpoint and credentials
  2. Create the bucket and make it publicly readable`

	return &gn.Error{
		Code: errcode.ObjectStoreConnectionError,
		Msg:  msg,
		Vars: []any{bucket, endpoint},
		Err:  fmt.Errorf("object store %s/%s: %w", endpoint, bucket, err),
	}
}

// UploadError is returned when an object cannot be written.
func UploadError(key string, err error) error {
	return &gn.Error{
		Code: errcode.UploadError,
		Msg:  "Cannot upload <em>%s</em>",
		Vars: []any{key},
		Err:  fmt.Errorf("upload %s: %w", key, err),
	}
}
