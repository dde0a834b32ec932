package iofetch

import (
	"fmt"

	"github.com/gnames/fungidb/pkg/errcode"
	"github.com/gnames/gn"
)

// FetchError is returned when an image cannot be downloaded.
// Msg keeps a short reason that is stored with the record.
func FetchError(url, reason string, err error) error {
	return &gn.Error{
		Code: errcode.FetchError,
		Msg:  reason,
		Vars: nil,
		Err:  fmt.Errorf("fetch %s: %s: %w", url, reason, err),
	}
}
