package ioobject_test

import (
	"context"
	"strings"
	"testing"

	"github.com/gnames/fungidb/internal/ioobject"
	"github.com/gnames/fungidb/pkg/errcode"
	"github.com/gnames/gn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicURL(t *testing.T) {
	assert.Equal(t,
		"https://cdn.example.org/fungi/mushrooms/a-1.jpg",
		ioobject.PublicURL("https://cdn.example.org/fungi", "mushrooms/a-1.jpg"))
}

func TestPutNotConnected(t *testing.T) {
	st := ioobject.New()
	_, err := st.Put(context.Background(), "k", strings.NewReader("x"), 1,
		"image/jpeg")
	var gnErr *gn.Error
	require.ErrorAs(t, err, &gnErr)
	assert.Equal(t, errcode.UploadError, gnErr.Code)
}
