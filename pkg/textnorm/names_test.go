package textnorm_test

import (
	"testing"

	"github.com/gnames/fungidb/pkg/textnorm"
	"github.com/stretchr/testify/assert"
)

func TestCommonName(t *testing.T) {
	tests := []struct {
		msg   string
		notes string
		res   string
	}{
		{
			"sentinel",
			`Random preamble. "Common Name: Plums and Custard" ...`,
			"Plums and Custard",
		},
		{
			"first match wins",
			`"Common Name: Fly Agaric" and "Common Name: Fly Amanita"`,
			"Fly Agaric",
		},
		{"case sensitive", `"common name: Chanterelle"`, ""},
		{"unquoted", `Common Name: Chanterelle`, ""},
		{"absent", "", ""},
	}

	for _, v := range tests {
		t.Run(v.msg, func(t *testing.T) {
			assert.Equal(t, v.res, textnorm.CommonName(v.notes))
		})
	}
}

func TestCurrentName(t *testing.T) {
	tests := []struct {
		msg   string
		notes string
		res   string
	}{
		{
			"next line",
			"Current Name:\\n\\n_Gymnopilus luteus_\\nother text",
			"Gymnopilus luteus",
		},
		{"same line", "Current Name: Tricholomopsis rutilans", "Tricholomopsis rutilans"},
		{"no value", "Current Name:\\n \\n", ""},
		{"case sensitive", "current name: X", ""},
		{"absent", "Some notes", ""},
	}

	for _, v := range tests {
		t.Run(v.msg, func(t *testing.T) {
			assert.Equal(t, v.res, textnorm.CurrentName(v.notes))
		})
	}
}
