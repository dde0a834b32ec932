package species

import (
	"github.com/gnames/gnfmt"
)

// Encode converts a record to the JSON document kept in the store.
// The output is deterministic for equal records.
func (r *Record) Encode() ([]byte, error) {
	enc := gnfmt.GNjson{}
	return enc.Encode(r)
}

// Decode restores a record from a stored document and its id.
func Decode(id string, doc []byte) (*Record, error) {
	enc := gnfmt.GNjson{}
	var res Record
	if err := enc.Decode(doc, &res); err != nil {
		return nil, err
	}
	res.ID = id
	return &res, nil
}
