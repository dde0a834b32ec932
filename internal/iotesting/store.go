// Package iotesting provides in-memory stores and fixtures shared by
// tests of I/O packages.
package iotesting

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/gnames/fungidb/pkg/config"
	"github.com/gnames/fungidb/pkg/db"
	"github.com/gnames/fungidb/pkg/species"
)

// MemStore is a db.Store kept in memory. Records are stored as
// encoded documents, so callers never share pointers with the store.
type MemStore struct {
	mu   sync.Mutex
	docs map[string][]byte
	// UpdateErr, if set, is returned by UpdateImage.
	UpdateErr error
	// Updates counts successful UpdateImage calls.
	Updates int
}

// NewMemStore creates an empty store.
func NewMemStore() *MemStore {
	return &MemStore{docs: make(map[string][]byte)}
}

// Connect does nothing.
func (m *MemStore) Connect(context.Context, *config.StoreConfig) error {
	return nil
}

// Close does nothing.
func (m *MemStore) Close() error { return nil }

// Upsert stores records by id.
func (m *MemStore) Upsert(
	ctx context.Context,
	recs []*species.Record,
) (db.UpsertStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var res db.UpsertStats
	for _, r := range recs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		id := r.ID
		if id == "" {
			id = species.RecordID(r.ScientificName)
		}
		doc, err := r.Encode()
		if err != nil {
			res.Failed++
			continue
		}
		if _, ok := m.docs[id]; ok {
			res.Updated++
		} else {
			res.Inserted++
		}
		m.docs[id] = doc
	}
	return res, nil
}

// Find filters records the same way SQL stores do.
func (m *MemStore) Find(_ context.Context, q db.Query) ([]*species.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.docs))
	for id := range m.docs {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var res []*species.Record
	for _, id := range ids {
		if q.AfterID != "" && id <= q.AfterID {
			continue
		}
		r, err := species.Decode(id, m.docs[id])
		if err != nil {
			return nil, err
		}
		if !match(r, q) {
			continue
		}
		res = append(res, r)
		if q.Limit > 0 && len(res) == q.Limit {
			break
		}
	}
	return res, nil
}

func match(r *species.Record, q db.Query) bool {
	if len(q.Names) > 0 && !slices.Contains(q.Names, r.ScientificName) {
		return false
	}
	img := r.Image
	switch q.Image {
	case db.WithImage:
		return img != nil && img.URL != ""
	case db.Rehosted:
		return img.State() == species.StateRehosted
	case db.Failed:
		return img.State() == species.StateFailed
	case db.Pending:
		st := img.State()
		if st == species.StateNone || st == species.StateRehosted {
			return false
		}
		if q.RehostPrefix != "" && strings.HasPrefix(img.URL, q.RehostPrefix) {
			return false
		}
		if st == species.StateFailed && !q.FailedBefore.IsZero() &&
			!img.ProcessingFailedAt.Before(q.FailedBefore) {
			return false
		}
	}
	return true
}

// UpdateImage replaces the image of a stored record.
func (m *MemStore) UpdateImage(
	_ context.Context,
	id string,
	img *species.Image,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	doc, ok := m.docs[id]
	if !ok {
		return fmt.Errorf("record %s not found", id)
	}
	r, err := species.Decode(id, doc)
	if err != nil {
		return err
	}
	r.Image = img
	if doc, err = r.Encode(); err != nil {
		return err
	}
	m.docs[id] = doc
	m.Updates++
	return nil
}

// Distinct supports family and common_name.
func (m *MemStore) Distinct(_ context.Context, field string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	set := make(map[string]struct{})
	for id, doc := range m.docs {
		r, err := species.Decode(id, doc)
		if err != nil {
			return nil, err
		}
		var v string
		switch field {
		case "family":
			if r.Classification != nil {
				v = r.Classification.Family
			}
		case "common_name":
			v = r.CommonName
		case "scientific_name":
			v = r.ScientificName
		default:
			return nil, fmt.Errorf("field %s is not indexed", field)
		}
		if v != "" {
			set[v] = struct{}{}
		}
	}
	res := make([]string, 0, len(set))
	for v := range set {
		res = append(res, v)
	}
	slices.Sort(res)
	return res, nil
}

// Count counts records matching the query.
func (m *MemStore) Count(ctx context.Context, q db.Query) (int, error) {
	q.Limit = 0
	q.AfterID = ""
	res, err := m.Find(ctx, q)
	return len(res), err
}

// Get returns a stored record by scientific name or nil.
func (m *MemStore) Get(name string) *species.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := species.RecordID(name)
	doc, ok := m.docs[id]
	if !ok {
		return nil
	}
	r, _ := species.Decode(id, doc)
	return r
}

// MemObjects is a db.ObjectStore kept in memory.
type MemObjects struct {
	mu sync.Mutex
	// Base is the public base URL of objects.
	Base    string
	Objects map[string][]byte
	Types   map[string]string
	// PutErr, if set, is returned by Put.
	PutErr error
}

// NewMemObjects creates an empty object store with a public base.
func NewMemObjects(base string) *MemObjects {
	return &MemObjects{
		Base:    base,
		Objects: make(map[string][]byte),
		Types:   make(map[string]string),
	}
}

// Connect does nothing.
func (o *MemObjects) Connect(context.Context, *config.ObjectStoreConfig) error {
	return nil
}

// Put keeps the object and returns its public URL.
func (o *MemObjects) Put(
	_ context.Context,
	key string,
	r io.Reader,
	size int64,
	contentType string,
) (string, error) {
	if o.PutErr != nil {
		return "", o.PutErr
	}
	var buf bytes.Buffer
	n, err := io.Copy(&buf, r)
	if err != nil {
		return "", err
	}
	if size >= 0 && n != size {
		return "", errors.New("short object")
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Objects[key] = buf.Bytes()
	o.Types[key] = contentType
	return o.Base + "/" + key, nil
}
