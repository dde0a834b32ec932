package cmd

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/gnames/fungidb/internal/iotesting"
	"github.com/gnames/fungidb/pkg/config"
	"github.com/gnames/fungidb/pkg/species"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const publicBase = "https://cdn.example.org/fungi"

func speciesRecord(name, family string, img *species.Image) *species.Record {
	res := &species.Record{
		ScientificName: name,
		Image:          img,
	}
	if family != "" {
		res.Classification = &species.Classification{Family: family}
	}
	return res
}

func seedCatalog(t *testing.T, now time.Time) *iotesting.MemStore {
	upstream := func(id string) *species.Image {
		return &species.Image{
			URL:    "https://mushroomobserver.org/images/640/" + id + ".jpg",
			Source: species.SourceUpstream,
		}
	}
	rehosted := upstream("3")
	rehosted.Rehost(publicBase+"/mushrooms/c.jpg", now.Add(-time.Hour))
	recent := upstream("4")
	recent.Fail("HTTP 503", now.Add(-time.Hour))
	old := upstream("5")
	old.Fail("timeout", now.Add(-48*time.Hour))

	store := iotesting.NewMemStore()
	_, err := store.Upsert(context.Background(), []*species.Record{
		speciesRecord("Amanita muscaria", "Amanitaceae", upstream("1")),
		speciesRecord("Boletus edulis", "Boletaceae", nil),
		speciesRecord("Amanita phalloides", "Amanitaceae", rehosted),
		speciesRecord("Russula emetica", "Russulaceae", recent),
		speciesRecord("Lactarius deliciosus", "", old),
	})
	require.NoError(t, err)
	return store
}

func TestCollectStats(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := seedCatalog(t, now)

	c := config.New()
	c.Update([]config.Option{config.OptObjectStorePublicBaseURL(publicBase)})

	st, err := collectStats(context.Background(), store, c, now)
	require.NoError(t, err)
	assert.Equal(t, catalogStats{
		Records:   5,
		WithImage: 4,
		Rehosted:  1,
		Failed:    2,
		Pending:   2,
		Families:  3,
	}, st)
}

func TestPrintStats(t *testing.T) {
	var buf bytes.Buffer
	printStats(&buf, catalogStats{Records: 12345, Families: 3})

	out := buf.String()
	assert.Contains(t, out, "12,345")
	assert.Contains(t, out, "Families")
	assert.Contains(t, out, "Pending")
}
