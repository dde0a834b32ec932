package species

import (
	"fmt"
	"math"
	"slices"

	"github.com/gnames/fungidb/pkg/textnorm"
	"github.com/gnames/gnlib/ent/nomcode"
	"github.com/gnames/gnparser"
	"github.com/gnames/gnuuid"
)

// ImageURL returns the upstream URL of an image.
func ImageURL(origin string, imageID int) string {
	return fmt.Sprintf("https://%s/images/640/%d.jpg", origin, imageID)
}

// RecordID returns the stable identifier of a species record.
func RecordID(scientificName string) string {
	return gnuuid.New(scientificName).String()
}

// Warning is a non-fatal problem found while assembling a record.
type Warning struct {
	NameID int
	Name   string
	Msg    string
}

// Assembler builds species records from aggregates.
// It is not safe for concurrent use.
type Assembler struct {
	origin        string
	minConfidence float64
	parser        gnparser.GNparser
}

// NewAssembler creates an Assembler. Origin is the host of upstream
// images, minConfidence gates image selection.
func NewAssembler(origin string, minConfidence float64) *Assembler {
	cfg := gnparser.NewConfig(gnparser.OptCode(nomcode.Botanical))
	return &Assembler{
		origin:        origin,
		minConfidence: minConfidence,
		parser:        gnparser.New(cfg),
	}
}

// Assemble creates a record from an aggregate. It returns nil if the
// aggregate has no usable scientific name.
func (a *Assembler) Assemble(agg Aggregate) (*Record, []Warning) {
	var ws []Warning
	warn := func(format string, args ...any) {
		ws = append(ws, Warning{
			NameID: agg.NameID,
			Name:   agg.Name,
			Msg:    fmt.Sprintf(format, args...),
		})
	}

	name := textnorm.CollapseSpaces(agg.Name)
	if name == "" {
		warn("empty scientific name")
		return nil, ws
	}

	p := a.parser.ParseName(name)
	if !p.Parsed || p.Cardinality != 2 {
		warn("name is not a binomial")
	}

	res := &Record{
		ID:             RecordID(name),
		ScientificName: name,
		Authority:      textnorm.CollapseSpaces(textnorm.StripItalics(agg.Author)),
	}
	// the author column is empty for some names that carry authorship
	// in the name string
	if res.Authority == "" && p.Parsed && p.Authorship != nil {
		res.Authority = p.Authorship.Normalized
	}

	if agg.Classification.IsEmpty() {
		warn("no classification")
	} else {
		cl := agg.Classification
		res.Classification = &cl
	}

	var refs textnorm.URLSet
	if agg.Description != nil {
		res.Description = describe(agg.Description, &refs)
		res.CommonName = textnorm.CommonName(agg.Description.Notes)
		cur := textnorm.CurrentName(agg.Description.Notes)
		if cur != "" && cur != name {
			warn("notes point to current name %q", cur)
		}
	}
	res.References = refs.List()

	if c, ok := SelectImage(agg.Images, a.minConfidence); ok {
		res.Image = &Image{
			URL:        ImageURL(a.origin, c.ImageID),
			Copyright:  Copyright(c.CopyrightHolder, c.License),
			LicenseURL: LicenseURL(c.License),
			Source:     SourceUpstream,
		}
	}

	res.RegionalDistribution = distribution(agg.Locations)
	res.ObservationData = observationData(agg.Observations)
	return res, ws
}

func describe(raw *RawDescription, refs *textnorm.URLSet) *Description {
	clean := func(s string) string {
		text, urls := textnorm.Normalize(s)
		refs.AddAll(urls)
		return text
	}
	d := Description{
		General:      clean(raw.General),
		Diagnostic:   clean(raw.Diagnostic),
		Distribution: clean(raw.Distribution),
		Habitat:      clean(raw.Habitat),
		LookAlikes:   clean(raw.LookAlikes),
		Uses:         clean(raw.Uses),
	}
	refs.AddAll(textnorm.ExtractURLs(raw.Refs))
	if d.IsEmpty() {
		return nil
	}
	return &d
}

func distribution(locations []string) *Distribution {
	countries := make(map[string]struct{})
	states := make(map[string]struct{})
	for _, l := range locations {
		country, state := ParseLocation(l)
		if country != "" {
			countries[country] = struct{}{}
		}
		if state != "" {
			states[state] = struct{}{}
		}
	}
	if len(countries) == 0 {
		return nil
	}
	return &Distribution{
		Countries: sortedKeys(countries),
		States:    sortedKeys(states),
		Regions:   []string{},
	}
}

func sortedKeys(m map[string]struct{}) []string {
	res := make([]string, 0, len(m))
	for k := range m {
		res = append(res, k)
	}
	slices.Sort(res)
	return res
}

func observationData(obs []Observation) *ObservationData {
	if len(obs) == 0 {
		return nil
	}
	var sum float64
	first, last := obs[0].When, obs[0].When
	for _, o := range obs {
		sum += o.VoteCache
		if o.When < first {
			first = o.When
		}
		if o.When > last {
			last = o.When
		}
	}
	mean := sum / float64(len(obs))
	return &ObservationData{
		Count:         len(obs),
		Confidence:    math.Round(mean*100) / 100,
		FirstObserved: first,
		LastObserved:  last,
	}
}
