package species

import "strings"

// RankSpecies is the numeric rank code of species in names.csv.
const RankSpecies = 4

// Aggregate collects source rows joined for one species name.
// It is produced by the joiner and consumed by the Assembler.
type Aggregate struct {
	NameID         int
	Name           string
	Author         string
	Classification Classification
	// Description is nil when the name has no description row.
	Description  *RawDescription
	Observations []Observation
	Images       []Candidate
	// Locations are names of locations of contributing observations.
	Locations []string
}

// RawDescription keeps uncleaned description fields of the chosen
// description row.
type RawDescription struct {
	ID           int
	General      string
	Diagnostic   string
	Distribution string
	Habitat      string
	LookAlikes   string
	Uses         string
	Notes        string
	Refs         string
}

// FilledFields returns the number of non-empty fields. It ranks
// alternative description rows of the same name.
func (d *RawDescription) FilledFields() int {
	var res int
	for _, v := range []string{
		d.General, d.Diagnostic, d.Distribution, d.Habitat,
		d.LookAlikes, d.Uses, d.Notes, d.Refs,
	} {
		if strings.TrimSpace(v) != "" {
			res++
		}
	}
	return res
}

// Better reports whether d should replace other as the description of
// a name: more filled fields win, ties go to the smaller id.
func (d *RawDescription) Better(other *RawDescription) bool {
	if other == nil {
		return true
	}
	df, of := d.FilledFields(), other.FilledFields()
	if df != of {
		return df > of
	}
	return d.ID < other.ID
}

// Observation is an observation with a vote cache value.
type Observation struct {
	ID         int
	LocationID int
	// When is an ISO date (YYYY-MM-DD).
	When      string
	VoteCache float64
}

// Candidate is an image reachable from an observation of the species.
type Candidate struct {
	ImageID         int
	ObservationID   int
	VoteCache       float64
	CopyrightHolder string
	License         string
	OKForExport     bool
}

// ParseLocation splits a location path "City, County, State, Country".
// The state is returned only for locations in the USA.
func ParseLocation(name string) (country, state string) {
	var parts []string
	for p := range strings.SplitSeq(name, ", ") {
		p = strings.TrimSpace(p)
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "", ""
	}
	country = parts[len(parts)-1]
	if country == "USA" && len(parts) > 1 {
		state = parts[len(parts)-2]
	}
	return country, state
}
