// Package species defines the field-guide document of one accepted
// fungal species and the pure logic that builds it from joined source
// rows: image selection, license lookup and document assembly.
package species

import (
	"strings"
	"time"
)

// Image sources.
const (
	SourceUpstream = "upstream"
	SourceRehosted = "rehosted"
)

// ImageState is the acquisition state of an image field.
type ImageState int

const (
	// StateNone means the record has no image.
	StateNone ImageState = iota
	// StateUpstream means the url points at the observation site.
	StateUpstream
	// StateFailed means the last acquisition attempt failed.
	// The url still points at the observation site.
	StateFailed
	// StateRehosted means the url points at the object store.
	StateRehosted
)

func (s ImageState) String() string {
	switch s {
	case StateUpstream:
		return "upstream"
	case StateFailed:
		return "failed"
	case StateRehosted:
		return "rehosted"
	default:
		return "none"
	}
}

// Record is the document kept in the store for one species.
// ID is a UUID v5 of the scientific name and lives outside of the
// document body.
type Record struct {
	ID                   string           `json:"-"`
	ScientificName       string           `json:"scientific_name"`
	Authority            string           `json:"authority,omitempty"`
	Classification       *Classification  `json:"classification,omitempty"`
	Description          *Description     `json:"description,omitempty"`
	CommonName           string           `json:"common_name,omitempty"`
	Image                *Image           `json:"image,omitempty"`
	RegionalDistribution *Distribution    `json:"regional_distribution,omitempty"`
	ObservationData      *ObservationData `json:"observation_data,omitempty"`
	References           []string         `json:"references,omitempty"`
}

// Classification keeps higher taxa. Missing levels are empty.
type Classification struct {
	Kingdom   string `json:"kingdom,omitempty"`
	Phylum    string `json:"phylum,omitempty"`
	ClassName string `json:"class_name,omitempty"`
	Order     string `json:"order,omitempty"`
	Family    string `json:"family,omitempty"`
}

// IsEmpty returns true if no level is set.
func (c Classification) IsEmpty() bool {
	return c == Classification{}
}

// Description keeps cleaned free-text fields.
type Description struct {
	General      string `json:"general,omitempty"`
	Diagnostic   string `json:"diagnostic,omitempty"`
	Habitat      string `json:"habitat,omitempty"`
	Distribution string `json:"distribution,omitempty"`
	Uses         string `json:"uses,omitempty"`
	LookAlikes   string `json:"look_alikes,omitempty"`
}

// IsEmpty returns true if no field is set.
func (d Description) IsEmpty() bool {
	return d == Description{}
}

// Image describes the chosen image and its acquisition state.
type Image struct {
	URL                string     `json:"url"`
	Copyright          string     `json:"copyright,omitempty"`
	LicenseURL         string     `json:"license_url,omitempty"`
	Source             string     `json:"source"`
	ProcessedAt        *time.Time `json:"processed_at,omitempty"`
	OriginalURL        string     `json:"original_url,omitempty"`
	ProcessingError    string     `json:"processing_error,omitempty"`
	ProcessingFailedAt *time.Time `json:"processing_failed_at,omitempty"`
}

// State derives the acquisition state from the image fields.
func (img *Image) State() ImageState {
	switch {
	case img == nil || img.URL == "":
		return StateNone
	case img.Source == SourceRehosted:
		return StateRehosted
	case img.ProcessingFailedAt != nil:
		return StateFailed
	default:
		return StateUpstream
	}
}

// UpstreamURL returns the observation site URL of the image,
// regardless of the acquisition state.
func (img *Image) UpstreamURL() string {
	if img == nil {
		return ""
	}
	if img.Source == SourceRehosted {
		return img.OriginalURL
	}
	return img.URL
}

// Rehost moves the image into the rehosted state.
func (img *Image) Rehost(url string, at time.Time) {
	at = at.UTC()
	img.OriginalURL = img.URL
	img.URL = url
	img.Source = SourceRehosted
	img.ProcessedAt = &at
	img.ProcessingError = ""
	img.ProcessingFailedAt = nil
}

// Fail records an acquisition failure. The url stays unchanged.
func (img *Image) Fail(msg string, at time.Time) {
	at = at.UTC()
	img.ProcessingError = msg
	img.ProcessingFailedAt = &at
}

// IsRehostedAt returns true if the url begins with the public base of
// the object store.
func (img *Image) IsRehostedAt(publicBase string) bool {
	if img == nil || publicBase == "" {
		return false
	}
	return strings.HasPrefix(img.URL, publicBase)
}

// Distribution keeps unique location names.
type Distribution struct {
	Countries []string `json:"countries"`
	States    []string `json:"states"`
	Regions   []string `json:"regions"`
}

// ObservationData summarizes observations joined into the record.
type ObservationData struct {
	Count         int     `json:"count"`
	Confidence    float64 `json:"confidence"`
	FirstObserved string  `json:"first_observed"`
	LastObserved  string  `json:"last_observed"`
}

// KeepAcquired carries acquisition state of a stored image into a
// freshly assembled one. A rehosted image stays rehosted while its
// original url is still selected, a failure is kept while the url is
// unchanged. Attribution always comes from the fresh image.
func KeepAcquired(stored, fresh *Image) *Image {
	if stored == nil || fresh == nil {
		return fresh
	}
	switch stored.State() {
	case StateRehosted:
		if stored.OriginalURL != fresh.URL {
			return fresh
		}
		res := *stored
		res.Copyright = fresh.Copyright
		res.LicenseURL = fresh.LicenseURL
		return &res
	case StateFailed:
		if stored.URL != fresh.URL {
			return fresh
		}
		res := *fresh
		res.ProcessingError = stored.ProcessingError
		res.ProcessingFailedAt = stored.ProcessingFailedAt
		return &res
	}
	return fresh
}
