package iojoin

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/gnames/fungidb/internal/iocsv"
	"github.com/gnames/fungidb/pkg/species"
)

// loadNames keeps names with species rank that are not deprecated.
// A repeated scientific name keeps the smallest id.
func (j *Joiner) loadNames() error {
	j.names = make(map[int]*nameRow)
	byName := make(map[string]int)

	return j.read(NamesFile, func(r *iocsv.Reader) error {
		for row := range r.Rows() {
			id, err := row.MustInt("id")
			if err != nil {
				r.Skip(row.Line, err)
				continue
			}
			rank, _, err := row.Int("rank")
			if err != nil {
				r.Skip(row.Line, err)
				continue
			}
			if rank != species.RankSpecies || row.Bool("deprecated") {
				continue
			}
			name := row.String("text_name")
			if name == "" {
				r.Skip(row.Line, errors.New("empty text_name"))
				continue
			}
			if prev, ok := byName[name]; ok {
				if prev < id {
					j.warn("Duplicate species name",
						"name", name, "name_id", id, "kept", prev)
					continue
				}
				j.warn("Duplicate species name",
					"name", name, "name_id", prev, "kept", id)
				delete(j.names, prev)
			}
			byName[name] = id
			j.names[id] = &nameRow{
				id:     id,
				name:   name,
				author: row.String("author"),
			}
		}
		j.order = make([]int, 0, len(j.names))
		for id := range j.names {
			j.order = append(j.order, id)
		}
		slices.Sort(j.order)
		return nil
	})
}

func (j *Joiner) loadClassifications(r *iocsv.Reader) error {
	j.classifications = make(map[int]species.Classification)
	for row := range r.Rows() {
		nameID, err := row.MustInt("name_id")
		if err != nil {
			r.Skip(row.Line, err)
			continue
		}
		if _, ok := j.names[nameID]; !ok {
			continue
		}
		j.classifications[nameID] = species.Classification{
			Kingdom:   row.String("kingdom"),
			Phylum:    row.String("phylum"),
			ClassName: row.String("class"),
			Order:     row.String("order"),
			Family:    row.String("family"),
		}
	}
	return nil
}

// loadDescriptions picks one description per name: the row with more
// filled fields wins, ties go to the smaller id.
func (j *Joiner) loadDescriptions(r *iocsv.Reader) error {
	j.descriptions = make(map[int]*species.RawDescription)
	for row := range r.Rows() {
		id, err := row.MustInt("id")
		if err != nil {
			r.Skip(row.Line, err)
			continue
		}
		nameID, err := row.MustInt("name_id")
		if err != nil {
			r.Skip(row.Line, err)
			continue
		}
		if _, ok := j.names[nameID]; !ok {
			continue
		}
		d := &species.RawDescription{
			ID:           id,
			General:      row.String("general"),
			Diagnostic:   row.String("diagnostic"),
			Distribution: row.String("distribution"),
			Habitat:      row.String("habitat"),
			LookAlikes:   row.String("look_alikes"),
			Uses:         row.String("uses"),
			Notes:        row.String("notes"),
			Refs:         row.String("refs"),
		}
		if d.Better(j.descriptions[nameID]) {
			j.descriptions[nameID] = d
		}
	}
	return nil
}

func (j *Joiner) loadLocations(r *iocsv.Reader) error {
	j.locations = make(map[int]string)
	for row := range r.Rows() {
		id, err := row.MustInt("id")
		if err != nil {
			r.Skip(row.Line, err)
			continue
		}
		if name := row.String("name"); name != "" {
			j.locations[id] = name
		}
	}
	return nil
}

// checkLocationDescriptions only validates the file, no record field
// uses it.
func (j *Joiner) checkLocationDescriptions(r *iocsv.Reader) error {
	for range r.Rows() {
	}
	return nil
}

// loadObservations keeps observations of accepted species that have a
// vote cache.
func (j *Joiner) loadObservations(r *iocsv.Reader) error {
	j.observations = make(map[int][]species.Observation)
	j.obsIndex = make(map[int]obsRef)
	j.obsLocations = make(map[int][]int)

	var count int
	for row := range r.Rows() {
		nameID, err := row.MustInt("name_id")
		if err != nil {
			r.Skip(row.Line, err)
			continue
		}
		if _, ok := j.names[nameID]; !ok {
			continue
		}
		vote, ok, err := row.Float("vote_cache")
		if err != nil {
			r.Skip(row.Line, err)
			continue
		}
		if !ok {
			continue
		}
		id, err := row.MustInt("id")
		if err != nil {
			r.Skip(row.Line, err)
			continue
		}
		when, err := parseDate(row.String("when"))
		if err != nil {
			r.Skip(row.Line, err)
			continue
		}
		locID, hasLoc, err := row.Int("location_id")
		if err != nil {
			r.Skip(row.Line, err)
			continue
		}

		j.observations[nameID] = append(j.observations[nameID],
			species.Observation{
				ID:         id,
				LocationID: locID,
				When:       when,
				VoteCache:  vote,
			})
		j.obsIndex[id] = obsRef{nameID: nameID, vote: vote}
		if hasLoc {
			if _, ok := j.locations[locID]; ok {
				j.obsLocations[nameID] = append(j.obsLocations[nameID], locID)
			} else if j.locations != nil {
				slog.Debug("Unknown location", "observation_id", id,
					"location_id", locID)
			}
		}
		count++
	}

	j.mu.Lock()
	j.stats.Observations = count
	j.mu.Unlock()
	return nil
}

// loadImageLinks keeps links from images to observations collected by
// loadObservations.
func (j *Joiner) loadImageLinks(r *iocsv.Reader) error {
	links := make(map[int][]imageLink)
	for row := range r.Rows() {
		obsID, err := row.MustInt("observation_id")
		if err != nil {
			r.Skip(row.Line, err)
			continue
		}
		ref, ok := j.obsIndex[obsID]
		if !ok || ref.vote < j.minConfidence {
			continue
		}
		imageID, err := row.MustInt("image_id")
		if err != nil {
			r.Skip(row.Line, err)
			continue
		}
		links[imageID] = append(links[imageID], imageLink{
			obsID:  obsID,
			nameID: ref.nameID,
			vote:   ref.vote,
		})
	}
	j.links = links
	return nil
}

// loadImages turns exportable linked images into candidates.
func (j *Joiner) loadImages(r *iocsv.Reader) error {
	j.candidates = make(map[int][]species.Candidate)
	var count int
	for row := range r.Rows() {
		id, err := row.MustInt("id")
		if err != nil {
			r.Skip(row.Line, err)
			continue
		}
		links, ok := j.links[id]
		if !ok || !row.Bool("ok_for_export") {
			continue
		}
		holder := row.String("copyright_holder")
		license := row.String("license")
		for _, l := range links {
			j.candidates[l.nameID] = append(j.candidates[l.nameID],
				species.Candidate{
					ImageID:         id,
					ObservationID:   l.obsID,
					VoteCache:       l.vote,
					CopyrightHolder: holder,
					License:         license,
					OKForExport:     true,
				})
		}
		count++
	}
	j.mu.Lock()
	j.stats.Images = count
	j.mu.Unlock()
	return nil
}

// parseDate returns an ISO date from a date or a date-time value.
func parseDate(s string) (string, error) {
	if len(s) < 10 {
		return "", fmt.Errorf("cannot parse date %q", s)
	}
	t, err := time.Parse("2006-01-02", s[:10])
	if err != nil {
		return "", fmt.Errorf("cannot parse date %q: %w", s, err)
	}
	return t.Format("2006-01-02"), nil
}
