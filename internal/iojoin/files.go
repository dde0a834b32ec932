package iojoin

// Input files of the observation site export.
const (
	NamesFile                = "names.csv"
	DescriptionsFile         = "name_descriptions.csv"
	ClassificationsFile      = "name_classifications.csv"
	LocationsFile            = "locations.csv"
	LocationDescriptionsFile = "location_descriptions.csv"
	ObservationsFile         = "observations.csv"
	ImagesFile               = "images.csv"
	ImagesObservationsFile   = "images_observations.csv"
)

// required columns of every file; aliases are resolved by the reader.
var required = map[string][]string{
	NamesFile:                {"id", "text_name", "deprecated", "rank"},
	DescriptionsFile:         {"id", "name_id"},
	ClassificationsFile:      {"name_id"},
	LocationsFile:            {"id", "name"},
	LocationDescriptionsFile: {"id"},
	ObservationsFile:         {"id", "name_id", "when", "vote_cache"},
	ImagesFile:               {"id", "ok_for_export"},
	ImagesObservationsFile:   {"image_id", "observation_id"},
}
