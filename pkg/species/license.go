package species

import "strings"

// licenseURLs maps license names used by the observation site, and
// short Creative Commons codes, to license deeds.
var licenseURLs = map[string]string{
	"creative commons wikipedia compatible v3.0":  "https://creativecommons.org/licenses/by-sa/3.0/",
	"creative commons non-commercial v2.5":        "https://creativecommons.org/licenses/by-nc-sa/2.5/",
	"creative commons attribution-sharealike 3.0": "https://creativecommons.org/licenses/by-sa/3.0/",
	"creative commons attribution 3.0":            "https://creativecommons.org/licenses/by/3.0/",
	"public domain":                               "https://creativecommons.org/publicdomain/zero/1.0/",
	"cc-by":                                       "https://creativecommons.org/licenses/by/4.0/",
	"cc-by-sa":                                    "https://creativecommons.org/licenses/by-sa/4.0/",
	"cc-by-nd":                                    "https://creativecommons.org/licenses/by-nd/4.0/",
	"cc-by-nc":                                    "https://creativecommons.org/licenses/by-nc/4.0/",
	"cc-by-nc-sa":                                 "https://creativecommons.org/licenses/by-nc-sa/4.0/",
	"cc-by-nc-nd":                                 "https://creativecommons.org/licenses/by-nc-nd/4.0/",
	"cc0":                                         "https://creativecommons.org/publicdomain/zero/1.0/",
}

// LicenseURL returns the deed URL of a license, or an empty string when
// the license is unknown.
func LicenseURL(license string) string {
	key := strings.ToLower(strings.Join(strings.Fields(license), " "))
	return licenseURLs[key]
}

// Copyright formats the copyright line of an image.
func Copyright(holder, license string) string {
	holder = strings.TrimSpace(holder)
	license = strings.TrimSpace(license)
	switch {
	case holder != "" && license != "":
		return "© " + holder + ", " + license
	case holder != "":
		return "© " + holder
	case license != "":
		return "© " + license
	default:
		return ""
	}
}
