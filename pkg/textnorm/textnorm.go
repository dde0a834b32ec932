// Package textnorm cleans free-text description fields of the
// observation site export. The fields mix HTML anchors, textile links,
// bare URLs, italic markers and escaped newlines. Cleaning returns
// plain text together with the URLs found in it.
package textnorm

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/k3a/html2text"
)

var (
	anchorRe  = regexp.MustCompile(`(?i)<a\s[^>]*?href\s*=\s*["']([^"']+)["'][^>]*>`)
	textileRe = regexp.MustCompile(`"([^"\n]+)":(https?://[^\s<>"]+)`)
	bareURLRe = regexp.MustCompile(`https?://[^\s<>"]+`)
	tagRe     = regexp.MustCompile(`<[^>]+>`)
	italicRe  = regexp.MustCompile(`\b_([^_\n]+?)_\b`)
	spaceRe   = regexp.MustCompile(`\s+`)
	addressRe = regexp.MustCompile(
		`^\d+\s+[^,]+,\s*[^,]+,\s*[A-Z]{2}\s+\d{5}(-\d{4})?$`,
	)
)

// urlTail are characters that end a sentence rather than a URL.
const urlTail = ".,;:!?)]}'"

// Normalize cleans a free-text field and returns the text and the URLs
// extracted from it, in order of appearance and without duplicates.
// Empty text means the field is absent: either there was nothing left
// after cleaning, or the result looked like a bare URL or a postal
// address.
func Normalize(s string) (string, []string) {
	if s == "" {
		return "", nil
	}
	s = unescapeNewlines(s)

	var urls URLSet
	urls.AddAll(extractURLs(s))

	s = tagRe.ReplaceAllString(s, " ")
	s = rewriteTextile(s)
	s = bareURLRe.ReplaceAllString(s, " ")
	s = html2text.HTMLEntitiesToText(s)
	s = StripItalics(s)
	s = CollapseSpaces(s)

	if IsRejected(s) {
		return "", urls.List()
	}
	return s, urls.List()
}

// ExtractURLs returns valid http(s) URLs found in s without cleaning it.
func ExtractURLs(s string) []string {
	var urls URLSet
	urls.AddAll(extractURLs(unescapeNewlines(s)))
	return urls.List()
}

// IsRejected returns true for text that must not be stored as a
// description: empty strings, strings starting with a URL scheme and
// postal addresses.
func IsRejected(s string) bool {
	if s == "" {
		return true
	}
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") {
		return true
	}
	return addressRe.MatchString(s)
}

// StripItalics converts textile italics `_word_` to `word`.
func StripItalics(s string) string {
	return italicRe.ReplaceAllString(s, "$1")
}

// CollapseSpaces replaces runs of white space with one space and trims
// the result.
func CollapseSpaces(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

func unescapeNewlines(s string) string {
	return strings.ReplaceAll(s, `\n`, "\n")
}

// extractURLs collects candidates in three passes: anchors, textile
// links, then bare URLs not preceded by a quote or a tag end. HTML
// entities of the candidates are decoded.
func extractURLs(s string) []string {
	var res []string
	for _, m := range anchorRe.FindAllStringSubmatch(s, -1) {
		res = append(res, decodeURL(m[1]))
	}
	for _, m := range textileRe.FindAllStringSubmatch(s, -1) {
		res = append(res, decodeURL(trimURL(m[2])))
	}
	for _, loc := range bareURLRe.FindAllStringIndex(s, -1) {
		if loc[0] > 0 {
			switch s[loc[0]-1] {
			case '"', '>', ':', '\'', '=':
				continue
			}
		}
		res = append(res, decodeURL(trimURL(s[loc[0]:loc[1]])))
	}
	return res
}

// decodeURL turns &amp; and other entities of an HTML attribute or
// text into characters.
func decodeURL(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	return trimURL(html2text.HTMLEntitiesToText(s))
}

// rewriteTextile replaces `"label":URL` with the label. Punctuation
// that ended the sentence stays in the text.
func rewriteTextile(s string) string {
	return textileRe.ReplaceAllStringFunc(s, func(m string) string {
		sub := textileRe.FindStringSubmatch(m)
		link := sub[2]
		tail := link[len(trimURL(link)):]
		return sub[1] + tail
	})
}

func trimURL(s string) string {
	return strings.TrimRight(s, urlTail)
}

// IsValidURL checks that s is an absolute http or https URL with a host.
func IsValidURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// URLSet keeps valid URLs in insertion order without duplicates.
// The zero value is ready to use.
type URLSet struct {
	seen map[string]struct{}
	list []string
}

// Add inserts a URL if it is valid and new.
func (us *URLSet) Add(u string) {
	u = strings.TrimSpace(u)
	if !IsValidURL(u) {
		return
	}
	if us.seen == nil {
		us.seen = make(map[string]struct{})
	}
	if _, ok := us.seen[u]; ok {
		return
	}
	us.seen[u] = struct{}{}
	us.list = append(us.list, u)
}

// AddAll inserts several URLs.
func (us *URLSet) AddAll(urls []string) {
	for _, u := range urls {
		us.Add(u)
	}
}

// List returns a copy of the collected URLs.
func (us *URLSet) List() []string {
	if len(us.list) == 0 {
		return nil
	}
	res := make([]string, len(us.list))
	copy(res, us.list)
	return res
}

// Len returns the number of collected URLs.
func (us *URLSet) Len() int {
	return len(us.list)
}
