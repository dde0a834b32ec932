package config

import (
	"fmt"
	"maps"
	"math"
	"net/url"
	"regexp"
	"slices"
	"strings"

	"github.com/gnames/gn"
)

var identifierRe = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// Update applies a slice of Option functions to the Config.
// This is the only way to modify a Config after creation.
// Invalid options are rejected with warnings - config remains in valid state.
func (c *Config) Update(opts []Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// ToOptions converts the Config to a slice of Option functions.
// Only includes persistent fields appropriate for config.yaml.
// Excludes runtime-only fields (HomeDir, Load.DryRun, Acquirer.Watch,
// Acquirer.Limit).
// Used for round-tripping config.yaml ↔ Config conversions.
func (c *Config) ToOptions() []Option {
	var res []Option
	var s string
	var i int

	s = c.Input.Dir
	if s != "" {
		res = append(res, OptInputDir(s))
	}
	s = c.Input.Delimiter
	if s != "" {
		res = append(res, OptInputDelimiter(s))
	}

	s = c.Store.URI
	if s != "" {
		res = append(res, OptStoreURI(s))
	}
	s = c.Store.DB
	if s != "" {
		res = append(res, OptStoreDB(s))
	}
	s = c.Store.Collection
	if s != "" {
		res = append(res, OptStoreCollection(s))
	}
	i = c.Store.BatchSize
	if i > 0 {
		res = append(res, OptStoreBatchSize(i))
	}

	s = c.ObjectStore.Endpoint
	if s != "" {
		res = append(res, OptObjectStoreEndpoint(s))
	}
	s = c.ObjectStore.AccessKey
	if s != "" {
		res = append(res, OptObjectStoreAccessKey(s))
	}
	s = c.ObjectStore.Secret
	if s != "" {
		res = append(res, OptObjectStoreSecret(s))
	}
	s = c.ObjectStore.Bucket
	if s != "" {
		res = append(res, OptObjectStoreBucket(s))
	}
	s = c.ObjectStore.PublicBaseURL
	if s != "" {
		res = append(res, OptObjectStorePublicBaseURL(s))
	}
	useSSL := c.ObjectStore.UseSSL
	res = append(res, OptObjectStoreUseSSL(&useSSL))

	s = c.Upstream.Origin
	if s != "" {
		res = append(res, OptUpstreamOrigin(s))
	}

	i = c.RateLimit.MinIntervalMs
	if i > 0 {
		res = append(res, OptRateLimitMinIntervalMs(i))
	}
	i = c.RateLimit.RequestsPerMinute
	if i > 0 {
		res = append(res, OptRateLimitRequestsPerMinute(i))
	}
	i = c.RateLimit.HTTPTimeoutMs
	if i > 0 {
		res = append(res, OptRateLimitHTTPTimeoutMs(i))
	}

	if c.Filters.MinConfidence > 0 {
		res = append(res, OptFiltersMinConfidence(c.Filters.MinConfidence))
	}

	i = c.Acquirer.BatchSize
	if i > 0 {
		res = append(res, OptAcquirerBatchSize(i))
	}
	i = c.Acquirer.FailureCooldownS
	if i > 0 {
		res = append(res, OptAcquirerFailureCooldownS(i))
	}
	i = c.Acquirer.MaxFailures
	if i > 0 {
		res = append(res, OptAcquirerMaxFailures(i))
	}
	i = c.Acquirer.WatchIntervalS
	if i > 0 {
		res = append(res, OptAcquirerWatchIntervalS(i))
	}

	s = c.Log.Format
	if s != "" {
		res = append(res, OptLogFormat(s))
	}
	s = c.Log.Level
	if s != "" {
		res = append(res, OptLogLevel(s))
	}
	s = c.Log.Destination
	if s != "" {
		res = append(res, OptLogDestination(s))
	}

	i = c.JobsNumber
	if i > 0 {
		res = append(res, OptJobsNumber(i))
	}
	return res
}

// Backend returns "postgres" or "sqlite" according to the URI scheme.
func (s StoreConfig) Backend() string {
	u, err := url.Parse(s.URI)
	if err != nil {
		return ""
	}
	switch strings.ToLower(u.Scheme) {
	case "postgres", "postgresql":
		return "postgres"
	case "sqlite":
		return "sqlite"
	}
	return ""
}

func isValidString(name, s string) bool {
	res := s != ""
	if !res {
		gn.Warn("<em>%s</em> cannot be empty, ignoring", name)
	}
	return res
}

func isValidInt(name string, i int) bool {
	res := i > 0
	if !res {
		gn.Warn("<em>%s</em> has to be positive number, ignoring %d", name, i)
	}
	return res
}

func isValidNonNegative(name string, i int) bool {
	res := i >= 0
	if !res {
		gn.Warn("<em>%s</em> cannot be negative, ignoring %d", name, i)
	}
	return res
}

func isValidFloat(name string, f float64) bool {
	res := f >= 0 && !math.IsNaN(f) && !math.IsInf(f, 0)
	if !res {
		gn.Warn("<em>%s</em> has to be a non-negative number, ignoring %v",
			name, f)
	}
	return res
}

func isValidIdentifier(name, s string) bool {
	res := identifierRe.MatchString(s)
	if !res {
		gn.Warn(
			"<em>%s</em> has to be a lowercase SQL identifier, ignoring '%s'",
			name, s,
		)
	}
	return res
}

func isValidStoreURI(s string) bool {
	sc := StoreConfig{URI: s}
	res := sc.Backend() != ""
	if !res {
		gn.Warn(
			"<em>Store URI</em> '%s' has to start with postgres://, "+
				"postgresql:// or sqlite://, ignoring",
			s,
		)
	}
	return res
}

func isValidHTTPURL(name, s string) bool {
	u, err := url.Parse(s)
	res := err == nil && (u.Scheme == "http" || u.Scheme == "https") &&
		u.Host != ""
	if !res {
		gn.Warn("<em>%s</em> has to be an http(s) URL, ignoring '%s'",
			name, s)
	}
	return res
}

func normDelimiter(s string) (string, bool) {
	switch strings.ToLower(s) {
	case "tab", `\t`, "\t":
		return "\t", true
	case "comma", ",":
		return ",", true
	case "semicolon", ";":
		return ";", true
	case "pipe", "|":
		return "|", true
	}
	gn.Warn(
		"<em>Input Delimiter</em> does not support '%s', "+
			"use tab, comma, semicolon or pipe. Ignoring...",
		s,
	)
	return "", false
}

func isValidEnum(name, val string) bool {
	s := struct{}{}
	data := map[string]map[string]struct{}{
		"Log.Level":       {"debug": s, "info": s, "warn": s, "error": s},
		"Log.Format":      {"json": s, "text": s, "tint": s},
		"Log.Destination": {"file": s, "stderr": s, "stdout": s},
	}
	vals := slices.Sorted(maps.Keys(data[name]))
	var lines []string
	for _, v := range vals {
		line := fmt.Sprintf("  * %s", v)
		lines = append(lines, line)
	}
	if _, ok := data[name][val]; ok {
		return true
	}
	gn.Warn(
		"<em>%s</em> does not support '%s' as a value. "+
			"Valid values are: \n%s\nIgnoring...",
		name, val, strings.Join(lines, "\n"),
	)
	return false
}
