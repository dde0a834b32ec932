package config

import (
	"strings"
)

// Option is a function that modifies a Config.
// Options validate inputs and reject invalid values with warnings.
type Option func(*Config)

// OptInputDir sets the directory with CSV exports.
func OptInputDir(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Input Dir", s) {
			c.Input.Dir = s
		}
	}
}

// OptInputDelimiter sets the field separator of input files.
// Accepts a single character or one of the names "tab", "comma",
// "semicolon", "pipe".
func OptInputDelimiter(s string) Option {
	return func(c *Config) {
		if d, ok := normDelimiter(s); ok {
			c.Input.Delimiter = d
		}
	}
}

// OptStoreURI sets the document store URI. The scheme selects the backend.
// Valid schemes: "postgres", "postgresql", "sqlite".
func OptStoreURI(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidStoreURI(s) {
			c.Store.URI = s
		}
	}
}

// OptStoreDB sets the database name of the document store.
func OptStoreDB(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Store DB", s) {
			c.Store.DB = s
		}
	}
}

// OptStoreCollection sets the table that keeps species documents.
func OptStoreCollection(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidIdentifier("Store Collection", s) {
			c.Store.Collection = s
		}
	}
}

// OptStoreBatchSize sets the number of documents per upsert round trip.
func OptStoreBatchSize(i int) Option {
	return func(c *Config) {
		if isValidInt("Store Batch Size", i) {
			c.Store.BatchSize = i
		}
	}
}

// OptObjectStoreEndpoint sets host:port of the S3-compatible endpoint.
func OptObjectStoreEndpoint(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Object Store Endpoint", s) {
			c.ObjectStore.Endpoint = s
		}
	}
}

// OptObjectStoreAccessKey sets the access key of the object store.
func OptObjectStoreAccessKey(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Object Store Access Key", s) {
			c.ObjectStore.AccessKey = s
		}
	}
}

// OptObjectStoreSecret sets the secret key of the object store.
func OptObjectStoreSecret(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Object Store Secret", s) {
			c.ObjectStore.Secret = s
		}
	}
}

// OptObjectStoreBucket sets the bucket for rehosted images.
func OptObjectStoreBucket(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Object Store Bucket", s) {
			c.ObjectStore.Bucket = s
		}
	}
}

// OptObjectStorePublicBaseURL sets the public prefix of uploaded objects.
// A trailing slash is removed.
func OptObjectStorePublicBaseURL(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, "/")
	return func(c *Config) {
		if isValidHTTPURL("Object Store Public Base URL", s) {
			c.ObjectStore.PublicBaseURL = s
		}
	}
}

// OptObjectStoreUseSSL enables HTTPS for the object store endpoint.
// Uses pointer to distinguish between unset (nil) and false.
func OptObjectStoreUseSSL(b *bool) Option {
	return func(c *Config) {
		if b != nil {
			c.ObjectStore.UseSSL = *b
		}
	}
}

// OptUpstreamOrigin sets the host of the observation site.
func OptUpstreamOrigin(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimRight(s, "/")
	return func(c *Config) {
		if isValidString("Upstream Origin", s) {
			c.Upstream.Origin = s
		}
	}
}

// OptRateLimitMinIntervalMs sets the minimal pause between fetches.
func OptRateLimitMinIntervalMs(i int) Option {
	return func(c *Config) {
		if isValidInt("Rate Limit Min Interval", i) {
			c.RateLimit.MinIntervalMs = i
		}
	}
}

// OptRateLimitRequestsPerMinute sets the reservoir size.
func OptRateLimitRequestsPerMinute(i int) Option {
	return func(c *Config) {
		if isValidInt("Rate Limit Requests Per Minute", i) {
			c.RateLimit.RequestsPerMinute = i
		}
	}
}

// OptRateLimitHTTPTimeoutMs sets the timeout of external HTTP calls.
func OptRateLimitHTTPTimeoutMs(i int) Option {
	return func(c *Config) {
		if isValidInt("Rate Limit HTTP Timeout", i) {
			c.RateLimit.HTTPTimeoutMs = i
		}
	}
}

// OptFiltersMinConfidence sets the vote_cache threshold for image
// selection.
func OptFiltersMinConfidence(f float64) Option {
	return func(c *Config) {
		if isValidFloat("Filters Min Confidence", f) {
			c.Filters.MinConfidence = f
		}
	}
}

// OptAcquirerBatchSize sets the number of records fetched from the store
// per acquirer query.
func OptAcquirerBatchSize(i int) Option {
	return func(c *Config) {
		if isValidInt("Acquirer Batch Size", i) {
			c.Acquirer.BatchSize = i
		}
	}
}

// OptAcquirerFailureCooldownS sets how long failed records wait.
func OptAcquirerFailureCooldownS(i int) Option {
	return func(c *Config) {
		if isValidNonNegative("Acquirer Failure Cooldown", i) {
			c.Acquirer.FailureCooldownS = i
		}
	}
}

// OptAcquirerMaxFailures sets the failure budget of one pass.
// Zero disables the budget.
func OptAcquirerMaxFailures(i int) Option {
	return func(c *Config) {
		if isValidNonNegative("Acquirer Max Failures", i) {
			c.Acquirer.MaxFailures = i
		}
	}
}

// OptAcquirerWatchIntervalS sets the pause between continuous passes.
func OptAcquirerWatchIntervalS(i int) Option {
	return func(c *Config) {
		if isValidInt("Acquirer Watch Interval", i) {
			c.Acquirer.WatchIntervalS = i
		}
	}
}

// OptAcquirerWatch enables continuous mode.
// Runtime-only field - not in ToOptions().
func OptAcquirerWatch(b bool) Option {
	return func(c *Config) {
		c.Acquirer.Watch = b
	}
}

// OptAcquirerLimit caps the number of records processed per pass.
// Runtime-only field - not in ToOptions().
func OptAcquirerLimit(i int) Option {
	return func(c *Config) {
		if isValidNonNegative("Acquirer Limit", i) {
			c.Acquirer.Limit = i
		}
	}
}

// OptLoadDryRun makes the load command skip writes.
// Runtime-only field - not in ToOptions().
func OptLoadDryRun(b bool) Option {
	return func(c *Config) {
		c.Load.DryRun = b
	}
}

// OptLogLevel sets the logging level.
// Valid values: "debug", "info", "warn", "error".
func OptLogLevel(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Log.Level", s) {
			c.Log.Level = s
		}
	}
}

// OptLogFormat sets the log output format.
// Valid values: "json", "text", "tint".
func OptLogFormat(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Log.Format", s) {
			c.Log.Format = s
		}
	}
}

// OptLogDestination sets where logs are written.
// Valid values: "file", "stderr", "stdout".
func OptLogDestination(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Log.Destination", s) {
			c.Log.Destination = s
		}
	}
}

// OptJobsNumber sets the number of concurrent workers for parallel operations.
// Default is runtime.NumCPU().
func OptJobsNumber(i int) Option {
	return func(c *Config) {
		if isValidInt("Jobs Number", i) {
			c.JobsNumber = i
		}
	}
}

// OptHomeDir sets the home directory for config, cache, and log locations.
// Set once at startup from os.UserHomeDir().
// Runtime-only field - not in ToOptions().
func OptHomeDir(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Home Directory", s) {
			c.HomeDir = s
		}
	}
}
