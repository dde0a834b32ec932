package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gnames/fungidb/pkg/errcode"
	"github.com/gnames/gn"
)

// CheckLoad verifies settings required by the load command.
func (c *Config) CheckLoad() error {
	var missing []string
	if c.Input.Dir == "" {
		missing = append(missing, "input.dir")
	}
	if c.Store.Backend() == "" {
		missing = append(missing, "store.uri")
	}
	if c.Store.Backend() == "postgres" && c.Store.DB == "" {
		missing = append(missing, "store.db")
	}
	return configError(missing)
}

// CheckAcquirer verifies settings required by the image acquirer.
func (c *Config) CheckAcquirer() error {
	var missing []string
	if c.Store.Backend() == "" {
		missing = append(missing, "store.uri")
	}
	ob := c.ObjectStore
	if ob.Endpoint == "" {
		missing = append(missing, "object_store.endpoint")
	}
	if ob.AccessKey == "" {
		missing = append(missing, "object_store.access_key")
	}
	if ob.Secret == "" {
		missing = append(missing, "object_store.secret")
	}
	if ob.Bucket == "" {
		missing = append(missing, "object_store.bucket")
	}
	if ob.PublicBaseURL == "" {
		missing = append(missing, "object_store.public_base_url")
	}
	if c.Upstream.Origin == "" {
		missing = append(missing, "upstream.origin")
	}
	return configError(missing)
}

func configError(missing []string) error {
	if len(missing) == 0 {
		return nil
	}
	msg := `Configuration is incomplete

<em>Missing settings:</em> %s

<em>How to fix:</em>
  1. Add the settings to ~/.config/fungidb/config.yaml
  2. Or export them as FUNGIDB_* environment variables`
	keys := strings.Join(missing, ", ")
	return &gn.Error{
		Code: errcode.ConfigError,
		Msg:  msg,
		Vars: []any{keys},
		Err: fmt.Errorf("missing configuration: %w",
			errors.New(keys)),
	}
}
