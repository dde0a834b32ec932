// Package fungidb keeps build information for the fungidb application.
package fungidb

var (
	// Version of fungidb, set by build flags.
	Version = "v0.1.0"
	// Build timestamp, set by build flags.
	Build = "n/a"
)
