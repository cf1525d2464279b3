// Package config loads, normalizes, and validates storybuilder configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours STORYBUILDER_* environment
// overrides. The Config type centralizes the source, scratch, and output
// directories, rendering settings, subtitle options, and per-book chapter
// templates so the CLI and every pipeline stage read them from one place.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
