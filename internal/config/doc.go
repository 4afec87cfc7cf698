// Package config loads, normalizes, and validates Stagehand configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// STAGEHAND_PYTHON and STAGEHAND_COLMAP. The Config type centralizes every
// knob the CLI and run engine need, allowing state/log/script directories and
// external tool locations to be discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
