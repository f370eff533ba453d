// Package config loads tablekit settings from YAML files, .env files and
// TABLEKIT_* environment variables, in increasing order of precedence.
package config
