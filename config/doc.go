// Package config loads the agentlab runtime configuration.
//
// Configuration is read from a YAML file. ${VAR} references are expanded
// from the environment before parsing, AGENTLAB_* variables override
// individual fields afterwards and duration strings ("120s") are parsed
// into time.Duration values.
package config
