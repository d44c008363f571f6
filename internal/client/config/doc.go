// Package config loads runtime configuration for the TeamLoop CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the backend REST API
//	-t int      request timeout (seconds)
//	-e string   environment name ("development" or "production")
//
// # JSON schema
//
// The JSON loader uses timex.Duration for the timeout, so the value can be
// either a string like "10s" or integer nanoseconds:
//
//	{
//	  "server_url": "http://127.0.0.1:8080",
//	  "request_timeout": "10s",
//	  "environment": "development"
//	}
//
// Note: This package does not read environment variables directly; use the
// JSON file or flags to configure values.
package config
