// Package config provides configuration loading for the orchestrator
// process: the plugin host and cache directories, the execution mode, and
// the ambient logging/telemetry surface. Configuration loads from
// defaults, then an optional YAML file, then environment variables, in
// that priority order.
package config
