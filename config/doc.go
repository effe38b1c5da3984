// Package config loads and watches the service configuration file (config.yaml).
//
// Top-level types:
//   - Config{Sessions, Log, Metrics}: full config tree parsed from YAML
//   - SessionsConfig: ttl, shards, write_policy (through|back), write_buffer
//   - LogConfig: level (debug|info|warn|error)
//   - MetricsConfig: addr for the Prometheus text endpoint; empty disables it
//
// Load(path) reads the YAML file, applies defaults (15m ttl, 4 shards,
// write-through, 1024 buffer, info level), applies environment overrides,
// then validates required fields and enums. Environment variables win over
// the file so a deployment can change the TTL without editing it.
//
// Watch(ctx, path, onChange) uses fsnotify to detect file changes and calls
// onChange with the newly parsed Config.
package config
