// Package config handles loading and parsing coinfolio configuration files.
//
// # Overview
//
// This package reads coinfolio's TOML configuration to discover the tracker
// backend's base URL and the local data directory used for the persisted
// access token and the client log file.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/coinfolio/config.toml (default)
//  3. If the config file doesn't exist, fall back to hardcoded defaults
//  4. If the file exists but fields are missing/empty, use defaults
//
// # Default Values
//
//   - Config file: ~/.config/coinfolio/config.toml
//   - API base URL: http://127.0.0.1:8080
//   - Data directory: ~/.local/share/coinfolio
//   - Token file: <data_dir>/token.toml
//   - Log file: <data_dir>/coinfolio.log
//
// # TOML Format
//
// Example config.toml:
//
//	api_base = "https://tracker.example.com"
//	data_dir = "~/.local/share/coinfolio"
//
// Both fields are optional. Tilde expansion is performed automatically.
//
// # Error Handling
//
// Load returns errors for path expansion failures, file read errors (except
// os.ErrNotExist, which triggers defaults), and TOML parsing errors. A missing
// config file is NOT an error - defaults are used instead, so coinfolio works
// out-of-the-box against a local backend.
//
// # Design Philosophy
//
// The config package is read-only and stateless - it loads configuration once
// at startup and returns an immutable Config struct. No global state or
// singleton patterns are used.
package config
