// Package config loads replay configuration with viper.
//
// Values come from, in increasing precedence: built-in defaults, an optional
// config file (yaml, toml or json), REPLAY_* environment variables, and
// command-line flags bound by the caller:
//
//	modules:
//	  dir: target/machines/latest
//	host:
//	  inherit_stdio: true
//	  inherit_args: true
//	  inherit_env: false
//	engine:
//	  interpreter: true
//	timeout: 30s
//	log:
//	  level: info
//	  format: console
//
// Invalid values are reported as *errors.ConfigError naming the key.
package config
