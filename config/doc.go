// Package config loads the sitesearch TOML configuration file.
//
// A missing file is not an error: Load returns Default(). Values present in
// the file override the defaults and command-line flags override both.
package config
