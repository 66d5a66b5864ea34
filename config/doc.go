// Package config handles loading and parsing of configuration from YAML files,
// environment variables and command line flags. It defines the application
// configuration structure including server settings, the SPA launch manifest
// location, the proxy timeout, health check interval and metrics routes.
package config
