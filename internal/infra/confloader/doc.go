// Package confloader merges the server configuration from layered sources
// using koanf.
//
// From highest to lowest priority:
//
//  1. Overrides, which carry command-line flags
//  2. The process environment: RESPKV_ prefix, "__" between levels
//  3. A dotenv file, named like the environment
//  4. A YAML configuration file
//  5. Whatever the target struct already holds, normally the defaults
//
// Watcher follows the configuration file so the server can apply changes,
// such as a new log level, without a restart.
package confloader
