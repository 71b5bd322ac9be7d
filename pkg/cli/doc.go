// Package cli provides the command-line interface for pesh.
//
// Running pesh without a subcommand starts the scrape endpoint and the
// interactive shell. Subcommands:
//   - version: Show pesh version
//   - init: Create a starter config file (-i for an interactive form)
//   - config: Display effective configuration and its sources
//   - completion: Generate shell completion scripts
//
// Usage:
//
//	pesh
//	pesh -a 0.0.0.0:9100 --refresh 5s
//	pesh --graphite localhost:2003
//	pesh init -i
//	pesh config --json
package cli
