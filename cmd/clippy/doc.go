// Package main hosts the clippy CLI entrypoint and command graph.
//
// The Cobra command tree turns terminal invocations into transcript analysis
// jobs, history lookups, model checks, configuration scaffolding, and an MCP
// stdio server. Configuration resolution and logger setup live in the shared
// command context so subcommands only describe their flags and output.
//
// Keep this package lean: new behavior belongs in the internal packages
// first and is surfaced here through dedicated commands or flags.
package main
