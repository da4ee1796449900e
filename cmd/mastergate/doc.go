// Package main hosts the Mastergate CLI entrypoint and command graph.
//
// The Cobra-based command tree covers queue inspection, local gate runs,
// submission intake, token issuance, feedback unlocking, and configuration
// scaffolding. It centralizes configuration resolution and queue access so
// subcommands can focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
