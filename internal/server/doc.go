// Package server exposes the gating pipeline over HTTP: bearer-token
// identity, pipeline trigger and status endpoints, submission intake, and
// queue introspection.
package server
