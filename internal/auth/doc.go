// Package auth issues and validates the bearer tokens that carry submitter
// identity into the gate API.
package auth
