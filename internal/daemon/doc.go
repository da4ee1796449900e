// Package daemon combines the gate API server and the submission store into
// a single lifecycle with flock-based locking to prevent multiple concurrent
// instances from sharing one database.
package daemon
