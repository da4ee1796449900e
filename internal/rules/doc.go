// Package rules holds the deterministic pass/fail rules applied to measured
// submissions. Evaluation is a pure function over a metrics bundle and the
// configured thresholds.
package rules
