// Package simulate predicts lossy-delivery distortion by re-encoding
// submitted audio through reference codec profiles and re-measuring peak
// levels on the encoded output. Results are advisory only and never feed
// the hard-fail rules.
package simulate
