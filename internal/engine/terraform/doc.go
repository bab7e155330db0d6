// Package terraform supplies the terraform-specific half of supervised
// execution: prompt detection and context extraction for terraform's
// interactive output, per-sequence executor construction with built-in
// phase configurations, plan metadata handling, and output capture.
package terraform
