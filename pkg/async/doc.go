// Package async provides a bounded worker pool for running many
// independent tasks with per-task failure isolation.
package async
