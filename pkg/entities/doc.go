// Package entities defines the statistic-bearing recruiting objects
// (talent pools, talent pipelines, smart lists) and the Directory used
// to resolve and enumerate them.
//
// The entities themselves are owned by the main application database;
// this package only reads the minimal attributes the stats subsystem
// needs: id, owning domain, and creation time (the earliest valid
// stats day).
package entities
