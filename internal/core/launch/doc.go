// Package launch contains the pure planning logic for turning a workload
// and a launch record into a concrete container specification.
//
// This package is part of the Functional Core: no I/O, no Docker SDK
// imports, no clock reads. The imperative shell converts the plans built
// here into Docker API calls.
package launch
