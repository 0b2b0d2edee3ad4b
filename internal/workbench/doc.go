// Package workbench holds the four in-memory collections the autofill
// phases share: tasks, slots, capacities and the service catalogue.
//
// Every phase after loading works on the same *Bench, so slot and capacity
// mutations made by the solver are visible to validation, writing and
// reporting without reloading. None of the types are safe for concurrent
// mutation; a bench belongs to exactly one run.
package workbench
