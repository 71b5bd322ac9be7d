// Package registry holds the dynamically created gauge families of the shell.
//
// A Registry maps metric names to Prometheus gauge vectors. The first Add for
// a name registers a new GaugeVec with the exposition surface, using the tag
// keys of that call as the label names. The label names of a family never
// change afterwards: later calls resolve their tag values against them, with
// missing keys read as "" and unknown keys ignored. That substitution can make
// two different tag sets address the same series; it is kept for
// compatibility with existing command scripts.
//
// Removing the last series of a family unregisters the family.
//
// All operations, and Gather, run under a single mutex so that a scrape never
// observes a partially applied command.
//
// # Usage
//
//	reg := registry.NewWithRegistry()
//	err := reg.Add(command.Metric{Name: "temp", Tags: map[string]string{"room": "a"}}, 21.5)
//	v, err := reg.Get(command.Metric{Name: "temp", Tags: map[string]string{"room": "a"}})
//	err = reg.Remove(command.Metric{Name: "temp", Tags: map[string]string{"room": "a"}})
package registry
