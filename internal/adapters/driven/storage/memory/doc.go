// Package memory provides in-memory implementations of driven port interfaces.
// They back the plain node terminus and serve as fakes in tests.
package memory
