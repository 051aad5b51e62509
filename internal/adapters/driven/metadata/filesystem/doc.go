// Package filesystem implements metadata search over environment
// directories on the local filesystem.
//
// A source puppet:///modules/<module>/<path> resolves to
// <environment>/modules/<module>/files/<path>. Modules missing from the
// environment are looked up in the configured base module path, which is
// how a source can resolve outside the environment root.
package filesystem
