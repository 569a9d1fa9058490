// Package label contains the Label bounded context.
// It owns the physical label geometry, the artifacts flowing through the
// transform pipeline and the PreparedLabel record produced for printing.
package label
