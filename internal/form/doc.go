// Package form implements the parameter-to-matrix binding engine behind every
// algorithm form.
//
// A Store holds the live values of one form. Scalar writes go through Coerce;
// writes to a controller scalar re-resolve the dimensions of the matrices that
// depend on it (see Resolve) and reshape them with Reconcile, preserving every
// cell that is still in range. Reads through Get always return values whose
// shape matches the currently resolved dimensions.
package form
