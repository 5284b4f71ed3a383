// Package polyhj contains the core components of PolyHJ, a polymorphic
// in-memory hash join engine. This root package defines the data model and
// configuration types which are employed when driving the engine, and is an
// overview of PolyHJ's key concepts: relations of fixed-width tuples, radix
// plans, and the collaborative build/probe models the engine dispatches
// between based on input sizes and observed key skew.
package polyhj
