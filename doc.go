// Package binfield is a lazily-materialized binary field-tree engine:
// wrap a byte source in a stream.Stream, bind a Parser to it, and
// traverse the resulting tree of Field/FieldSet nodes by name, index,
// or slash-separated path. Individual format layouts live in
// sibling parsers/* packages; this package is the format-agnostic
// core those packages are written against.
package binfield
