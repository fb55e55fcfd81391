// Package genson infers a single unified JSON Schema (or Avro record
// schema) from a collection of JSON documents, and can rewrite each input
// document into the canonical form that conforms to the inferred schema.
//
// The package folds each document into a schema node (Build), combines any
// number of partial schemas with an associative, commutative merge (Merge),
// decides per object node whether it should be a fixed-field record or a
// homogeneous map (InferMaps), and projects the result to JSON Schema or
// Avro (EmitSchema, EmitAvro). Normalise rewrites a document against the final
// schema.
package genson
