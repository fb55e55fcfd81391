// Command genson infers a unified JSON Schema or Avro schema from a
// collection of JSON documents, and can rewrite those documents into the
// canonical form the inferred schema describes.
package main

import (
	"os"

	"github.com/fatih/color"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		color.New(color.FgRed, color.Bold).Fprint(os.Stderr, "genson: ")
		color.New(color.FgRed).Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
