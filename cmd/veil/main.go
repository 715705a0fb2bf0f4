// Package main provides the Veil CLI.
package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/veil-ml/veil/serialization"
)

const version = "v0.1.0"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			fmt.Printf("Veil %s\n", version)
			return
		case "inspect":
			if len(os.Args) < 3 {
				fmt.Fprintln(os.Stderr, "usage: veil inspect <model.veil>")
				os.Exit(2)
			}
			if err := inspect(os.Args[2]); err != nil {
				fmt.Fprintf(os.Stderr, "veil: %v\n", err)
				os.Exit(1)
			}
			return
		}
	}

	fmt.Println("Veil - Differentiable layers with type erasure for Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version           Show version")
	fmt.Println("  inspect <file>    Show the contents of a .veil model file")
}

func inspect(path string) error {
	header, stateDict, err := serialization.Load(path)
	if err != nil {
		return err
	}
	fmt.Printf("format version: %d\n", header.FormatVersion)
	fmt.Printf("veil version:   %s\n", header.VeilVersion)
	fmt.Printf("model type:     %s\n", header.ModelType)
	fmt.Printf("created at:     %s\n", header.CreatedAt)
	if len(header.Metadata) > 0 {
		fmt.Println("metadata:")
		for k, v := range header.Metadata {
			fmt.Printf("  %s: %s\n", k, v)
		}
	}

	names := make([]string, 0, len(stateDict))
	for name := range stateDict {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("tensors (%d):\n", len(names))
	var totalBytes int64
	for _, name := range names {
		raw := stateDict[name]
		fmt.Printf("  %-24s %-8s %v\n", name, raw.DType(), raw.Shape())
		totalBytes += int64(raw.ByteSize())
	}
	fmt.Printf("total data: %d bytes\n", totalBytes)
	return nil
}
