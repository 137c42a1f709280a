package main

import (
	"log"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: worker export <projectID> [outDir] | compact")
	}

	switch os.Args[1] {
	case "export":
		RunExport(os.Args[2:])
	case "compact":
		RunCompact()
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}
