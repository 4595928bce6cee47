package main

import (
	"log"

	"github.com/example/wordwise/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Fatalf("wordwise: %v", err)
	}
}
