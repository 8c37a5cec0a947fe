package main

import (
	"os"

	"github.com/noah-isme/route-network-api/cmd/flightops/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
