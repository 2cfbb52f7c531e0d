package main

import (
	"os"

	"github.com/pvetools/proxmoxctl/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
