package main

import (
	"fmt"
	"os"

	"github.com/jonesrussell/gocampaign/internal/bootstrap"

	_ "github.com/lib/pq"
)

func main() {
	if err := bootstrap.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "campaign-engine: %v\n", err)
		os.Exit(1)
	}
}
