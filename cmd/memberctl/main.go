package main

import (
	"log"

	"github.com/spf13/cobra"

	"memberboard/internal/tools/loadgen"
	"memberboard/internal/tools/migrate"
	"memberboard/internal/tools/obscheck"
	"memberboard/internal/tools/seed"
	"memberboard/internal/tools/stats"
)

func main() {
	root := &cobra.Command{
		Use:   "memberctl",
		Short: "Operational tooling for memberboard",
	}
	root.AddCommand(
		seed.NewCommand(),
		migrate.NewCommand(),
		stats.NewCommand(),
		loadgen.NewCommand(),
		obscheck.NewCommand(),
	)
	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}
