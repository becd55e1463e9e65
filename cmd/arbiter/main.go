package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "arbiter",
		Short: "Stance-locked debate engine with concession judging",
		Long:  "Runs stance-locked debates against a user and decides, turn by turn, whether the defended thesis has been rebutted and when the debate ends.",
	}

	root.PersistentFlags().Bool("verbose", false, "Log engine decisions to stderr")

	root.AddCommand(newDebateCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
