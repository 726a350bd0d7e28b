package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackleZac/trading-algorithm/internal/strategy"
)

var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List the registered strategy variants",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := strategy.DefaultParams()
		for _, name := range strategy.DefaultRegistry().List() {
			fmt.Fprintf(cmd.OutOrStdout(), "%-14s window %d\n", name, p.MaxWindow([]string{name}))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(strategiesCmd)
}
