package main

import (
	"context"

	"github.com/spf13/cobra"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show the statistics cards",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := apiClient()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), timeoutFlag)
		defer cancel()
		res, err := c.Dashboard(ctx)
		if err != nil {
			return err
		}
		return printJSON(cmd, res)
	},
}

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Evaluate the negotiated analytics metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := apiClient()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), timeoutFlag)
		defer cancel()
		res, err := c.Analytics(ctx)
		if err != nil {
			return err
		}
		return printJSON(cmd, res)
	},
}

var tablesCmd = &cobra.Command{
	Use:   "tables [table]",
	Short: "List tables, or describe one table's columns",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := apiClient()
		if err != nil {
			return err
		}
		var name string
		if len(args) == 1 {
			name = args[0]
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), timeoutFlag)
		defer cancel()
		res, err := c.Tables(ctx, name)
		if err != nil {
			return err
		}
		return printJSON(cmd, res)
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd, analyticsCmd, tablesCmd)
}
