package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iliyamo/sakila-admin/internal/client"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the access token in ~/.sakilactl.json",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")

		prev, err := loadSession()
		if err != nil {
			return err
		}
		server := serverURL(prev)

		ctx, cancel := context.WithTimeout(cmd.Context(), timeoutFlag)
		defer cancel()
		t, err := client.New(server, "").Login(ctx, email, password)
		if err != nil {
			return err
		}
		if err := saveSession(session{Server: server, Token: t.Access.Token, Email: t.User.Email, Expires: t.Access.Expires}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s (%s), token valid until %s\n",
			t.User.Email, t.User.Role, t.Access.Expires.Local().Format("2006-01-02 15:04"))
		return nil
	},
}

func init() {
	loginCmd.Flags().String("email", "", "admin account email")
	loginCmd.Flags().String("password", "", "admin account password")
	_ = loginCmd.MarkFlagRequired("email")
	_ = loginCmd.MarkFlagRequired("password")
	rootCmd.AddCommand(loginCmd)
}
