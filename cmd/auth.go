package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/beemnet-bee/viplayer/internal/model"
)

var registerName string

var registerCmd = &cobra.Command{
	Use:   "register <email> <password>",
	Short: "Register a new operator",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		user, err := env.Auth.Register(cmd.Context(), registerName, args[0], args[1])
		if err != nil {
			return err
		}
		env.Sess.SetUser(user)
		env.Audit.Record("Operator Registered: "+user.Name, user.Name, model.AuditSuccess)
		fmt.Printf("registered %s <%s>\n", user.Name, user.Email)
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login <email> <password>",
	Short: "Sign in as an operator",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		user, err := env.Auth.Login(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		env.Sess.SetUser(user)
		fmt.Printf("signed in as %s (%d projects)\n", user.Name, len(user.Projects))
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the active session",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Auth.Logout(cmd.Context()); err != nil {
			return err
		}
		if err := env.Sess.Clear(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("signed out")
		return nil
	},
}

func init() {
	registerCmd.Flags().StringVar(&registerName, "name", "", "operator display name")
	registerCmd.MarkFlagRequired("name")
	rootCmd.AddCommand(registerCmd, loginCmd, logoutCmd)
}
