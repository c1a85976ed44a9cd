package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/johnquangdev/mock-interview/pkg/config"
	"github.com/johnquangdev/mock-interview/pkg/jwt"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an access token for local testing",
	RunE: func(cmd *cobra.Command, _ []string) error {
		email, _ := cmd.Flags().GetString("email")
		name, _ := cmd.Flags().GetString("name")
		if email == "" {
			return errors.New("--email is required")
		}

		cfg, err := config.LoadUnvalidated()
		if err != nil {
			return err
		}
		if cfg.Server.Environment == "production" {
			return errors.New("refusing to issue tokens in production")
		}

		token, err := jwt.NewManager(cfg.JWT.AccessSecret, cfg.JWT.AccessExpiry).GenerateAccessToken(email, name)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}

// Actual version can be specified in build command.
var version = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("%s version: %s\n", app, version)
	},
}

func init() {
	tokenCmd.Flags().String("email", "", "owner email carried by the token")
	tokenCmd.Flags().String("name", "", "display name carried by the token")
	rootCmd.AddCommand(tokenCmd, versionCmd)
}
