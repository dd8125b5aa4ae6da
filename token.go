package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"flip-lending/auth"
)

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for local development",
		RunE:  runToken,
	}

	cmd.Flags().String("user", "", "user id to embed as the token subject")
	cmd.Flags().String("role", string(auth.RoleBorrower), "role: borrower or lender")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runToken(cmd *cobra.Command, _ []string) error {
	userID, _ := cmd.Flags().GetString("user")
	role, _ := cmd.Flags().GetString("role")

	tokens, err := auth.NewJWTService(auth.JWTConfig{
		Secret:     cfg.Auth.Secret,
		Issuer:     cfg.Auth.Issuer,
		Expiration: cfg.Auth.TokenTTL,
	})
	if err != nil {
		return fmt.Errorf("%w (set FLIPLENDING_AUTH_SECRET)", err)
	}

	token, err := tokens.GenerateToken(userID, auth.Role(role))
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
