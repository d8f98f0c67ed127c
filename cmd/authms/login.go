// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 authms Contributors

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/authms/authms/internal/account"
)

// newLoginCmd creates the login command, which prints a signed token.
func newLoginCmd(a *app) *cobra.Command {
	flags := &accountFlags{}
	var mode string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Verify credentials and print a session token",
		Long: `Verify a username or email together with its secret and print a signed
HS256 token. --mode selects which identifier is checked.`,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			authMode, err := account.ParseAuthMode(mode)
			if err != nil {
				return err
			}
			creds, err := flags.credentials(cmd)
			if err != nil {
				return err
			}
			return a.withService(cmd, func(ctx context.Context, svc AccountService) error {
				token, err := svc.Login(ctx, creds, authMode)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), token)
				return nil
			})
		}),
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&mode, "mode", account.ByUsername.String(), "identifier to check (username or email)")
	return cmd
}

// newTokenCmd creates the token command group.
func newTokenCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Inspect session tokens",
	}

	var jsonOutput bool
	verify := &cobra.Command{
		Use:   "verify TOKEN",
		Short: "Check a token's signature and expiry and print its claims",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			key, err := a.cfg.RequireSigningKey()
			if err != nil {
				return err
			}
			issuer, err := account.NewTokenIssuer(key, account.WithTTL(a.cfg.Auth.TokenTTL))
			if err != nil {
				return err
			}
			claims, err := issuer.Parse(strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			return writeClaims(cmd, claims, jsonOutput)
		}),
	}
	verify.Flags().BoolVar(&jsonOutput, "json", false, "output claims as JSON")
	cmd.AddCommand(verify)

	return cmd
}

func writeClaims(cmd *cobra.Command, claims *account.Claims, asJSON bool) error {
	w := cmd.OutOrStdout()
	if asJSON {
		if err := json.NewEncoder(w).Encode(claims); err != nil {
			return oops.Code("OUTPUT_FAILED").Wrap(err)
		}
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Subject:\t%s\n", claims.Subject)
	fmt.Fprintf(tw, "Name:\t%s\n", claims.Name)
	fmt.Fprintf(tw, "Email:\t%s\n", claims.Email)
	if claims.IssuedAt != nil {
		fmt.Fprintf(tw, "Issued:\t%s\n", claims.IssuedAt.UTC().Format(time.RFC3339))
	}
	if claims.ExpiresAt != nil {
		fmt.Fprintf(tw, "Expires:\t%s\n", claims.ExpiresAt.UTC().Format(time.RFC3339))
	}
	if err := tw.Flush(); err != nil {
		return oops.Code("OUTPUT_FAILED").Wrap(err)
	}
	return nil
}
