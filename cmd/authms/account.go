// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 authms Contributors

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/authms/authms/internal/account"
)

// newAccountCmd creates the account command group.
func newAccountCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Provision and inspect accounts",
	}
	cmd.AddCommand(newAccountCreateCmd(a))
	cmd.AddCommand(newAccountGetCmd(a))
	cmd.AddCommand(newAccountListCmd(a))
	cmd.AddCommand(newAccountDeleteAllCmd(a))
	return cmd
}

// withService builds the account service for one command and releases it afterwards.
func (a *app) withService(cmd *cobra.Command, fn func(context.Context, AccountService) error) error {
	ctx := cmd.Context()
	svc, release, err := a.deps.AccountServiceFactory(ctx, a.cfg, a.logger)
	if err != nil {
		return err
	}
	defer release()
	return fn(ctx, svc)
}

// readSecret returns flagValue, or the first line of in when it is empty.
func readSecret(in io.Reader, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", oops.Code("INVALID_ARGUMENT").Wrapf(err, "read secret from stdin")
	}
	return strings.TrimRight(line, "\r\n"), nil
}

type accountFlags struct {
	username string
	email    string
	secret   string
}

func (f *accountFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.username, "username", "", "account username")
	cmd.Flags().StringVar(&f.email, "email", "", "account email")
	cmd.Flags().StringVar(&f.secret, "secret", "", "account secret (read from stdin when empty)")
}

func (f *accountFlags) credentials(cmd *cobra.Command) (account.Credentials, error) {
	secret, err := readSecret(cmd.InOrStdin(), f.secret)
	if err != nil {
		return account.Credentials{}, err
	}
	return account.Credentials{Username: f.username, Email: f.email, Secret: secret}, nil
}

func newAccountCreateCmd(a *app) *cobra.Command {
	flags := &accountFlags{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		Long: `Create an account after checking that neither the email nor the
username is already registered.`,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			creds, err := flags.credentials(cmd)
			if err != nil {
				return err
			}
			return a.withService(cmd, func(ctx context.Context, svc AccountService) error {
				acct, err := svc.Create(ctx, creds)
				if err != nil {
					var invalid *account.InvalidAccountError
					if errors.As(err, &invalid) {
						fmt.Fprintln(cmd.ErrOrStderr(), strings.TrimRight(invalid.Summary(), "\n"))
					}
					return err
				}
				return writeAccounts(cmd.OutOrStdout(), []account.Account{*acct}, false)
			})
		}),
	}
	flags.register(cmd)
	return cmd
}

func newAccountGetCmd(a *app) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "get ID",
		Short: "Show one account",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return oops.Code("INVALID_ARGUMENT").With("id", args[0]).Wrapf(err, "account id must be an integer")
			}
			return a.withService(cmd, func(ctx context.Context, svc AccountService) error {
				acct, err := svc.GetByID(ctx, id)
				if err != nil {
					return err
				}
				if acct == nil {
					return oops.Code("ACCOUNT_NOT_FOUND").With("id", id).Errorf("account %d not found", id)
				}
				return writeAccounts(cmd.OutOrStdout(), []account.Account{*acct}, jsonOutput)
			})
		}),
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func newAccountListCmd(a *app) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every account",
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			return a.withService(cmd, func(ctx context.Context, svc AccountService) error {
				accounts, err := svc.GetAll(ctx)
				if err != nil {
					return err
				}
				return writeAccounts(cmd.OutOrStdout(), accounts, jsonOutput)
			})
		}),
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func newAccountDeleteAllCmd(a *app) *cobra.Command {
	var confirmed bool
	cmd := &cobra.Command{
		Use:   "delete-all",
		Short: "Delete every account",
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			if !confirmed {
				return oops.Code("CONFIRMATION_REQUIRED").Errorf("refusing to delete all accounts without --yes")
			}
			return a.withService(cmd, func(ctx context.Context, svc AccountService) error {
				n, err := svc.DeleteAll(ctx)
				if err != nil {
					return err
				}
				cmd.Printf("Deleted %d accounts\n", n)
				return nil
			})
		}),
	}
	cmd.Flags().BoolVar(&confirmed, "yes", false, "confirm deletion")
	return cmd
}

// writeAccounts renders accounts as a table or as a JSON array.
func writeAccounts(w io.Writer, accounts []account.Account, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(accounts); err != nil {
			return oops.Code("OUTPUT_FAILED").Wrap(err)
		}
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSERNAME\tEMAIL\tCORRELATION ID\tCREATED")
	for _, acct := range accounts {
		created := ""
		if !acct.CreatedAt.IsZero() {
			created = acct.CreatedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", acct.ID, acct.Username, acct.Email, acct.CorrelationID, created)
	}
	if err := tw.Flush(); err != nil {
		return oops.Code("OUTPUT_FAILED").Wrap(err)
	}
	return nil
}
