// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 authms Contributors

package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/authms/authms/internal/config"
	"github.com/authms/authms/internal/logging"
	"github.com/authms/authms/pkg/errutil"
)

// app carries the state shared by every subcommand of one invocation.
type app struct {
	deps       *Deps
	getenv     func(string) string
	configFile string

	cfg    *config.Config
	logger *slog.Logger
}

// NewRootCmd creates the root command for the authms CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(nil, nil)
}

// newRootCmd builds the command tree. Nil deps or getenv use the defaults.
func newRootCmd(deps *Deps, getenv func(string) string) *cobra.Command {
	a := &app{deps: deps.withDefaults(), getenv: getenv}

	cmd := &cobra.Command{
		Use:   "authms",
		Short: "authms - account provisioning and credential issuance",
		Long: `authms stores accounts in PostgreSQL, verifies their credentials and
issues signed session tokens.

Secrets are read from the environment: DATABASE_URL for the database
and AUTHMS_SIGNING_KEY (at least 32 bytes) for token signing.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&a.configFile, "config", "", "config file path")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(newMigrateCmd(a))
	cmd.AddCommand(newAccountCmd(a))
	cmd.AddCommand(newLoginCmd(a))
	cmd.AddCommand(newTokenCmd(a))
	cmd.AddCommand(newServeCmd(a))

	return cmd
}

// load resolves the configuration and installs the logger.
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configFile, cmd.Flags(), a.getenv)
	if err != nil {
		return err
	}
	logger, err := logging.SetDefault(logging.Options{
		Service: "authms",
		Version: version,
		Format:  cfg.Log.Format,
		Level:   cfg.Log.Level,
	}, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

// run adapts fn to cobra's RunE and logs any failure with its oops context.
func (a *app) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		if err != nil && a.logger != nil {
			errutil.LogError(cmd.Context(), a.logger, "command failed", err)
		}
		return err
	}
}
