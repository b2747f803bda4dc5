// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/telekom/repomake/pkg/repomake/output"
)

func NewTokensCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tokens",
		Aliases: []string{"token"},
		Short:   "Manage saved GitHub tokens",
		Args:    cobra.NoArgs,
		RunE:    runGroup,
	}
	cmd.AddCommand(
		newTokensListCommand(),
		newTokensRemoveCommand(),
		newTokensClearCommand(),
	)
	return cmd
}

func newTokensListCommand() *cobra.Command {
	var outputFormat string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved identities, most recently used first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			format, err := output.ParseFormat(outputFormat)
			if err != nil {
				return err
			}
			s, err := rt.openStore()
			if err != nil {
				return err
			}
			views := output.IdentityViews(s.Load())
			if format != output.FormatTable {
				return output.WriteObject(rt.Writer(), format, views)
			}
			if len(views) == 0 {
				_, _ = fmt.Fprintln(rt.Writer(), "No saved tokens.")
				return nil
			}
			output.WriteIdentityTable(rt.Writer(), views)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "Output format: table, json, yaml")
	return cmd
}

func newTokensRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove LOGIN",
		Short: "Remove every saved token of a login",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			s, err := rt.openStore()
			if err != nil {
				return err
			}
			login := args[0]
			ids := s.Load()
			remaining := ids.WithoutLogin(login)
			removed := len(ids) - len(remaining)
			if removed == 0 {
				return fmt.Errorf("no saved token for login %s", login)
			}
			if err := s.Save(remaining); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(rt.Writer(), "Removed %d token(s) for %s.\n", removed, login)
			return nil
		},
	}
}

func newTokensClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all saved tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			s, err := rt.openStore()
			if err != nil {
				return err
			}
			if err := s.Clear(); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(rt.Writer(), "Deleted all saved tokens.")
			return nil
		},
	}
}
