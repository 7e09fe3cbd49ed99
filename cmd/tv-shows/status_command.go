package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"tvshows/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check directories and external services",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			if err := requireConfig(cfg); err != nil {
				return err
			}

			var checker preflight.PlexChecker
			if cfg.PlexEnabled() {
				if manager, library, err := ctx.plexClients(); err == nil {
					checker = linkedLibrary{manager: manager, library: library}
				}
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			results := preflight.RunAll(cmd.Context(), cfg, checker)
			for _, line := range renderSectionHeader("tv-shows", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, result := range results {
				kind := statusError
				switch {
				case result.Skipped:
					kind = statusInfo
				case result.Passed:
					kind = statusOK
				}
				fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}
			if preflight.Failed(results) {
				return errors.New("one or more checks failed")
			}
			return nil
		},
	}
}

// linkedLibrary joins the token manager and library client into the shape
// the Plex readiness check expects.
type linkedLibrary struct {
	manager interface{ HasAuthorization() bool }
	library interface {
		CheckAuth(ctx context.Context) error
	}
}

func (l linkedLibrary) HasAuthorization() bool { return l.manager.HasAuthorization() }

func (l linkedLibrary) CheckAuth(ctx context.Context) error { return l.library.CheckAuth(ctx) }
