package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tvshows/internal/notifications"
	"tvshows/internal/services/plex"
)

func newPlexCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plex",
		Short: "Manage Plex integration",
	}

	cmd.AddCommand(newPlexLinkCommand(ctx))
	cmd.AddCommand(newPlexUnlinkCommand(ctx))
	cmd.AddCommand(newPlexStatusCommand(ctx))
	cmd.AddCommand(newPlexRefreshCommand(ctx))
	cmd.AddCommand(newPlexPruneCommand(ctx))

	return cmd
}

func newPlexLinkCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "link",
		Short: "Connect tv-shows to Plex using the device link flow",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			if err := requireConfig(cfg); err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			linkCtx, cancel := context.WithTimeout(cmd.Context(), time.Duration(cfg.Plex.LinkTimeoutSeconds)*time.Second)
			defer cancel()

			manager, err := plex.NewTokenManager(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			err = manager.Link(linkCtx, func(pin *plex.Pin) {
				fmt.Fprintln(out, "Open https://plex.tv/link and enter the code:")
				fmt.Fprintf(out, "\n    %s\n\n", pin.Code)
				fmt.Fprintln(out, "Waiting for authorization... (Ctrl+C to abort)")
			})
			switch {
			case errors.Is(err, plex.ErrPinExpired), errors.Is(err, plex.ErrPinInvalid):
				return fmt.Errorf("%w; run 'tv-shows plex link' again", err)
			case errors.Is(err, context.DeadlineExceeded):
				return fmt.Errorf("no authorization within %ds; run 'tv-shows plex link' again", cfg.Plex.LinkTimeoutSeconds)
			case err != nil:
				return err
			}

			printStatus(out, statusOK, "Plex linked successfully")
			publish(cmd.Context(), ctx.notificationService(), logger, notifications.EventPlexLinked, nil)
			return nil
		},
	}
}

func newPlexUnlinkCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "unlink",
		Short: "Forget the stored Plex authorization",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			if err := requireConfig(cfg); err != nil {
				return err
			}
			manager, err := plex.NewTokenManager(cfg)
			if err != nil {
				return err
			}
			if err := manager.ClearAuthorization(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Plex authorization removed")
			return nil
		},
	}
}

func newPlexStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the Plex link and server connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			if err := requireConfig(cfg); err != nil {
				return err
			}
			manager, library, err := ctx.plexClients()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Server:            %s\n", cfg.Plex.URL)
			fmt.Fprintf(out, "Linked:            %s\n", yesNo(manager.HasAuthorization()))
			if linked := manager.LinkedAt(); !linked.IsZero() {
				fmt.Fprintf(out, "Linked at:         %s\n", linked.Local().Format("2006-01-02 15:04"))
			}
			fmt.Fprintf(out, "Refresh library:   %s\n", yesNo(cfg.Plex.RefreshLibrary))
			fmt.Fprintf(out, "Remove watched:    %s\n", yesNo(cfg.Plex.RemoveWatchedEpisodes))
			if !manager.HasAuthorization() {
				return nil
			}

			if err := library.CheckAuth(cmd.Context()); err != nil {
				printStatus(out, statusError, "Server check failed: %v", err)
				return err
			}
			sections, err := library.ShowSections(cmd.Context())
			if err != nil {
				return err
			}
			printStatus(out, statusOK, "Server reachable, %s", plural(len(sections), "show section"))
			for _, section := range sections {
				fmt.Fprintf(out, "  %s (%s)\n", section.Title, section.Key)
			}
			return nil
		},
	}
}

func newPlexRefreshCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Ask Plex to rescan every TV show section",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, library, err := ctx.plexClients()
			if err != nil {
				return err
			}
			if err := library.RefreshLibrary(cmd.Context()); err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), statusOK, "Plex library refresh requested")
			return nil
		},
	}
}

func newPlexPruneCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove watched episodes from Plex",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			_, library, err := ctx.plexClients()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if dryRun {
				watched, err := library.WatchedEpisodes(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Would remove %s\n", plural(len(watched), "episode"))
				for _, episode := range watched {
					fmt.Fprintf(out, "  %s\n", episode)
				}
				return nil
			}
			return pruneWatched(cmd.Context(), ctx, library, logger, out)
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "List watched episodes without removing them")
	return cmd
}
