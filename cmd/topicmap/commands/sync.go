// ABOUTME: Sync commands for Charm cloud synchronization of sessions
// ABOUTME: Provides status, push, pull, wipe and keys management
package commands

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/harper/topicmap/internal/charm"
	"github.com/harper/topicmap/internal/config"
	"github.com/harper/topicmap/internal/models"
)

// sessionSyncer is the charm client surface the sync commands use
type sessionSyncer interface {
	ID() (string, error)
	Host() string
	AuthorizedKeys() (string, error)
	Sync(ctx context.Context) error
	Reset() error
	PushSession(ctx context.Context, session *models.Session, turns []models.Turn) error
	PullSession(sessionID string) (*charm.Snapshot, error)
	ListSessionIDs() ([]string, error)
	Close() error
}

// openSyncer connects to Charm; tests replace it with a fake
var openSyncer = func(cfg *config.Config, logger *log.Logger) (sessionSyncer, error) {
	client, err := charm.NewClient(cfg.CharmConfig(), logger)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// NewSyncCmd creates the sync command group
func NewSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Manage Charm cloud synchronization",
		Long: `Manage synchronization of sessions with Charm cloud.

Sessions live in a local SQLite database. 'sync push' uploads snapshots
of sessions (rows, topics and question history) to your Charm account
and 'sync pull' restores them on another device linked to the same
account via SSH keys.`,
	}

	cmd.AddCommand(newSyncStatusCmd())
	cmd.AddCommand(newSyncPushCmd())
	cmd.AddCommand(newSyncPullCmd())
	cmd.AddCommand(newSyncWipeCmd())
	cmd.AddCommand(newSyncKeysCmd())

	return cmd
}

// withSyncer opens config and the charm client for the duration of fn
func withSyncer(cmd *cobra.Command, fn func(cfg *config.Config, logger *log.Logger, client sessionSyncer) error) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	client, err := openSyncer(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to Charm: %w", err)
	}
	defer func() { _ = client.Close() }()
	return fn(cfg, logger, client)
}

func newSyncStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show sync status and connection info",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSyncer(cmd, func(cfg *config.Config, logger *log.Logger, client sessionSyncer) error {
				out := cmd.OutOrStdout()
				id, err := client.ID()
				if err != nil {
					fmt.Fprintln(out, "Status: Not connected")
					fmt.Fprintln(out, "Run 'topicmap sync keys' to check your SSH keys")
					return nil
				}
				ids, err := client.ListSessionIDs()
				if err != nil {
					return err
				}

				fmt.Fprintln(out, "Status: Connected")
				fmt.Fprintf(out, "User ID: %s\n", id)
				fmt.Fprintf(out, "Host: %s\n", client.Host())
				fmt.Fprintf(out, "Synced sessions: %d\n", len(ids))
				return nil
			})
		},
	}
}

func newSyncPushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "push [session...]",
		Short: "Upload sessions to Charm (all sessions when none are named)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSyncer(cmd, func(cfg *config.Config, logger *log.Logger, client sessionSyncer) error {
				store, err := openStorage(cfg)
				if err != nil {
					return err
				}
				defer func() { _ = store.Close() }()

				ids := args
				if len(ids) == 0 {
					infos, err := store.ListSessions()
					if err != nil {
						return err
					}
					for _, info := range infos {
						ids = append(ids, info.SessionID)
					}
				}

				for _, id := range ids {
					session, err := store.GetSession(id)
					if err != nil {
						return err
					}
					turns, err := store.Turns(id)
					if err != nil {
						return err
					}
					if err := client.PushSession(cmd.Context(), session, turns); err != nil {
						return fmt.Errorf("pushing %s: %w", id, err)
					}
					logger.Debug("pushed session", "session", id, "turns", len(turns))
				}
				if !quiet {
					fmt.Fprintf(cmd.OutOrStdout(), "Pushed %d session(s)\n", len(ids))
				}
				return nil
			})
		},
	}
}

func newSyncPullCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pull [session...]",
		Short: "Restore sessions from Charm (all synced sessions when none are named)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSyncer(cmd, func(cfg *config.Config, logger *log.Logger, client sessionSyncer) error {
				if err := client.Sync(cmd.Context()); err != nil {
					return err
				}
				store, err := openStorage(cfg)
				if err != nil {
					return err
				}
				defer func() { _ = store.Close() }()

				ids := args
				if len(ids) == 0 {
					if ids, err = client.ListSessionIDs(); err != nil {
						return err
					}
				}

				for _, id := range ids {
					snap, err := client.PullSession(id)
					if err != nil {
						return err
					}
					if err := store.SaveSession(snap.Session); err != nil {
						return fmt.Errorf("saving %s: %w", id, err)
					}
					if err := store.ClearTurns(id); err != nil {
						return err
					}
					for i := range snap.Turns {
						if err := store.AppendTurn(id, &snap.Turns[i]); err != nil {
							return err
						}
					}
					logger.Debug("pulled session", "session", id, "rows", len(snap.Session.Rows))
				}
				if !quiet {
					fmt.Fprintf(cmd.OutOrStdout(), "Pulled %d session(s)\n", len(ids))
				}
				return nil
			})
		},
	}
}

func newSyncWipeCmd() *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Wipe the local Charm replica (nuclear option)",
		Long: `Completely wipe the local Charm replica.

WARNING: This deletes all locally cached sync data. Your cloud data
and your local SQLite sessions remain intact.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				fmt.Fprintln(cmd.OutOrStdout(), "This will wipe ALL local sync data!")
				fmt.Fprintln(cmd.OutOrStdout(), "Run with --confirm to proceed")
				return nil
			}
			return withSyncer(cmd, func(cfg *config.Config, logger *log.Logger, client sessionSyncer) error {
				if err := client.Reset(); err != nil {
					return fmt.Errorf("failed to wipe data: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Local sync data wiped successfully")
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&confirm, "confirm", false, "Confirm the wipe operation")

	return cmd
}

func newSyncKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List authorized SSH keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSyncer(cmd, func(cfg *config.Config, logger *log.Logger, client sessionSyncer) error {
				keys, err := client.AuthorizedKeys()
				if err != nil {
					return fmt.Errorf("failed to get authorized keys: %w", err)
				}
				if keys == "" {
					fmt.Fprintln(cmd.OutOrStdout(), "No authorized keys found")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Authorized SSH keys:")
				fmt.Fprintln(cmd.OutOrStdout(), keys)
				return nil
			})
		},
	}
}
