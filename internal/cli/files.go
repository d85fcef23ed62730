package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/iudanet/journalsync/internal/engine"
	"github.com/iudanet/journalsync/internal/models"
)

func (c *Cli) registerCommand() *cobra.Command {
	var req engine.RegisterRequest
	var direction string
	var compress bool

	cmd := &cobra.Command{
		Use:   "register <local-path>",
		Short: "Track a file and sync it immediately",
		Example: `  syncctl register ~/journal/trades.db --type trade
  syncctl register ~/journal/shot.png --type screenshot --direction upload`,
		GroupID: "files",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.LocalPath = args[0]
			req.Direction = models.Direction(direction)
			if cmd.Flags().Changed("compress") {
				req.Compress = &compress
			}

			entry, err := c.svc.RegisterFile(cmd.Context(), req)
			if err != nil {
				return err
			}
			return c.output(entry, func() {
				c.io.Printf("Registered %s -> %s [%s]\n", entry.LocalPath, entry.RemotePath, statusText(entry.Status))
				if entry.Status == models.StatusError {
					c.io.Println("Initial sync failed; see 'syncctl logs' for details.")
				}
			})
		},
	}

	cmd.Flags().StringVar(&req.RemotePath, "remote", "", "remote path (default: <remote_root>/<basename>)")
	cmd.Flags().StringVar(&direction, "direction", "", "upload, download or bidirectional (default)")
	cmd.Flags().StringVarP(&req.DataType, "type", "t", "", "data type (default: general)")
	cmd.Flags().BoolVar(&compress, "compress", false, "compress remote copy (default: data type setting)")
	return cmd
}

func (c *Cli) unregisterCommand() *cobra.Command {
	var deleteRemote bool

	cmd := &cobra.Command{
		Use:     "unregister <local-path>",
		Short:   "Stop tracking a file",
		GroupID: "files",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.svc.UnregisterFile(cmd.Context(), args[0], deleteRemote); err != nil {
				return err
			}
			return c.output(map[string]string{"unregistered": args[0]}, func() {
				c.io.Printf("Unregistered %s\n", args[0])
			})
		},
	}

	cmd.Flags().BoolVar(&deleteRemote, "delete-remote", false, "also delete the remote copy")
	return cmd
}

func (c *Cli) syncCommand() *cobra.Command {
	var dataTypes []string

	cmd := &cobra.Command{
		Use:   "sync [local-path]",
		Short: "Sync one file, or every tracked file",
		Example: `  syncctl sync
  syncctl sync --type trade --type plan
  syncctl sync ~/journal/trades.db`,
		GroupID: "files",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if len(dataTypes) > 0 {
					return fmt.Errorf("--type cannot be combined with a path")
				}
				res, err := c.svc.SyncFile(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return c.output(res, func() {
					c.io.Printf("%s: %s (%s) [%s]\n", res.Entry.LocalPath, res.Action, res.Reason, statusText(res.Entry.Status))
					if res.Conflict {
						c.io.Printf("%s conflict; resolve with 'syncctl resolve %s <local|remote|manual>'\n",
							conflictArrow, res.Entry.LocalPath)
					}
				})
			}

			res, err := c.svc.SyncAll(cmd.Context(), dataTypes...)
			if err != nil {
				return err
			}
			return c.output(res, func() {
				c.io.Printf("Synced %d of %d files (%d failed, %d skipped)\n",
					res.Successful, res.Total, res.Failed, res.Skipped)
				for _, fe := range res.Errors {
					c.io.Printf("  %s %s: %s\n", errorStyle.Render("✗"), fe.LocalPath, fe.Error)
				}
			})
		},
	}

	cmd.Flags().StringSliceVarP(&dataTypes, "type", "t", nil, "only sync these data types")
	return cmd
}

func (c *Cli) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "status [local-path]",
		Short:   "Show sync state of tracked files",
		GroupID: "files",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}

			report, err := c.svc.GetSyncStatus(cmd.Context(), path)
			if err != nil {
				return err
			}
			return c.output(report, func() {
				c.io.Printf("Last sync: %s   Auto sync: %t\n", formatTime(report.LastSync), report.AutoSyncEnabled)

				statuses := make([]models.Status, 0, len(report.Counts))
				for st := range report.Counts {
					statuses = append(statuses, st)
				}
				slices.Sort(statuses)
				for _, st := range statuses {
					c.io.Printf("  %s %d\n", statusText(st), report.Counts[st])
				}
				if len(report.Entries) == 0 {
					c.io.Println("No files registered.")
					return
				}

				c.io.Println()
				c.io.Println(headerStyle.Render(fmt.Sprintf("%-8s  %-12s  %-13s  %-19s  %s", "STATUS", "TYPE", "DIRECTION", "LAST SYNC", "PATH")))
				for _, e := range report.Entries {
					c.io.Printf("%s  %-12s  %-13s  %-19s  %s\n",
						statusText(e.Status), e.DataType, e.Direction, formatTime(e.LastSync), e.LocalPath)
				}
			})
		},
	}
}

func (c *Cli) logsCommand() *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:     "logs",
		Short:   "Show the sync log, newest first",
		GroupID: "files",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logs, err := c.svc.GetSyncLogs(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}
			return c.output(logs, func() {
				if len(logs) == 0 {
					c.io.Println("No log records.")
					return
				}
				for _, rec := range logs {
					line := fmt.Sprintf("%s  %-17s  %-8s  %s",
						rec.Timestamp.Local().Format("2006-01-02 15:04:05"), rec.Action, rec.Status, rec.LocalPath)
					if rec.Error != nil {
						line += "  " + errorStyle.Render(*rec.Error)
					}
					c.io.Println(line)
				}
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "maximum number of records")
	cmd.Flags().IntVar(&offset, "offset", 0, "records to skip")
	return cmd
}

func (c *Cli) resolveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <local-path> <local|remote|manual>",
		Short: "Resolve a sync conflict",
		Long: `Resolve a flagged conflict:
  local   upload the local copy over the remote one
  remote  download the remote copy over the local one
  manual  accept both sides as they are now (after merging by hand)`,
		GroupID:   "files",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(models.ResolutionLocal), string(models.ResolutionRemote), string(models.ResolutionManual)},
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := c.svc.ResolveConflict(cmd.Context(), args[0], models.Resolution(args[1]))
			if err != nil {
				return err
			}
			return c.output(entry, func() {
				c.io.Printf("Resolved %s using %s copy [%s]\n", entry.LocalPath, args[1], statusText(entry.Status))
			})
		},
	}
}
