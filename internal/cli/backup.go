package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iudanet/journalsync/internal/backup"
)

func (c *Cli) backupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "backup",
		Short:   "Create, list, restore and prune backups",
		GroupID: "backup",
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Archive every tracked file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.ensureKey(cmd.Context()); err != nil {
				return err
			}
			rec, err := c.svc.CreateBackup(cmd.Context())
			if err != nil {
				return err
			}
			return c.output(rec, func() {
				c.io.Printf("Backup %s: %d files, %s [%s]\n",
					rec.RemoteArchivePath, rec.FileCount, formatSize(rec.TotalSize), rec.Status)
				if rec.Note != "" {
					c.io.Println(warnStyle.Render(rec.Note))
				}
			})
		},
	}

	var limit, offset int
	list := &cobra.Command{
		Use:   "list",
		Short: "List backups, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := c.svc.ListBackups(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}
			return c.output(records, func() {
				if len(records) == 0 {
					c.io.Println("No backups.")
					return
				}
				c.io.Println(headerStyle.Render(fmt.Sprintf("%-19s  %-8s  %5s  %10s  %-9s  %s",
					"CREATED", "STATUS", "FILES", "SIZE", "ENCRYPTED", "ARCHIVE")))
				for _, rec := range records {
					c.io.Printf("%-19s  %-8s  %5d  %10s  %-9t  %s\n",
						rec.Timestamp.Local().Format("2006-01-02 15:04:05"), rec.Status, rec.FileCount,
						formatSize(rec.TotalSize), rec.Encrypted, rec.RemoteArchivePath)
				}
			})
		},
	}
	list.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of records (0 = all)")
	list.Flags().IntVar(&offset, "offset", 0, "records to skip")

	var target string
	restore := &cobra.Command{
		Use:   "restore <archive-path>",
		Short: "Restore files from a backup",
		Long: `Restore every file of an archive. Files go back to their original paths
unless --target is given, in which case they are written into that folder.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.ensureKey(cmd.Context()); err != nil {
				return err
			}
			res, err := c.svc.RestoreBackup(cmd.Context(), args[0], target)
			if errors.Is(err, backup.ErrKeyUnavailable) {
				// archive was encrypted under an earlier configuration
				if err := c.unlock(cmd.Context()); err != nil {
					return err
				}
				res, err = c.svc.RestoreBackup(cmd.Context(), args[0], target)
			}
			if err != nil {
				return err
			}
			return c.output(res, func() {
				for _, f := range res.Files {
					c.io.Printf("  %s %s\n", okStyle.Render("✓"), f.Target)
				}
				for _, fe := range res.Errors {
					c.io.Printf("  %s %s: %s\n", errorStyle.Render("✗"), fe.LocalPath, fe.Error)
				}
				c.io.Printf("Restored %d files, %d failed\n", res.Restored, res.Failed)
			})
		},
	}
	restore.Flags().StringVar(&target, "target", "", "folder to restore into instead of the original paths")

	cleanup := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete backups beyond the retention count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.svc.CleanupOldBackups(cmd.Context())
			if err != nil {
				return err
			}
			return c.output(res, func() {
				c.io.Printf("Deleted %d backups\n", res.Deleted)
				for _, e := range res.Errors {
					c.io.Printf("  %s %s\n", errorStyle.Render("✗"), e)
				}
			})
		},
	}

	cmd.AddCommand(create, list, restore, cleanup)
	return cmd
}
