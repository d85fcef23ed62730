package cli

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iudanet/journalsync/internal/config"
	"github.com/iudanet/journalsync/internal/engine"
)

func (c *Cli) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Short:   "Show or change engine configuration",
		GroupID: "system",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the stored configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.svc.GetConfig(cmd.Context())
			if err != nil {
				return err
			}
			return c.printConfig(cfg)
		},
	}

	set := &cobra.Command{
		Use:   "set <key=value>...",
		Short: "Change configuration keys atomically",
		Long: `Change one or more configuration keys. Intervals are whole seconds.
Either every value is accepted or nothing changes.`,
		Example: `  syncctl config set auto_sync_enabled=true sync_interval=600
  syncctl config set conflict_resolution=manual`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values := make(map[string]string, len(args))
			for _, arg := range args {
				key, value, ok := strings.Cut(arg, "=")
				if !ok || key == "" {
					return fmt.Errorf("%w: expected key=value, got %q", config.ErrInvalid, arg)
				}
				values[strings.TrimSpace(key)] = value
			}

			cfg, err := c.svc.UpdateConfig(cmd.Context(), values)
			if err != nil {
				return err
			}
			return c.printConfig(cfg)
		},
	}

	cmd.AddCommand(show, set)
	return cmd
}

func (c *Cli) printConfig(cfg config.EngineConfig) error {
	values := cfg.Values()
	return c.output(values, func() {
		for _, key := range slices.Sorted(maps.Keys(values)) {
			c.io.Printf("%-26s %s\n", key, values[key])
		}
	})
}

func (c *Cli) dataTypesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "datatypes",
		Aliases: []string{"types"},
		Short:   "Show or change per data type sync policy",
		GroupID: "system",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List data types by priority",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			types, err := c.svc.GetDataTypes(cmd.Context())
			if err != nil {
				return err
			}
			return c.output(types, func() {
				c.io.Println(headerStyle.Render(fmt.Sprintf("%-16s  %-8s  %-7s  %s", "NAME", "PRIORITY", "ENABLED", "COMPRESS")))
				for _, dt := range types {
					c.io.Printf("%-16s  %-8d  %-7t  %t\n", dt.Name, dt.Priority, dt.Enabled, dt.CompressionEnabled)
				}
			})
		},
	}

	var enabled, compress bool
	var priority int
	set := &cobra.Command{
		Use:     "set <name>",
		Short:   "Create or update a data type",
		Example: `  syncctl datatypes set screenshot --priority 50 --compress=false`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var upd engine.DataTypeUpdate
			if cmd.Flags().Changed("enabled") {
				upd.Enabled = &enabled
			}
			if cmd.Flags().Changed("priority") {
				upd.Priority = &priority
			}
			if cmd.Flags().Changed("compress") {
				upd.CompressionEnabled = &compress
			}

			dt, err := c.svc.UpdateDataType(cmd.Context(), args[0], upd)
			if err != nil {
				return err
			}
			return c.output(dt, func() {
				c.io.Printf("%s: priority %d, enabled %t, compress %t\n", dt.Name, dt.Priority, dt.Enabled, dt.CompressionEnabled)
			})
		},
	}
	set.Flags().BoolVar(&enabled, "enabled", true, "include in syncs")
	set.Flags().IntVar(&priority, "priority", 0, "sync order, lower first")
	set.Flags().BoolVar(&compress, "compress", false, "compress newly registered files")

	cmd.AddCommand(list, set)
	return cmd
}
