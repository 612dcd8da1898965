package commands

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var exportFilters string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Schedule a contact export",
	Long: `Schedule a contact export on behalf of a user. The user is notified that
the export is being prepared. Requires the admin API key.

Examples:
  segmentctl export --user 2
  segmentctl export --user 2 --filters '{"segment":"vip"}'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if userID <= 0 {
			return errors.New("--user is required")
		}
		var filters map[string]any
		if exportFilters != "" {
			if err := json.Unmarshal([]byte(exportFilters), &filters); err != nil {
				return fmt.Errorf("invalid --filters JSON: %w", err)
			}
		}

		c, err := newClient()
		if err != nil {
			return err
		}
		res, err := c.ScheduleExport(cmd.Context(), userID, filters)
		if err != nil {
			return fmt.Errorf("failed to schedule export: %w", err)
		}
		return printer(cmd).Export(res)
	},
}

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "List a user's notifications",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if userID <= 0 {
			return errors.New("--user is required")
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		ns, err := c.Notifications(cmd.Context(), userID)
		if err != nil {
			return fmt.Errorf("failed to list notifications: %w", err)
		}
		return printer(cmd).Notifications(ns)
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(notificationsCmd)

	exportCmd.Flags().StringVar(&exportFilters, "filters", "", "Export filters as JSON")
}
