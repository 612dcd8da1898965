package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List field types with operators",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		types, err := c.FieldTypes(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list field types: %w", err)
		}
		return printer(cmd).FieldTypes(types)
	},
}

var operatorsCmd = &cobra.Command{
	Use:   "operators <field-type>",
	Short: "List the operators of a field type",
	Long: `List the operators a field type supports, with labels in the chosen locale.
Unknown field types get the text operators.

Examples:
  segmentctl operators bool
  segmentctl operators lead_email_received --locale fr --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		ops, err := c.Operators(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to list operators: %w", err)
		}
		return printer(cmd).Operators(ops)
	},
}

func init() {
	rootCmd.AddCommand(typesCmd)
	rootCmd.AddCommand(operatorsCmd)
}
