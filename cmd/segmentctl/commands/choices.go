package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	choicesType  string
	choicesAlias string
)

var choicesCmd = &cobra.Command{
	Use:   "choices",
	Short: "Show the choices of a field type or alias",
	Long: `Show the selectable values of a filter. Segment choices depend on the
acting user (--user).

Examples:
  segmentctl choices --type country
  segmentctl choices --alias leadlist --user 2`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if choicesType == "" && choicesAlias == "" {
			return errors.New("one of --type or --alias is required")
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		set, err := c.Choices(cmd.Context(), choicesType, choicesAlias, userID)
		if err != nil {
			return fmt.Errorf("failed to fetch choices: %w", err)
		}
		return printer(cmd).Choices(set)
	},
}

var choicesFieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "List the field types and aliases that have choices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		fields, err := c.ChoiceFields(cmd.Context(), userID)
		if err != nil {
			return fmt.Errorf("failed to list choice fields: %w", err)
		}
		return printer(cmd).ChoiceFields(fields)
	},
}

func init() {
	rootCmd.AddCommand(choicesCmd)
	choicesCmd.AddCommand(choicesFieldsCmd)

	choicesCmd.Flags().StringVar(&choicesType, "type", "", "Field type")
	choicesCmd.Flags().StringVar(&choicesAlias, "alias", "", "Field alias")
}
