package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/segmentfilter/internal/operator"
	"github.com/TimurManjosov/segmentfilter/internal/segment"
)

var (
	controlType     string
	controlAlias    string
	controlOperator string
	controlValue    string
)

var controlCmd = &cobra.Command{
	Use:   "control",
	Short: "Show which control renders a filter value",
	Long: `Ask the service which input renders the value of a filter.

Examples:
  segmentctl control --type select --operator in
  segmentctl control --alias leadlist --type leadlist --operator '!empty'
  segmentctl control --type text --operator like --value '"acme"'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := segment.FilterRequest{
			Field:    segment.Field{Alias: controlAlias, Type: controlType},
			Operator: operator.Operator(controlOperator),
		}
		if controlValue != "" {
			if err := json.Unmarshal([]byte(controlValue), &req.Filter); err != nil {
				return fmt.Errorf("invalid --value JSON: %w", err)
			}
		}

		c, err := newClient()
		if err != nil {
			return err
		}
		ctrl, err := c.FilterControl(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("failed to resolve control: %w", err)
		}
		return printer(cmd).Control(ctrl)
	},
}

func init() {
	rootCmd.AddCommand(controlCmd)

	controlCmd.Flags().StringVar(&controlType, "type", "", "Field type")
	controlCmd.Flags().StringVar(&controlAlias, "alias", "", "Field alias")
	controlCmd.Flags().StringVar(&controlOperator, "operator", "", "Filter operator")
	controlCmd.Flags().StringVar(&controlValue, "value", "", "Stored filter value as JSON")
	_ = controlCmd.MarkFlagRequired("operator")
}
