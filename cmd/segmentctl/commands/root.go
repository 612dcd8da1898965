package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/segmentfilter/internal/cli"
	"github.com/TimurManjosov/segmentfilter/internal/client"
)

var (
	// Global flags
	server  string
	apiKey  string
	profile string
	locale  string
	format  string
	userID  int64
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "segmentctl",
	Short: "CLI tool for the segment filter service",
	Long: `segmentctl queries the segment filter service: which operators a field
type supports, which choices a filter offers and which control renders a
filter value. It can also schedule contact exports.

Examples:
  segmentctl types
  segmentctl operators bool --locale fr
  segmentctl choices --alias leadlist --user 2
  segmentctl control --type select --operator in
  segmentctl export --user 2`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&server, "server", "", "Base URL of the segment filter API")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Admin API key")
	rootCmd.PersistentFlags().StringVar(&profile, "profile", "", "Profile from the config file")
	rootCmd.PersistentFlags().StringVar(&locale, "locale", "", "Locale for labels (e.g. en, fr)")
	rootCmd.PersistentFlags().StringVar(&format, "format", "table", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().Int64Var(&userID, "user", 0, "Acting user ID")
}

func newClient() (*client.Client, error) {
	p, err := cli.ResolveProfile(profile, server, apiKey)
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	c := client.NewClient(p.Server, p.APIKey)
	c.Locale = p.Locale
	if locale != "" {
		c.Locale = locale
	}
	return c, nil
}

func printer(cmd *cobra.Command) cli.Printer {
	return cli.Printer{W: cmd.OutOrStdout(), Format: cli.OutputFormat(format)}
}
