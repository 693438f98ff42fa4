package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/spf13/cobra"

	"car-inventory-api/internal/client"
)

const defaultAPIURL = "http://localhost:8080"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	APIURL  string
	Timeout time.Duration
}

// NewRootCommand creates the carctl command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	apiURL := os.Getenv("CAR_API_URL")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	cmd := &cobra.Command{
		Use:           "carctl",
		Short:         "Manage the car inventory",
		Long:          "Command line client for the car inventory REST API.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.APIURL, "api-url", apiURL, "base URL of the car inventory API (env CAR_API_URL)")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", client.DefaultTimeout, "request timeout")

	cmd.AddCommand(newListCommand(opts))
	cmd.AddCommand(newGetCommand(opts))
	cmd.AddCommand(newCreateCommand(opts))
	cmd.AddCommand(newUpdateCommand(opts))
	cmd.AddCommand(newDeleteCommand(opts))

	return cmd
}

func (o *RootOptions) newClient() (*client.Client, error) {
	return client.New(o.APIURL, client.WithTimeout(o.Timeout))
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
