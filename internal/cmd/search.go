package cmd

import (
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search for domains matching a query",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		maxLength, err := cmd.Flags().GetInt("max-length")
		if err != nil {
			return err
		}

		c, err := buildClient()
		if err != nil {
			return err
		}
		defer c.Close()

		params := url.Values{}
		if maxLength > 0 {
			params.Set("max_length", strconv.Itoa(maxLength))
		}

		payload, err := c.DomainSearch(cmd.Context(), args[0], params)
		if err != nil {
			return err
		}
		return renderPayload("Domain Search: "+args[0], payload)
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().Int("max-length", 0, "maximum domain name length")
}
