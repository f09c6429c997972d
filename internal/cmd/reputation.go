package cmd

import (
	"github.com/spf13/cobra"
)

var reputationCmd = &cobra.Command{
	Use:   "reputation <domain>",
	Short: "Get the risk score for a domain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := buildClient()
		if err != nil {
			return err
		}
		defer c.Close()

		payload, err := c.Reputation(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return renderPayload("Reputation: "+args[0], payload)
	},
}

func init() {
	rootCmd.AddCommand(reputationCmd)
}
