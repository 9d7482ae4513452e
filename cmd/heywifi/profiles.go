// ABOUTME: profiles command implementation
// ABOUTME: Lists profile names from the configured store and marks the selected one
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/heywifi/heywifi-go/pkg/modem"
)

func runProfiles(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd.Flags())
	if err != nil {
		return err
	}

	names, err := modem.ListProfiles(cfg.ProfilesFile)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, name := range names {
		marker := " "
		if name == cfg.Profile {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %s\n", marker, name)
	}
	return nil
}
