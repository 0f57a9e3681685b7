package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/eeeflix-contacts/internal/repository"
	"github.com/noah-isme/eeeflix-contacts/internal/service"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a store file",
		Long:  "Check that a store file parses and holds valid, unique student ids.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo := repository.NewContactFileRepository(args[0])
			contacts, err := repo.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("validate: %w", err)
			}
			if err := service.NewContactService(repo, nil, nil, service.ContactServiceOptions{}).Validate(contacts); err != nil {
				return fmt.Errorf("validate: %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d contacts OK\n", args[0], len(contacts))
			return nil
		},
	}
}
