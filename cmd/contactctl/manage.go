package main

import (
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/noah-isme/eeeflix-contacts/internal/manager"
)

func newManageCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "manage",
		Short: "Open the Contact Manager",
		Long: `Open the Contact Manager: a searchable, paginated table of every student
with inline editing of phone numbers and Facebook links.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd.Context())
			if err != nil {
				return fmt.Errorf("manage: %w", err)
			}
			defer s.logger.Sync() //nolint:errcheck

			prog := tea.NewProgram(manager.New(s.api, s.logger), tea.WithAltScreen())
			if _, err := prog.Run(); err != nil {
				return fmt.Errorf("manage: %w", err)
			}
			return nil
		},
	}
}

func newEditCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <student-id>",
		Short: "Edit one student's contact information",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			studentID, err := parseStudentID(args[0])
			if err != nil {
				return err
			}
			s, err := opts.open(cmd.Context())
			if err != nil {
				return fmt.Errorf("edit: %w", err)
			}
			defer s.logger.Sync() //nolint:errcheck

			if _, err := tea.NewProgram(manager.NewModal(s.api, studentID, s.logger)).Run(); err != nil {
				return fmt.Errorf("edit: %w", err)
			}
			return nil
		},
	}
}

func parseStudentID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid student id %q", raw)
	}
	return id, nil
}
