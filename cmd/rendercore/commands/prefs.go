package commands

import (
	"fmt"
	"strconv"

	"github.com/ncobase/rendercore/config"
	"github.com/ncobase/rendercore/prefs"
	"github.com/spf13/cobra"
)

// NewPrefsCommand creates the preferences command
func NewPrefsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change render preferences",
	}

	cmd.AddCommand(
		newPrefsShowCommand(),
		newPrefsSetCommand(),
		newPrefsToggleCommand(),
	)

	return cmd
}

func openStore() (*prefs.Store, error) {
	cfg, err := config.GetConfig()
	if err != nil {
		return nil, err
	}
	return prefs.Open(cfg.Prefs.Path)
}

func newPrefsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print every preference",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", s.Path())
			for _, key := range prefs.Keys() {
				v, err := s.Lookup(key)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %t\n", key, v)
			}
			return nil
		},
	}
}

func newPrefsSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <true|false>",
		Short: "Set a preference",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			on, err := strconv.ParseBool(args[1])
			if err != nil {
				return fmt.Errorf("invalid value %q: %w", args[1], err)
			}
			s, err := openStore()
			if err != nil {
				return err
			}
			if err := s.Set(args[0], on); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %t\n", args[0], on)
			return nil
		},
	}
}

func newPrefsToggleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <key>",
		Short: "Flip a preference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			on, err := s.Toggle(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %t\n", args[0], on)
			return nil
		},
	}
}
