package main

import (
	"fmt"
	"maps"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var remoteCmd = &cobra.Command{
	Use:     "remote",
	Short:   "Manage named campus servers",
	GroupID: "system",
}

var remoteAddCmd = &cobra.Command{
	Use:   "add <name> <url>",
	Short: "Add a remote, or replace one with the same name",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		base, err := normalizeURL(args[1], "http", "https")
		if err != nil {
			return err
		}
		r := Remote{URL: base}
		if natsURL, _ := cmd.Flags().GetString("nats"); natsURL != "" {
			if r.NATSURL, err = normalizeURL(natsURL, "nats", "tls"); err != nil {
				return err
			}
		}

		err = editRemotes(func(cfg *RemotesConfig) error {
			cfg.Remotes[name] = r
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved remote %s → %s\n", name, r.URL)
		return nil
	},
}

var remoteRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Forget a remote",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		err := editRemotes(func(cfg *RemotesConfig) error {
			if _, ok := cfg.Remotes[name]; !ok {
				return fmt.Errorf("no remote named %q", name)
			}
			delete(cfg.Remotes, name)
			if cfg.Active == name {
				cfg.Active = ""
			}
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed remote %s\n", name)
		return nil
	},
}

var remoteUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Make a remote the default server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		err := editRemotes(func(cfg *RemotesConfig) error {
			if _, ok := cfg.Remotes[name]; !ok {
				return fmt.Errorf("no remote named %q", name)
			}
			cfg.Active = name
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Using remote %s\n", name)
		return nil
	},
}

var remoteListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List remotes; the active one is marked with *",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readRemotes()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(cfg.Remotes) == 0 {
			fmt.Fprintln(out, "No remotes. Add one with: campus remote add <name> <url>")
			return nil
		}

		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  NAME\tURL\tNATS")
		for _, name := range slices.Sorted(maps.Keys(cfg.Remotes)) {
			mark := " "
			if name == cfg.Active {
				mark = "*"
			}
			r := cfg.Remotes[name]
			fmt.Fprintf(tw, "%s %s\t%s\t%s\n", mark, name, r.URL, r.NATSURL)
		}
		return tw.Flush()
	},
}

func init() {
	remoteAddCmd.Flags().String("nats", "", "NATS URL used by the events command")

	remoteCmd.AddCommand(remoteAddCmd, remoteRemoveCmd, remoteUseCmd, remoteListCmd)
}
