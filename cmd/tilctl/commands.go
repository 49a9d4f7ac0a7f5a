package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kbukum/resourcekit/resource"
	"github.com/kbukum/resourcekit/til"
	"github.com/kbukum/resourcekit/version"
)

type rootFlags struct {
	configFile string
	envFile    string
	baseURL    string
	output     string
	debug      bool
}

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "tilctl",
		Short:         "Command-line client for the TIL acronym service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configFile, "config", "", "Config file (default: ./tilctl.yml, ./config.yml or the user config dir)")
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", "", "Env file (default: ./.env.tilctl or ./.env)")
	root.PersistentFlags().StringVar(&flags.baseURL, "base-url", "", "TIL server base URL, overrides til.base_url")
	root.PersistentFlags().StringVarP(&flags.output, "output", "o", outputJSON, "Output format: json or yaml")
	root.PersistentFlags().BoolVar(&flags.debug, "debug", false, "Enable debug logging")

	root.AddCommand(
		newAcronymsCommand(flags),
		newPeopleCommand(flags),
		newVersionCommand(flags),
	)
	return root
}

// withApp runs fn against a started app and stops it afterwards.
func withApp(flags *rootFlags, fn func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		cfg, err := loadConfig(flags)
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cfg, cmd.OutOrStdout(), flags.output)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := a.close(cmd.Context()); err == nil {
				err = cerr
			}
		}()
		return fn(cmd, a, args)
	}
}

func newAcronymsCommand(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "acronyms",
		Aliases: []string{"acronym"},
		Short:   "List, fetch, search and create acronyms",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List all acronyms",
		Args:  cobra.NoArgs,
		RunE: withApp(flags, func(cmd *cobra.Command, a *app, _ []string) error {
			return fetch(cmd.Context(), a, a.api.Acronyms)
		}),
	}

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Fetch one acronym",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(flags, func(cmd *cobra.Command, a *app, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return fetch(cmd.Context(), a, func() (*resource.Resource[til.Acronym], error) {
				return a.api.Acronym(id)
			})
		}),
	}

	search := &cobra.Command{
		Use:   "search <term>",
		Short: "Search acronyms by short or long form",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(flags, func(cmd *cobra.Command, a *app, args []string) error {
			return fetch(cmd.Context(), a, func() (*resource.Resource[[]til.Acronym], error) {
				return a.api.SearchAcronyms(args[0])
			})
		}),
	}

	create := &cobra.Command{
		Use:   "create <short> <long>",
		Short: "Create an acronym",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(flags, func(cmd *cobra.Command, a *app, args []string) error {
			return fetch(cmd.Context(), a, func() (*resource.Resource[til.Acronym], error) {
				return a.api.CreateAcronym(til.CreateAcronym{Short: args[0], Long: args[1]})
			})
		}),
	}

	cmd.AddCommand(list, get, search, create)
	return cmd
}

func newPeopleCommand(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "people",
		Aliases: []string{"person", "users"},
		Short:   "List, fetch and create people",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List all people",
		Args:  cobra.NoArgs,
		RunE: withApp(flags, func(cmd *cobra.Command, a *app, _ []string) error {
			return fetch(cmd.Context(), a, a.api.People)
		}),
	}

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Fetch one person",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(flags, func(cmd *cobra.Command, a *app, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return fetch(cmd.Context(), a, func() (*resource.Resource[til.Person], error) {
				return a.api.Person(id)
			})
		}),
	}

	var username string
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a person",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(flags, func(cmd *cobra.Command, a *app, args []string) error {
			return fetch(cmd.Context(), a, func() (*resource.Resource[til.Person], error) {
				return a.api.CreatePerson(til.CreatePerson{Name: args[0], Username: username})
			})
		}),
	}
	create.Flags().StringVarP(&username, "username", "u", "", "Username (required)")
	_ = create.MarkFlagRequired("username")

	cmd.AddCommand(list, get, create)
	return cmd
}

func newVersionCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := newPrinter(cmd.OutOrStdout(), flags.output)
			if err != nil {
				return err
			}
			return p.print(version.Get())
		},
	}
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q: must be a positive integer", s)
	}
	return id, nil
}
