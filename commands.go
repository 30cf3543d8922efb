package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"suorganizer/config"
	"suorganizer/constants"
	"suorganizer/database"
	"suorganizer/fixtures"

	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configPath string
	loadConfig := func() (*config.Config, error) {
		return config.Load(configPath)
	}

	root := &cobra.Command{
		Use:          "suorganizer",
		Short:        "Startup organizer and blog",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return serve(cfg)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a config file (default ./config.yaml)")

	root.AddCommand(
		newServeCommand(loadConfig),
		newMigrateCommand(loadConfig),
		newCreateSuperuserCommand(loadConfig),
		newGrantCommand(loadConfig),
		newGroupCommand(loadConfig),
		newDumpDataCommand(loadConfig),
		newLoadDataCommand(loadConfig),
	)
	return root
}

type configLoader func() (*config.Config, error)

// withDatabase opens the configured database for the duration of fn.
func withDatabase(load configLoader, fn func() error) error {
	cfg, err := load()
	if err != nil {
		return err
	}
	if err := database.Init(cfg); err != nil {
		return err
	}
	defer database.CloseDB()
	return fn()
}

func newServeCommand(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return serve(cfg)
		},
	}
}

func newMigrateCommand(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the schema and seed permissions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(load, func() error {
				fmt.Fprintln(cmd.OutOrStdout(), "Database is up to date.")
				return nil
			})
		},
	}
}

func newCreateSuperuserCommand(load configLoader) *cobra.Command {
	var email, password, name string
	cmd := &cobra.Command{
		Use:   "createsuperuser",
		Short: "Create an active staff superuser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				var err error
				password, err = readPassword(cmd.InOrStdin(), cmd.OutOrStdout())
				if err != nil {
					return err
				}
			}
			if err := checkPassword(password); err != nil {
				return err
			}
			return withDatabase(load, func() error {
				user, err := database.CreateUser(database.NewUser{
					Email:       email,
					Password:    password,
					Name:        name,
					IsStaff:     true,
					IsSuperuser: true,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Superuser %s created with profile %s.\n", user.Email, user.Profile.Slug)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address (required)")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	cmd.Flags().StringVar(&name, "name", "Administrator", "profile name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func readPassword(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, "Password: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", fmt.Errorf("password may not be blank")
	}
	return password, nil
}

// checkPassword applies the same minimum length as the signup form.
func checkPassword(password string) error {
	if len(password) < constants.PASSWORD_MIN_LENGTH {
		return fmt.Errorf("password must contain at least %d characters", constants.PASSWORD_MIN_LENGTH)
	}
	return nil
}

func newGrantCommand(load configLoader) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "grant --email EMAIL CODENAME...",
		Short: "Give permissions such as organizer.add_tag to a user",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(load, func() error {
				user, err := database.GetUserWithEmail(email)
				if err != nil {
					return err
				}
				if user == nil {
					return fmt.Errorf("no user with email %s", email)
				}
				if err := database.GrantPermissions(user, args...); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Granted %s to %s.\n", strings.Join(args, ", "), user.Email)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address of the user (required)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newGroupCommand(load configLoader) *cobra.Command {
	group := &cobra.Command{
		Use:   "group",
		Short: "Manage permission groups",
	}

	var perms []string
	create := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a group or replace its permissions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(load, func() error {
				g, err := database.CreateGroup(args[0], perms...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Group %s has %d permissions.\n", g.Name, len(g.Permissions))
				return nil
			})
		},
	}
	create.Flags().StringSliceVar(&perms, "perm", nil, "permission codename, repeatable")

	var email string
	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a user to a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(load, func() error {
				user, err := database.GetUserWithEmail(email)
				if err != nil {
					return err
				}
				if user == nil {
					return fmt.Errorf("no user with email %s", email)
				}
				if err := database.AddToGroup(user, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s to %s.\n", user.Email, args[0])
				return nil
			})
		},
	}
	add.Flags().StringVar(&email, "email", "", "email address of the user (required)")
	_ = add.MarkFlagRequired("email")

	group.AddCommand(create, add)
	return group
}

func newDumpDataCommand(load configLoader) *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "dumpdata",
		Short: "Write tags, startups, news links and posts as a fixture",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := fixtures.ParseFormat(format)
			if output != "" && !cmd.Flags().Changed("format") {
				f, err = fixtures.FormatFromPath(output)
			}
			if err != nil {
				return err
			}

			return withDatabase(load, func() error {
				doc, err := fixtures.Dump(database.GetDB())
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if output != "" {
					file, err := os.Create(output)
					if err != nil {
						return err
					}
					defer file.Close()
					w = file
				}
				return fixtures.Encode(w, doc, f)
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "json or yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write instead of stdout")
	return cmd
}

func newLoadDataCommand(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "loaddata FILE",
		Short: "Upsert a JSON or YAML fixture by natural keys",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := fixtures.FormatFromPath(args[0])
			if err != nil {
				return err
			}
			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()

			doc, err := fixtures.Decode(file, format)
			if err != nil {
				return err
			}
			return withDatabase(load, func() error {
				counts, err := fixtures.Load(database.GetDB(), doc)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Installed %s.\n", counts)
				return nil
			})
		},
	}
}
