package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gcsrm/recruitment-portal/internal/catalog"
	"github.com/gcsrm/recruitment-portal/internal/models"
	"github.com/gcsrm/recruitment-portal/internal/storage"
)

var rootCmd = &cobra.Command{
	Use:   "portalctl",
	Short: "Recruitment portal admin CLI",
	Long: `portalctl inspects and maintains the recruitment portal store.

Read commands talk to the configured database directly (DATABASE_DRIVER,
DATABASE_DSN, or --driver/--dsn). With --server they go through a running
portal's admin API instead, authenticated with --admin-key.`,
	SilenceUsage: true,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("PORTALCTL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("driver", "", "store driver (overrides DATABASE_DRIVER)")
	rootCmd.PersistentFlags().String("dsn", "", "store DSN (overrides DATABASE_DSN)")
	rootCmd.PersistentFlags().String("server", "", "portal base URL; read commands use its API")
	rootCmd.PersistentFlags().String("admin-key", "", "admin API key for --server")
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("driver", rootCmd.PersistentFlags().Lookup("driver"))
	_ = viper.BindPFlag("dsn", rootCmd.PersistentFlags().Lookup("dsn"))
	_ = viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))
	_ = viper.BindPFlag("admin-key", rootCmd.PersistentFlags().Lookup("admin-key"))
}

func registerCommands() {
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(tasksCmd())
	rootCmd.AddCommand(participantsCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(lookupCmd())
	rootCmd.AddCommand(healthCmd())
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations or create indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, repo storage.Repository) error {
				if err := storage.Migrate(ctx, repo); err != nil {
					return err
				}
				fmt.Println("migrations applied")
				return nil
			})
		},
	}
}

func tasksCmd() *cobra.Command {
	tasks := &cobra.Command{Use: "tasks", Short: "Manage the task catalog"}
	tasks.AddCommand(tasksImportCmd())
	tasks.AddCommand(tasksListCmd())
	return tasks
}

func tasksImportCmd() *cobra.Command {
	var dir, file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import YAML task definitions into the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (dir == "") == (file == "") {
				return fmt.Errorf("exactly one of --dir or --file is required")
			}

			loader := catalog.NewLoader()
			var err error
			if dir != "" {
				err = loader.LoadFromDir(dir)
			} else {
				err = loader.LoadFromFile(file)
			}
			if err != nil {
				return err
			}

			return withRepo(cmd.Context(), func(ctx context.Context, repo storage.Repository) error {
				if err := storage.Migrate(ctx, repo); err != nil {
					return err
				}
				n, err := loader.Import(ctx, repo)
				if err != nil {
					return err
				}
				fmt.Printf("imported %d tasks\n", n)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "catalog directory (one subdirectory per domain)")
	cmd.Flags().StringVar(&file, "file", "", "single catalog file")
	return cmd
}

func tasksListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSource(cmd.Context(), func(ctx context.Context, src source) error {
				tasks, err := src.ListTasks(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(tasks)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Domain", "Subdomain", "Year", "Type"})
				for _, t := range tasks {
					tw.AppendRow(table.Row{t.ID, t.Title, t.Domain, t.Subdomain, t.Year, t.TaskType})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func participantsCmd() *cobra.Command {
	p := &cobra.Command{Use: "participants", Short: "Inspect participants"}
	p.AddCommand(participantsListCmd())
	return p
}

func participantsListCmd() *cobra.Command {
	var status, domain string
	f := models.ParticipantFilters{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List participants, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			f.Status = models.ParticipantStatus(status)
			f.Domain = models.Domain(domain)
			if f.Status != "" && !f.Status.Valid() {
				return fmt.Errorf("unknown status %q", status)
			}
			return withSource(cmd.Context(), func(ctx context.Context, src source) error {
				items, err := src.Participants(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Reg No", "Name", "Email", "Domain", "Year", "Status", "Registered"})
				for _, p := range items {
					tw.AppendRow(table.Row{p.RegistrationNumber, p.Name, p.Email, p.Domain, p.Year, p.Status, p.CreatedAt.Format("2006-01-02 15:04")})
				}
				tw.AppendFooter(table.Row{"", "", "", "", "", "Total", len(items)})
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "status filter")
	cmd.Flags().StringVar(&domain, "domain", "", "domain filter (synonyms accepted)")
	cmd.Flags().IntVar(&f.Limit, "limit", 50, "maximum rows")
	cmd.Flags().IntVar(&f.Offset, "offset", 0, "rows to skip")
	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show registration totals and the latest registrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSource(cmd.Context(), func(ctx context.Context, src source) error {
				stats, err := src.Stats(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(stats)
				}
				fmt.Printf("Total registrations: %d\n", stats.TotalUsers)
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Name", "Email", "Domain", "Registered"})
				for _, s := range stats.RecentRegistrations {
					tw.AppendRow(table.Row{s.Name, s.Email, s.Domain, s.CreatedAt.Format("2006-01-02 15:04")})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func lookupCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Show a participant's dashboard and assigned tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSource(cmd.Context(), func(ctx context.Context, src source) error {
				d, err := src.Lookup(ctx, email)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(d)
				}
				fmt.Printf("%s (%s) %s, %s, %s\n", d.Name, d.RegNo, d.Domain, d.Year, d.Status)
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Year", "Link"})
				for _, t := range d.Tasks {
					tw.AppendRow(table.Row{t.ID, t.Title, t.Year, t.Link})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "participant email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check store (or --server) health",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSource(cmd.Context(), func(ctx context.Context, src source) error {
				status, err := src.Health(ctx)
				fmt.Println(status)
				return err
			})
		},
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
