package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"taskflow/internal/config"
	"taskflow/internal/migrations"
	"taskflow/internal/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the taskflow database schema",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			server.ConfigureLogging(config.Load().Log)
		},
	}

	rootCmd.AddCommand(upCmd())
	rootCmd.AddCommand(downCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func withRunner(fn func(*migrations.Runner) error) error {
	cfg := config.Load()
	runner, err := migrations.Open(cfg.Database.URL())
	if err != nil {
		return err
	}
	defer runner.Close()
	return fn(runner)
}

func upCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunner(func(r *migrations.Runner) error { return r.Up() })
		},
	}
}

func downCmd() *cobra.Command {
	var steps int
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back applied migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunner(func(r *migrations.Runner) error { return r.Down(steps) })
		},
	}
	cmd.Flags().IntVarP(&steps, "steps", "n", 1, "number of migrations to roll back")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunner(func(r *migrations.Runner) error {
				v, dirty, err := r.Version()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", v, dirty)
				return nil
			})
		},
	}
}
