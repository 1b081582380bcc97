// Command taskctl is a terminal client for the taskflow API. The move
// command runs a drag gesture through kanban.Reconciler against the server,
// so a rejected write restores the board exactly as it was.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"taskflow/internal/client"
	"taskflow/internal/config"
)

var (
	baseURL string
	token   string
	verbose bool
)

func main() {
	cfg := config.LoadClient()

	rootCmd := &cobra.Command{
		Use:   "taskctl",
		Short: "Inspect and rearrange taskflow boards",
	}
	rootCmd.PersistentFlags().StringVar(&baseURL, "url", cfg.BaseURL, "API base URL (TASKFLOW_URL)")
	rootCmd.PersistentFlags().StringVar(&token, "token", cfg.Token, "bearer token (TASKFLOW_TOKEN)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print every board the reconciler renders")

	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(boardCmd())
	rootCmd.AddCommand(moveCmd())
	rootCmd.AddCommand(addCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newClient() *client.Client {
	return client.New(baseURL, client.WithToken(token))
}
