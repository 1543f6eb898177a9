// Package cli wires the todoboard cobra commands.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"todoboard/internal/client"
)

// ServerEnv names the environment variable holding the default --server URL.
const ServerEnv = "TODOBOARD_SERVER"

// App carries process-level collaborators for the commands.
type App struct {
	// Getenv resolves environment variables; os.Getenv when nil.
	Getenv func(string) string
	// LookupEnv feeds config loading; os.LookupEnv when nil.
	LookupEnv func(string) (string, bool)
}

func (a *App) getenv(key string) string {
	if a == nil || a.Getenv == nil {
		return os.Getenv(key)
	}
	return a.Getenv(key)
}

func (a *App) lookupEnv() func(string) (string, bool) {
	if a == nil || a.LookupEnv == nil {
		return os.LookupEnv
	}
	return a.LookupEnv
}

// NewRootCmd creates the top-level "todoboard" command.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "todoboard",
		Short:         "Three-column todo board server and client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serverURL := app.getenv(ServerEnv)
	if serverURL == "" {
		serverURL = client.DefaultBaseURL
	}
	var opts clientOptions
	root.PersistentFlags().StringVar(&opts.server, "server", serverURL, "todoboard server URL for client commands (env "+ServerEnv+")")

	root.AddCommand(
		newServeCmd(app),
		newListCmd(&opts),
		newAddCmd(&opts),
		newMoveCmd(&opts),
		newRemoveCmd(&opts),
		newExportCmd(&opts),
	)
	return root
}
