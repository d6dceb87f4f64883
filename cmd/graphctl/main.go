// Command graphctl is the operator CLI for a typegraph store. Its only
// commands are snapshot dump and snapshot restore.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/coregraph/typegraph/internal/config"
)

var rootCtx context.Context

// configFile backs the "file" layer of config.Load's flags > env > file
// > defaults precedence; the connection flags registered in init()
// below back the "flags" layer. env and defaults are applied inside
// config.Load itself.
var configFile string

var rootCmd = &cobra.Command{
	Use:           "graphctl",
	Short:         "Operate a typegraph store",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		rootCtx, _ = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		cmd.SetContext(rootCtx)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "YAML config file with database connection settings")
	flags.String("host", "", "database host (overrides PGHOST and the config file)")
	flags.String("port", "", "database port (overrides PGPORT and the config file)")
	flags.String("user", "", "database user (overrides PGUSER and the config file)")
	flags.String("password", "", "database password (overrides PGPASSWORD and the config file)")
	flags.String("dbname", "", "database name (overrides PGDBNAME and the config file)")
	flags.String("sslmode", "", "database sslmode (overrides PGSSLMODE and the config file)")
}

// dbConfig resolves the database connection settings for the running
// command, honoring config.Load's flags > env > file > defaults
// precedence.
func dbConfig(cmd *cobra.Command) config.DatabaseConfig {
	return config.Load(configFile, cmd.Flags())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "graphctl:", err)
		os.Exit(exitCodeFor(err))
	}
}
