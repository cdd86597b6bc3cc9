/*
main.go - Application entry point

PURPOSE:
  rentd runs the rent payment engine. Every subcommand shares one
  configuration (see config/config.go) and one wiring path (app.go).

COMMANDS:
  serve    HTTP API, plus the in-process reminder scheduler when enabled
  remind   Run the reminder job once and exit (for an external cron)
  worker   Deliver queued email (MAIL_QUEUE=true)
  seed     Reset the database and load a demo scenario

FLAGS:
  --config  YAML config file (overrides CONFIG_FILE)

EXAMPLES:
  # API on an in-memory database
  DB_PATH=":memory:" CRON_SECRET=dev rentd serve

  # Nightly job from crontab
  rentd remind --config /etc/rentd.yaml

  # Demo data
  rentd seed --scenario portfolio

SEE ALSO:
  - api/server.go: Router configuration
  - payments/reminders.go: Reminder job
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	var configFile string

	rootCmd := &cobra.Command{
		Use:           "rentd",
		Short:         "Rent payment lifecycle and penalty engine",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file")

	rootCmd.AddCommand(serveCmd(&configFile))
	rootCmd.AddCommand(remindCmd(&configFile))
	rootCmd.AddCommand(workerCmd(&configFile))
	rootCmd.AddCommand(seedCmd(&configFile))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
