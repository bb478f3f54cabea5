package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tordrt/xgscaffold/config"
	"github.com/tordrt/xgscaffold/serverversion"
)

var capabilitiesCmd = &cobra.Command{
	Use:   "capabilities [server-version]",
	Short: "List the features a server version supports",
	Long: `List every capability flag and whether the given server version supports it.

Examples:
  xgscaffold capabilities                  # Latest supported XG version
  xgscaffold capabilities 5.7.30-xg
  xgscaffold capabilities 10.5.3-mariadb
`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sv := serverversion.LatestSupportedServerVersion
		if len(args) == 1 {
			parsed, err := serverversion.Parse(args[0])
			if err != nil {
				return err
			}
			sv = parsed
		}
		return printCapabilities(cmd.OutOrStdout(), sv)
	},
}

var detectTimeout time.Duration

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Print the version of the server behind the connection string",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		connStr, err := resolveDSN(dsn, config.Default())
		if err != nil {
			return err
		}
		connStr, _, err = stripScaffoldOptions(connStr)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), detectTimeout)
		defer cancel()

		sv, err := serverversion.AutoDetect(ctx, connStr)
		if err != nil {
			return fmt.Errorf("failed to detect server version: %w", err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), sv)
		return nil
	},
}

func init() {
	detectCmd.Flags().StringVar(&dsn, "dsn", "", "Connection string (default: $XG_DSN or $DATABASE_URL)")
	detectCmd.Flags().DurationVar(&detectTimeout, "timeout", 5*time.Second, "Timeout for the version query")
}

// stripScaffoldOptions removes the mysql:// or mariadb:// prefix and the
// Scaffold:* options the driver does not understand.
func stripScaffoldOptions(connStr string) (string, config.ScaffoldSettings, error) {
	for _, prefix := range []string{"mysql://", "mariadb://"} {
		connStr = strings.TrimPrefix(connStr, prefix)
	}
	settings, stripped, err := config.ParseScaffoldSettings(connStr)
	return stripped, settings, err
}

func printCapabilities(w io.Writer, sv *serverversion.ServerVersion) error {
	support, err := serverversion.NewSupport(sv)
	if err != nil {
		return err
	}

	yes := color.New(color.FgGreen, color.Bold)
	no := color.New(color.FgRed)

	_, _ = fmt.Fprintf(w, "%s\n\n", sv)
	for _, name := range serverversion.Capabilities() {
		supported, err := support.PropertyOrVersion(name)
		if err != nil {
			return err
		}
		if supported {
			_, _ = yes.Fprint(w, "  yes ")
		} else {
			_, _ = no.Fprint(w, "  no  ")
		}
		_, _ = fmt.Fprintln(w, name)
	}
	return nil
}
