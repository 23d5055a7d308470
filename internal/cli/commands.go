package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var okLabel = color.New(color.FgGreen)
var errorLabel = color.New(color.FgRed)

// newRootCmd builds the command tree bound to a.
func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "waiter [command] [flags]",
		Short: "waiter - take table orders from the terminal",
		Long: `waiter is a terminal client for the restaurant ordering API.
A waiter signs in, opens a table, adds items from the menu and sends the
order to the kitchen.

Examples:
  # Point the client at the ordering API
  waiter config --server http://localhost:3333

  # Sign in
  waiter login --email ana@pizzeria.com

  # Open table 12 and add two Margheritas
  waiter order open 12
  waiter order add --category Pizzas --product Margherita --amount 2

  # Review and send the order
  waiter order show
  waiter order finish`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if skipsSetup(cmd) {
				return nil
			}
			return a.setup(cmd)
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
		SilenceErrors: true, // Prevent Cobra from printing the error
		SilenceUsage:  true, // Prevent Cobra from printing usage on error
	}

	rootCmd.PersistentFlags().StringVarP(&a.configFile, "config", "", "", "Path to configuration file to override default")
	rootCmd.PersistentFlags().BoolVarP(&a.jsonOutput, "json", "j", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log debug output to stderr")

	rootCmd.AddCommand(newVersionCmd(a))
	rootCmd.AddCommand(newConfigCmd(a))
	rootCmd.AddCommand(newLoginCmd(a))
	rootCmd.AddCommand(newLogoutCmd(a))
	rootCmd.AddCommand(newWhoamiCmd(a))
	rootCmd.AddCommand(newCategoriesCmd(a))
	rootCmd.AddCommand(newProductsCmd(a))
	rootCmd.AddCommand(newOrderCmd(a))
	return rootCmd
}

// Execute runs the CLI with the process arguments and exits with its status.
// This is called by main.main().
func Execute() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes one invocation and returns the exit status.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{}
	defer a.close()

	rootCmd := newRootCmd(a)
	rootCmd.SetArgs(args)
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(ctx)
	failures := a.flushNotices(stderr)
	if err == nil {
		return 0
	}
	// A failure notice already told the user; details are in the log.
	if failures > 0 {
		return 1
	}
	if a.jsonOutput {
		printJSON(stdout, map[string]string{
			"error": err.Error(),
		})
	} else {
		errorLabel.Fprintf(stderr, "Error: %v\n", err)
	}
	return 1
}

// newVersionCmd creates and returns a new version command
func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of waiter",
		Run: func(cmd *cobra.Command, args []string) {
			configPath, err := a.configPath()
			if err != nil {
				configPath = "unknown"
			}

			if a.jsonOutput {
				printJSON(cmd.OutOrStdout(), map[string]string{
					"version":     getCLIVersion(),
					"config_file": configPath,
				})
			} else {
				cmd.Printf("waiter %s\n", getCLIVersion())
				cmd.Printf("Config file: %s\n", configPath)
			}
		},
	}
}

// printJSON prints data as indented JSON to w
func printJSON(w io.Writer, data any) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	fmt.Fprintln(w, string(jsonData))
}

// getCLIVersion returns the current CLI version
func getCLIVersion() string {
	return "v0.1.0"
}
