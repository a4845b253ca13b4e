// closecap is a command line tool to compile, inspect and preview
// caption databases.
package main

import "os"
import "fmt"

import "github.com/spf13/cobra"
import "github.com/tliron/commonlog"
import _ "github.com/tliron/commonlog/simple"

func main() {
	var verbosity int
	root := &cobra.Command{
		Use: "closecap",
		Short: "Caption database tooling",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			commonlog.Configure(verbosity, nil)
		},
	}
	root.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "log verbosity (repeat for more)")
	root.AddCommand(compileCommand(), dumpCommand(), findCommand(), playCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
