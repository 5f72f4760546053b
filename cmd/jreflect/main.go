package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

var (
	configPath string
	classPath  []string
	verbosity  int
	logFile    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "jreflect",
		Short:        "Generics-aware reflection over compiled Java classes",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "TOML configuration file")
	flags.StringArrayVarP(&classPath, "classpath", "c", nil, "class path entry (directory, .class, .jar or glob); repeatable")
	flags.CountVarP(&verbosity, "verbose", "v", "increase log verbosity")
	flags.StringVar(&logFile, "log-file", "", "write logs to this file instead of stderr")

	rootCmd.AddCommand(newIndexCmd())
	rootCmd.AddCommand(newReflectCmd())
	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newDumpCmd())
	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newPackageCmd())
	rootCmd.AddCommand(newSupersCmd())
	rootCmd.AddCommand(newEvictCmd())
	rootCmd.AddCommand(newResetCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func configureLogging() {
	if logFile != "" {
		commonlog.Configure(verbosity, &logFile)
		return
	}
	commonlog.Configure(verbosity, nil)
}
