// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is the scia version.
var Version = "development"

func init() {
	viper.SetEnvPrefix("SCIA")
	viper.AutomaticEnv()

	rootCmd.PersistentFlags().String("conn-file", "", "Path to warehouse connection config YAML")
	viper.BindPFlag("CONN_FILE", rootCmd.PersistentFlags().Lookup("conn-file"))
}

var rootCmd = &cobra.Command{
	Use:          "scia",
	Short:        "SQL Change Impact Analyzer",
	SilenceUsage: true,
	Version:      Version,
}

// Execute executes the root command.
func Execute() error {
	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(diffCmd())

	return rootCmd.Execute()
}
