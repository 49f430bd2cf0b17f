/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"github.com/scoir/attestor/pkg/config"
)

var cfgFile string

var conf config.Config

var rootCmd = &cobra.Command{
	Use:   "attestor",
	Short: "The attestor verifiable claim agent.",
	Long: `The attestor verifiable claim agent.

Issues, revokes, and verifies claims over a notarized ledger.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.attestor.yaml)")
}

// loadConfig reads the config file and ENV variables if set. Commands that
// can run without external services call it with required=false and fall
// back to built-in defaults.
func loadConfig(required bool) {
	if cfgFile == "" {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		def := strings.Join([]string{home, ".attestor.yaml"}, string(os.PathSeparator))
		if _, err := os.Stat(def); err != nil {
			if required {
				fmt.Println("unable to read config:", def, err)
				os.Exit(1)
			}
			return
		}
		cfgFile = def
	}

	p := &config.ViperConfigProvider{DefaultConfigName: "attestor"}
	conf = p.Load(cfgFile)
}
