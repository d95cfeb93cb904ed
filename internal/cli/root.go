// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

// Package cli implements the vuebuild command line tool.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configFlagName  = "config"
	rootFlagName    = "root"
	verboseFlagName = "verbose"
)

const rootLongDescription = `vuebuild bundles a Vue project with esbuild. Single-file components are
compiled by the official @vue/compiler-sfc running in an embedded JavaScript
engine, with scoped styles matched to their component by a scope id.

Settings are read from vuebuild.yaml, VUEBUILD_* environment variables and
flags, in increasing order of precedence.`

func newRootCmd(v *viper.Viper) *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:          "vuebuild",
		Short:        "Bundle Vue single-file components with esbuild",
		Long:         rootLongDescription,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return readConfig(v, configFile)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVarP(&configFile, configFlagName, "c", "", "config file (default ./"+configFileName+")")

	cmd.PersistentFlags().String(rootFlagName, v.GetString(rootKey), "project directory")
	bindFlagToConfig(v, cmd.PersistentFlags().Lookup(rootFlagName), rootKey)

	cmd.PersistentFlags().BoolP(verboseFlagName, "v", v.GetBool(logVerboseKey), "log at debug level")
	bindFlagToConfig(v, cmd.PersistentFlags().Lookup(verboseFlagName), logVerboseKey)

	cmd.AddCommand(
		newBuildCmd(v),
		newConfigCmd(v),
		newInitCmd(v),
		newVersionCmd(),
	)
	return cmd
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(v *viper.Viper, flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(v.BindPFlag(key, flag))
}

// Execute runs the vuebuild command tree and exits non-zero on failure.
func Execute() {
	if err := newRootCmd(newViper()).Execute(); err != nil {
		os.Exit(1)
	}
}
