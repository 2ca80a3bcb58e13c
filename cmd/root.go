// Copyright 2023 AI Redefined Inc. <dev+cogment@ai-r.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cogment/app-scripts/launcher"
)

// rootViper represents the configuration shared by every command
var rootViper = viper.New()

const logLevelKey = "log_level"
const logLevelEnv = "APP_SCRIPTS_LOG_LEVEL"
const logFileKey = "log_file"
const logFileEnv = "APP_SCRIPTS_LOG_FILE"
const logFormatKey = "log_format"
const logFormatEnv = "APP_SCRIPTS_LOG_FORMAT"
const cwdKey = "cwd"
const cwdEnv = "APP_SCRIPTS_CWD"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "app-scripts",
	Short:         "Build, serve and test a single page application",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, _args []string) error {
		return configureLog(rootViper)
	},
}

// exitCode maps the error of a command to the process exit code
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *launcher.ExitError
	if errors.As(err, &exitErr) && exitErr.Code > 0 {
		return exitErr.Code
	}
	return 1
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}

	var exitErr *launcher.ExitError
	if !errors.As(err, &exitErr) {
		color.New(color.FgRed).Fprintln(os.Stderr, err.Error())
	}
	os.Exit(exitCode(err))
}

func init() {
	rootViper.SetDefault(logLevelKey, logrus.InfoLevel.String())
	_ = rootViper.BindEnv(logLevelKey, logLevelEnv)
	rootCmd.PersistentFlags().String(
		logLevelKey,
		rootViper.GetString(logLevelKey),
		fmt.Sprintf("Minimum logging level as one of %v", expectedLogLevels),
	)

	_ = rootViper.BindEnv(logFileKey, logFileEnv)
	rootCmd.PersistentFlags().String(
		logFileKey,
		rootViper.GetString(logFileKey),
		"Log file output",
	)

	_ = rootViper.BindEnv(logFormatKey, logFormatEnv)
	rootCmd.PersistentFlags().String(
		logFormatKey,
		rootViper.GetString(logFormatKey),
		fmt.Sprintf(
			"Log format as one of %v, default is %q, when a log file is specified it is %q",
			expectedLogFormats, text, json,
		),
	)

	rootViper.SetDefault(cwdKey, ".")
	_ = rootViper.BindEnv(cwdKey, cwdEnv)
	rootCmd.PersistentFlags().String(
		cwdKey,
		rootViper.GetString(cwdKey),
		"Directory of the application",
	)

	_ = bindFlags(rootViper, rootCmd.PersistentFlags())

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(versionCmd)
}
