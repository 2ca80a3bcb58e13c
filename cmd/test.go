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
	"context"
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cogment/app-scripts/cmd/utils"
	"github.com/cogment/app-scripts/env"
	"github.com/cogment/app-scripts/launcher"
	"github.com/cogment/app-scripts/services/testrunner"
)

// testViper represents the configuration of the test command
var testViper = viper.New()

const testRunnerKey = "runner"
const testRunnerEnv = "APP_SCRIPTS_TEST_RUNNER"

// testCmd represents the test command, its arguments are forwarded to the test runner
var testCmd = &cobra.Command{
	Use:   "test [runner arguments]",
	Short: "Run the tests of the application",
	Long: `Run the tests of the application.

The global flags (--log_level, --log_file, --log_format and --cwd) are applied,
every other argument is forwarded to the test runner. Arguments following "--"
are forwarded as is.`,
	DisableFlagParsing: true,
	// The global flags are only known once extracted from the arguments
	PersistentPreRunE: func(cmd *cobra.Command, _args []string) error {
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		args, err := extractFlags(cmd.Root().PersistentFlags(), args)
		if err != nil {
			return err
		}
		if err := configureLog(rootViper); err != nil {
			return err
		}

		p, environment, err := loadProject(env.Test, map[string]string{env.PublicURLKey: ""})
		if err != nil {
			return err
		}

		ctx := utils.ContextWithUserTermination(context.Background())

		err = testrunner.Run(ctx, testrunner.Options{
			AppDir:      p.AppDir,
			Environment: environment,
			Runner:      testViper.GetString(testRunnerKey),
			Args:        args,
		})
		if errors.Is(err, launcher.ErrCancelled) {
			log.Info("interrupted by user")
			return nil
		}
		return err
	},
}

func init() {
	_ = testViper.BindEnv(testRunnerKey, testRunnerEnv)
}
