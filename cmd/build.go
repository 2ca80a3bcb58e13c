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

	"github.com/spf13/cobra"

	"github.com/cogment/app-scripts/cmd/utils"
	"github.com/cogment/app-scripts/env"
	"github.com/cogment/app-scripts/services/build"
)

// buildCmd represents the build command
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Create an optimized production build of the application",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _args []string) error {
		p, environment, err := loadProject(env.Production, nil)
		if err != nil {
			return err
		}

		ctx := utils.ContextWithUserTermination(context.Background())

		return build.Run(ctx, build.Options{
			Paths:       p,
			Environment: environment,
			Out:         cmd.OutOrStdout(),
		})
	},
}
