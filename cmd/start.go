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
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cogment/app-scripts/cmd/utils"
	"github.com/cogment/app-scripts/env"
	"github.com/cogment/app-scripts/services/build"
	"github.com/cogment/app-scripts/services/devserver"
)

// startViper represents the configuration of the start command
var startViper = viper.New()

const startHostKey = "host"
const startHostEnv = "HOST"
const startPortKey = "port"
const startPortEnv = "PORT"
const startHTTPSKey = "https"
const startHTTPSEnv = "HTTPS"
const startCertFileKey = "ssl_crt_file"
const startCertFileEnv = "SSL_CRT_FILE"
const startKeyFileKey = "ssl_key_file"
const startKeyFileEnv = "SSL_KEY_FILE"
const startBrowserKey = "browser"
const startBrowserEnv = "BROWSER"

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the development server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _args []string) error {
		p, environment, err := loadProject(env.Development, nil)
		if err != nil {
			return err
		}

		// Variables defined in the env files are used when neither a flag nor the process environment set them
		if err := startViper.MergeConfigMap(environment.ConfigMap()); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		interactive := utils.IsInteractive()

		if err := build.CheckRequiredFiles(afero.NewOsFs(), p.AppHTML, p.AppIndexJs); err != nil {
			return err
		}

		host := startViper.GetString(startHostKey)
		if host != devserver.DefaultOptions.Host {
			fmt.Fprintf(
				out,
				"%s %s\nIf this was unintentional, check that you haven't mistakenly set it in your shell.\n\n",
				color.New(color.FgYellow, color.Bold).Sprint("Attempting to bind to HOST environment variable:"),
				color.New(color.FgYellow, color.Bold).Sprint(host),
			)
		}

		port, err := devserver.ChoosePort(host, startViper.GetUint(startPortKey), interactive, os.Stdin, out)
		if err != nil {
			return err
		}
		if port == 0 {
			// No port was found or the user declined the alternative
			return nil
		}

		_, useYarnErr := os.Stat(p.YarnLockFile)

		options := devserver.Options{
			Paths:       p,
			Environment: environment,
			Host:        host,
			Port:        port,
			HTTPS:       startViper.GetBool(startHTTPSKey),
			CertFile:    startViper.GetString(startCertFileKey),
			KeyFile:     startViper.GetString(startKeyFileKey),
			Browser:     startViper.GetString(startBrowserKey),
			Interactive: interactive,
			UseYarn:     useYarnErr == nil,
			Out:         out,
		}

		ctx := utils.ContextWithUserTermination(context.Background())

		return devserver.Run(ctx, options)
	},
}

func init() {
	startViper.SetDefault(startHostKey, devserver.DefaultOptions.Host)
	_ = startViper.BindEnv(startHostKey, startHostEnv)
	startCmd.Flags().String(
		startHostKey,
		startViper.GetString(startHostKey),
		"The host the development server binds to",
	)

	startViper.SetDefault(startPortKey, devserver.DefaultOptions.Port)
	_ = startViper.BindEnv(startPortKey, startPortEnv)
	startCmd.Flags().Uint(
		startPortKey,
		startViper.GetUint(startPortKey),
		"The port to listen on, the next available one is proposed when it is busy",
	)

	startViper.SetDefault(startHTTPSKey, false)
	_ = startViper.BindEnv(startHTTPSKey, startHTTPSEnv)
	startCmd.Flags().Bool(
		startHTTPSKey,
		startViper.GetBool(startHTTPSKey),
		"Serve the application over https",
	)

	_ = startViper.BindEnv(startCertFileKey, startCertFileEnv)
	startCmd.Flags().String(
		startCertFileKey,
		startViper.GetString(startCertFileKey),
		"Certificate file used with https, a self-signed certificate is generated when omitted",
	)

	_ = startViper.BindEnv(startKeyFileKey, startKeyFileEnv)
	startCmd.Flags().String(
		startKeyFileKey,
		startViper.GetString(startKeyFileKey),
		"Private key file matching the certificate",
	)

	_ = startViper.BindEnv(startBrowserKey, startBrowserEnv)
	startCmd.Flags().String(
		startBrowserKey,
		startViper.GetString(startBrowserKey),
		"Program opening the application once compiled, \"none\" disables it",
	)

	_ = bindFlags(startViper, startCmd.Flags())
}
