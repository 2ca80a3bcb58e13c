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

package bundler

import (
	"errors"
	"fmt"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/sirupsen/logrus"

	"github.com/cogment/app-scripts/env"
	"github.com/cogment/app-scripts/paths"
)

var log = logrus.WithField("component", "bundler")

var ErrNotProduction = errors.New("production builds must have NODE_ENV=production")

// Config is everything needed to bundle the application in a given mode
type Config struct {
	Options api.BuildOptions
	// PublicPath is the prefix of the generated asset urls
	PublicPath string
	// PublicURL is the value of %PUBLIC_URL% and process.env.PUBLIC_URL
	PublicURL string
	Client    env.ClientEnvironment
	// StylesDir relocates the generated stylesheets, relative to the output dir, when not empty
	StylesDir string
	// StylesPublicPath replaces the public path in the urls of the relocated stylesheets
	StylesPublicPath string
}

// Assembler builds the configuration from the project paths and the loaded environment
type Assembler func(p paths.Paths, environment *env.Environment) (Config, error)

var assemblers = map[env.Mode]Assembler{
	env.Development: Development,
	env.Production:  Production,
}

func Assemble(mode env.Mode, p paths.Paths, environment *env.Environment) (Config, error) {
	assembler, ok := assemblers[mode]
	if !ok {
		return Config{}, fmt.Errorf("no build configuration for the %q mode", mode)
	}
	return assembler(p, environment)
}

var resolveExtensions = []string{".web.js", ".mjs", ".js", ".json", ".web.jsx", ".jsx"}

var loaders = map[string]api.Loader{
	".js":    api.LoaderJSX,
	".jsx":   api.LoaderJSX,
	".mjs":   api.LoaderJSX,
	".json":  api.LoaderJSON,
	".css":   api.LoaderCSS,
	".bmp":   api.LoaderFile,
	".gif":   api.LoaderFile,
	".jpg":   api.LoaderFile,
	".jpeg":  api.LoaderFile,
	".png":   api.LoaderFile,
	".svg":   api.LoaderFile,
	".webp":  api.LoaderFile,
	".ico":   api.LoaderFile,
	".woff":  api.LoaderFile,
	".woff2": api.LoaderFile,
	".ttf":   api.LoaderFile,
	".eot":   api.LoaderFile,
	".otf":   api.LoaderFile,
	".mp4":   api.LoaderFile,
	".webm":  api.LoaderFile,
	".wav":   api.LoaderFile,
	".mp3":   api.LoaderFile,
}

func copyLoaders() map[string]api.Loader {
	result := make(map[string]api.Loader, len(loaders))
	for ext, loader := range loaders {
		result[ext] = loader
	}
	return result
}

func baseOptions(p paths.Paths, environment *env.Environment, client env.ClientEnvironment) api.BuildOptions {
	nodePaths := append([]string{p.AppNodeModules}, environment.NodePaths()...)

	return api.BuildOptions{
		EntryPoints:       []string{p.AppIndexJs},
		Outdir:            p.AppBuild,
		AbsWorkingDir:     p.AppDir,
		Bundle:            true,
		Platform:          api.PlatformBrowser,
		Format:            api.FormatIIFE,
		Define:            client.Define(),
		NodePaths:         nodePaths,
		ResolveExtensions: resolveExtensions,
		Loader:            copyLoaders(),
		AssetNames:        "static/media/[name].[hash]",
		LogLevel:          api.LogLevelSilent,
		Write:             false,
		Plugins: []api.Plugin{
			emptyModulesPlugin(),
			moduleScopePlugin(p.AppSrc, []string{p.AppPackageJSON}),
		},
	}
}
