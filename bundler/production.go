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
	"github.com/evanw/esbuild/pkg/api"

	"github.com/cogment/app-scripts/env"
	"github.com/cogment/app-scripts/paths"
)

const generateSourceMapKey = "GENERATE_SOURCEMAP"

// Production produces a minified bundle with content hashed file names
func Production(p paths.Paths, environment *env.Environment) (Config, error) {
	publicPath := p.ServedPath
	publicURL := paths.EnsureSlash(publicPath, false)
	client := environment.Client(publicURL)

	if client.Stringified[env.ModeKey] != `"production"` {
		return Config{}, ErrNotProduction
	}

	options := baseOptions(p, environment, client)
	options.PublicPath = publicPath

	// Relative urls are resolved from the page by scripts but from the
	// stylesheet itself in css, two levels below the build directory
	stylesPublicPath := publicPath
	if publicPath == "./" {
		stylesPublicPath = "../../"
	}

	options.EntryNames = "static/js/[name].[hash]"
	options.ChunkNames = "static/js/[name].[hash].chunk"
	options.MinifyWhitespace = true
	options.MinifyIdentifiers = true
	options.MinifySyntax = true
	options.Charset = api.CharsetASCII
	options.LegalComments = api.LegalCommentsNone
	options.Target = api.ES2015
	options.Metafile = true

	if environment.Get(generateSourceMapKey) != "false" {
		options.Sourcemap = api.SourceMapLinked
	} else {
		options.Sourcemap = api.SourceMapNone
	}

	options.Plugins = append(options.Plugins, lintPlugin(p, environment, false))

	return Config{
		Options:    options,
		PublicPath: publicPath,
		PublicURL:  publicURL,
		Client:     client,
		StylesDir:  "static/css",

		StylesPublicPath: stylesPublicPath,
	}, nil
}
