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

// ReloadPath is the server-sent events endpoint of the live reload client
const ReloadPath = "/__reload"

// ReloadEvent is the event name sent when a rebuild completed
const ReloadEvent = "reload"

const reloadClient = `(function () {
  if (typeof window === "undefined" || typeof EventSource === "undefined") return;
  var source = new EventSource("` + ReloadPath + `");
  source.addEventListener("` + ReloadEvent + `", function () { window.location.reload(); });
})();`

// Development favors rebuild speed and debuggability: stable file names, no
// minification, inline source maps and a live reload client.
func Development(p paths.Paths, environment *env.Environment) (Config, error) {
	publicPath := "/"
	publicURL := ""
	client := environment.Client(publicURL)

	options := baseOptions(p, environment, client)
	options.PublicPath = publicPath
	options.Sourcemap = api.SourceMapInline
	options.EntryNames = "static/js/bundle"
	options.ChunkNames = "static/js/[name].chunk"
	options.Banner = map[string]string{"js": reloadClient}
	options.Plugins = append(options.Plugins, lintPlugin(p, environment, true))

	return Config{
		Options:    options,
		PublicPath: publicPath,
		PublicURL:  publicURL,
		Client:     client,
	}, nil
}
