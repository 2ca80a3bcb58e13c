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
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/openlyinc/pointy"

	"github.com/cogment/app-scripts/env"
	"github.com/cogment/app-scripts/lint"
	"github.com/cogment/app-scripts/paths"
)

const emptyModuleNamespace = "empty-module"

// emptyModulesPlugin replaces the node built-ins some libraries import with
// empty modules. It also drops the locales bundled by moment.
func emptyModulesPlugin() api.Plugin {
	return api.Plugin{
		Name: "empty-modules",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: `^(dgram|fs|net|tls|child_process)$`},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					return api.OnResolveResult{Path: args.Path, Namespace: emptyModuleNamespace}, nil
				})
			build.OnResolve(api.OnResolveOptions{Filter: `^\./locale$`},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					if !isMomentDir(args.ResolveDir) {
						return api.OnResolveResult{}, nil
					}
					return api.OnResolveResult{Path: args.Path, Namespace: emptyModuleNamespace}, nil
				})
			build.OnLoad(api.OnLoadOptions{Filter: `.*`, Namespace: emptyModuleNamespace},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					return api.OnLoadResult{Contents: pointy.String("module.exports = {};"), Loader: api.LoaderJS}, nil
				})
		},
	}
}

func isMomentDir(dir string) bool {
	return filepath.Base(dir) == "moment"
}

// checkModuleScope verifies that a relative import made from a source file
// doesn't reach outside of the source directory.
//
// It returns an error message when it does.
func checkModuleScope(srcDir string, allowedFiles []string, importer string, resolveDir string, request string) (string, bool) {
	if len(importer) == 0 || !isWithin(srcDir, importer) {
		return "", true
	}
	if strings.Contains(importer, string(filepath.Separator)+"node_modules"+string(filepath.Separator)) {
		return "", true
	}

	target := filepath.Clean(filepath.Join(resolveDir, request))
	if isWithin(srcDir, target) {
		return "", true
	}
	for _, allowed := range allowedFiles {
		if target == allowed {
			return "", true
		}
	}

	relSrc := filepath.Base(srcDir)
	return fmt.Sprintf(
		"You attempted to import %s which falls outside of the project %s/ directory. "+
			"Relative imports outside of %s/ are not supported.\n"+
			"You can either move it inside %s/, or add a symlink to it from project's node_modules/.",
		request, relSrc, relSrc, relSrc,
	), false
}

func isWithin(dir string, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// moduleScopePlugin rejects relative imports from the source directory to files outside of it.
func moduleScopePlugin(srcDir string, allowedFiles []string) api.Plugin {
	return api.Plugin{
		Name: "module-scope",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: `^\.\.?(/|$)`, Namespace: "file"},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					message, ok := checkModuleScope(srcDir, allowedFiles, args.Importer, args.ResolveDir, args.Path)
					if ok {
						return api.OnResolveResult{}, nil
					}
					return api.OnResolveResult{Errors: []api.Message{{Text: message}}}, nil
				})
		},
	}
}

// lintPlugin runs eslint on the sources once each build is done, when the
// project has it installed.
func lintPlugin(p paths.Paths, environment *env.Environment, errorsAsWarnings bool) api.Plugin {
	return api.Plugin{
		Name: "eslint",
		Setup: func(build api.PluginBuild) {
			linter := lint.Find(p.AppDir, p.AppNodeModules, p.AppSrc, environment.Environ())
			if linter == nil {
				return
			}
			build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
				report, err := linter.Run(context.Background())
				if err != nil {
					log.WithField("error", err).Warn("Unable to lint the sources")
					return api.OnEndResult{}, nil
				}
				return lintResult(report, errorsAsWarnings), nil
			})
		},
	}
}

func lintResult(report lint.Report, errorsAsWarnings bool) api.OnEndResult {
	result := api.OnEndResult{}
	for _, finding := range report.Errors {
		if errorsAsWarnings {
			result.Warnings = append(result.Warnings, api.Message{Text: finding})
		} else {
			result.Errors = append(result.Errors, api.Message{Text: finding})
		}
	}
	for _, finding := range report.Warnings {
		result.Warnings = append(result.Warnings, api.Message{Text: finding})
	}
	return result
}
