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

package testrunner

import (
	"context"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/cogment/app-scripts/env"
	"github.com/cogment/app-scripts/launcher"
)

var log = logrus.WithField("component", "testrunner")

type Options struct {
	AppDir      string
	Environment *env.Environment
	// Runner overrides the test runner command
	Runner string
	Args   []string
}

// Arguments completes the runner arguments, tests are watched unless
// running in CI or computing the coverage.
func Arguments(args []string, ci bool) []string {
	result := append([]string{}, args...)
	if ci {
		return result
	}
	for _, arg := range args {
		if arg == "--coverage" {
			return result
		}
	}
	return append(result, "--watch")
}

// Command returns the command line launching the test runner, favoring the
// one installed in the project.
func Command(appDir string, runner string) []string {
	if len(runner) > 0 {
		return []string{runner}
	}
	local := filepath.Join(appDir, "node_modules", ".bin", "jest")
	if info, err := os.Stat(local); err == nil && !info.IsDir() {
		return []string{local}
	}
	return []string{"npx", "jest"}
}

// Run executes the test runner attached to the terminal.
//
// A failing test run is reported as a *launcher.ExitError.
func Run(ctx context.Context, options Options) error {
	ci := len(options.Environment.Get(env.CIKey)) > 0
	cmdArgs := append(Command(options.AppDir, options.Runner), Arguments(options.Args, ci)...)

	log.WithFields(logrus.Fields{
		"app_dir": options.AppDir,
		"ci":      ci,
	}).Debug("Running the tests")

	exe := launcher.Executor{
		Ctx:         ctx,
		Folder:      options.AppDir,
		Environment: options.Environment.Environ(),
		Interactive: true,
	}
	return exe.Execute("test runner", cmdArgs)
}
