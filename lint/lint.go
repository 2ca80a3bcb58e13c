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

package lint

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/cogment/app-scripts/launcher"
)

var log = logrus.WithField("component", "lint")

// Report holds the formatted lint findings
type Report struct {
	Errors   []string
	Warnings []string
}

// Linter runs the eslint binary installed in the project
type Linter struct {
	Binary      string
	AppDir      string
	SrcDir      string
	Environment []string
}

// Find returns nil when the project doesn't have eslint installed
func Find(appDir string, nodeModulesDir string, srcDir string, environment []string) *Linter {
	binary := filepath.Join(nodeModulesDir, ".bin", "eslint")
	info, err := os.Stat(binary)
	if err != nil || info.IsDir() {
		log.WithField("binary", binary).Trace("eslint not installed")
		return nil
	}
	return &Linter{
		Binary:      binary,
		AppDir:      appDir,
		SrcDir:      srcDir,
		Environment: environment,
	}
}

func (l *Linter) Run(ctx context.Context) (Report, error) {
	output := &bytes.Buffer{}
	exe := launcher.Executor{
		Ctx:           ctx,
		Folder:        l.AppDir,
		Environment:   l.Environment,
		Output:        output,
		OutputEnabled: true,
		Logger:        log,
	}

	err := exe.Execute("eslint", []string{
		l.Binary,
		"--format", "unix",
		"--ext", ".js,.jsx,.mjs",
		l.SrcDir,
	})

	// eslint exits with 1 when it reports errors
	var exitErr *launcher.ExitError
	if err != nil && !(errors.As(err, &exitErr) && exitErr.Code == 1) {
		return Report{}, fmt.Errorf("unable to run eslint: %w", err)
	}

	return ParseUnixReport(output.String(), l.AppDir), nil
}

// path:line:column: message [Severity/rule]
var unixLineRegex = regexp.MustCompile(`^(.+):(\d+):(\d+): (.*) \[(Error|Warning)(?:/([^\]]*))?\]$`)

// ParseUnixReport reads the output of the eslint "unix" formatter.
//
// Findings are grouped by file, each group being a single message.
func ParseUnixReport(output string, baseDir string) Report {
	type group struct {
		file  string
		lines []string
	}
	errorGroups := []*group{}
	warningGroups := []*group{}
	errorIndex := map[string]*group{}
	warningIndex := map[string]*group{}

	for _, line := range strings.Split(output, "\n") {
		matches := unixLineRegex.FindStringSubmatch(strings.TrimSpace(line))
		if matches == nil {
			continue
		}
		file := matches[1]
		if relFile, err := filepath.Rel(baseDir, file); err == nil && !strings.HasPrefix(relFile, "..") {
			file = relFile
		}
		lineNumber, _ := strconv.Atoi(matches[2])
		columnNumber, _ := strconv.Atoi(matches[3])

		finding := fmt.Sprintf("  Line %d:%d:  %s", lineNumber, columnNumber, strings.TrimSuffix(matches[4], "."))
		if len(matches[6]) > 0 {
			finding += "  " + matches[6]
		}

		groups, index := &warningGroups, warningIndex
		if matches[5] == "Error" {
			groups, index = &errorGroups, errorIndex
		}
		g, ok := index[file]
		if !ok {
			g = &group{file: file}
			index[file] = g
			*groups = append(*groups, g)
		}
		g.lines = append(g.lines, finding)
	}

	format := func(groups []*group) []string {
		result := []string{}
		for _, g := range groups {
			result = append(result, g.file+"\n"+strings.Join(g.lines, "\n"))
		}
		return result
	}

	return Report{
		Errors:   format(errorGroups),
		Warnings: format(warningGroups),
	}
}
