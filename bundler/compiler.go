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
	"path/filepath"
	"regexp"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/sirupsen/logrus"
)

var ErrCompile = errors.New("failed to compile")

type OutputFile struct {
	Path     string
	Contents []byte
}

// Result is the outcome of a compilation with its diagnostics formatted for display
type Result struct {
	Errors   []string
	Warnings []string
	Outputs  []OutputFile
	Metafile string
}

func (r Result) Failed() bool {
	return len(r.Errors) > 0
}

// Compile bundles the application once
func Compile(config Config) Result {
	log.WithField("entry_points", config.Options.EntryPoints).Debug("Compiling")
	buildResult := api.Build(config.Options)
	result := MakeResult(&buildResult, config)
	log.WithFields(logrus.Fields{
		"errors":   len(result.Errors),
		"warnings": len(result.Warnings),
		"outputs":  len(result.Outputs),
	}).Debug("Compiled")
	return result
}

func MakeResult(buildResult *api.BuildResult, config Config) Result {
	result := Result{
		Errors:   formatMessages(buildResult.Errors),
		Warnings: formatMessages(buildResult.Warnings),
		Metafile: buildResult.Metafile,
	}
	if result.Failed() {
		return result
	}

	for _, outputFile := range buildResult.OutputFiles {
		result.Outputs = append(result.Outputs, OutputFile{
			Path:     outputFile.Path,
			Contents: outputFile.Contents,
		})
	}
	if len(config.StylesDir) > 0 {
		result.Outputs = RelocateStyles(result.Outputs, config.Options.Outdir, config.StylesDir)
		if len(config.StylesPublicPath) > 0 && config.StylesPublicPath != config.Options.PublicPath {
			result.Outputs = RebaseStyleURLs(result.Outputs, config.Options.PublicPath, config.StylesPublicPath)
		}
	}
	return result
}

// RebaseStyleURLs replaces the public path prefix of the urls referenced by the stylesheets
func RebaseStyleURLs(outputs []OutputFile, from string, to string) []OutputFile {
	urlRegex := regexp.MustCompile(`(url\(\s*["']?)` + regexp.QuoteMeta(from))
	rebased := make([]OutputFile, 0, len(outputs))
	for _, output := range outputs {
		if strings.HasSuffix(output.Path, ".css") {
			output.Contents = urlRegex.ReplaceAll(output.Contents, []byte("${1}"+to))
		}
		rebased = append(rebased, output)
	}
	return rebased
}

// RelocateStyles moves the stylesheets and their source maps to a dedicated directory
func RelocateStyles(outputs []OutputFile, outDir string, stylesDir string) []OutputFile {
	relocated := make([]OutputFile, 0, len(outputs))
	for _, output := range outputs {
		if strings.HasSuffix(output.Path, ".css") || strings.HasSuffix(output.Path, ".css.map") {
			output.Path = filepath.Join(outDir, filepath.FromSlash(stylesDir), filepath.Base(output.Path))
		}
		relocated = append(relocated, output)
	}
	return relocated
}

func formatMessages(messages []api.Message) []string {
	formatted := make([]string, 0, len(messages))
	for _, message := range messages {
		formatted = append(formatted, formatMessage(message))
	}
	return formatted
}

func formatMessage(message api.Message) string {
	text := message.Text
	if strings.HasPrefix(text, "Could not resolve") {
		text = "Module not found: " + text
	}

	builder := strings.Builder{}
	if location := message.Location; location != nil {
		file := filepath.ToSlash(location.File)
		if !filepath.IsAbs(location.File) && !strings.HasPrefix(file, ".") {
			file = "./" + file
		}
		fmt.Fprintf(&builder, "%s %d:%d\n", file, location.Line, location.Column+1)
		builder.WriteString(text)
		if len(location.LineText) > 0 {
			fmt.Fprintf(&builder, "\n\n  %d | %s\n", location.Line, location.LineText)
			gutter := len(fmt.Sprintf("  %d | ", location.Line))
			builder.WriteString(strings.Repeat(" ", gutter+location.Column))
			builder.WriteString("^")
		}
	} else {
		builder.WriteString(text)
	}

	for _, note := range message.Notes {
		if len(note.Text) > 0 {
			builder.WriteString("\n")
			builder.WriteString(note.Text)
		}
	}
	return builder.String()
}
