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

package devserver

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/fatih/color"
	"github.com/ryanuber/columnize"
	"github.com/sirupsen/logrus"

	"github.com/cogment/app-scripts/bundler"
	"github.com/cogment/app-scripts/launcher"
)

func (s *Server) clearConsole() {
	if !s.options.Interactive {
		return
	}
	if runtime.GOOS == "windows" {
		fmt.Fprint(s.options.Out, "\x1b[2J\x1b[0f")
		return
	}
	fmt.Fprint(s.options.Out, "\x1b[2J\x1b[3J\x1b[H")
}

func (s *Server) printStarting() {
	s.clearConsole()
	color.New(color.FgCyan).Fprint(s.options.Out, "Starting the development server...\n\n")
}

func (s *Server) printCompiling() {
	if s.firstCompile.IsSet() {
		s.clearConsole()
		fmt.Fprintln(s.options.Out, "Compiling...")
	}
}

func (s *Server) printCompilation(result bundler.Result) {
	out := s.options.Out
	s.clearConsole()

	if result.Failed() {
		// Only the first error is relevant, the others are usually caused by it
		color.New(color.FgRed).Fprint(out, "Failed to compile.\n\n")
		fmt.Fprintln(out, result.Errors[0])
		return
	}

	if len(result.Warnings) > 0 {
		color.New(color.FgYellow).Fprint(out, "Compiled with warnings.\n\n")
		fmt.Fprintln(out, strings.Join(result.Warnings, "\n\n"))
		fmt.Fprintln(out, "\nSearch for the "+color.New(color.Underline, color.FgYellow).Sprint("keywords")+
			" to learn more about each warning.")
		fmt.Fprint(out, "To ignore, add "+color.CyanString("// eslint-disable-next-line")+
			" to the line before.\n\n")
		return
	}

	color.New(color.FgGreen).Fprint(out, "Compiled successfully!\n\n")
	s.printInstructions()
}

func (s *Server) printInstructions() {
	out := s.options.Out
	fmt.Fprintf(out, "You can now view %s in the browser.\n\n", color.New(color.Bold).Sprint(s.appName))

	if len(s.urls.LanURLForTerminal) > 0 {
		config := columnize.DefaultConfig()
		config.Prefix = "  "
		fmt.Fprintf(out, "%s\n\n", columnize.Format([]string{
			color.New(color.Bold).Sprint("Local:") + "|" + s.urls.LocalURLForTerminal,
			color.New(color.Bold).Sprint("On Your Network:") + "|" + s.urls.LanURLForTerminal,
		}, config))
	} else {
		fmt.Fprintf(out, "  %s\n\n", s.urls.LocalURLForTerminal)
	}

	build := "npm run build"
	if s.options.UseYarn {
		build = "yarn build"
	}
	fmt.Fprintln(out, "Note that the development build is not optimized.")
	fmt.Fprintf(out, "To create a production build, use %s.\n\n", color.CyanString(build))
}

// browserCommand returns the command line opening url
func browserCommand(browser string, url string) []string {
	if len(browser) > 0 {
		return []string{browser, url}
	}
	switch runtime.GOOS {
	case "darwin":
		return []string{"open", url}
	case "windows":
		return []string{"cmd", "/c", "start", url}
	}
	return []string{"xdg-open", url}
}

func (s *Server) openBrowser(ctx context.Context) {
	url := s.urls.LocalURLForBrowser
	exe := launcher.Executor{
		Ctx:         ctx,
		Environment: s.options.Environment.Environ(),
	}
	if err := exe.Execute("browser", browserCommand(s.options.Browser, url)); err != nil && !errors.Is(err, launcher.ErrCancelled) {
		log.WithFields(logrus.Fields{
			"url":   url,
			"error": err,
		}).Debug("Unable to open the browser")
	}
}
