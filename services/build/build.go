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

package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/cogment/app-scripts/bundler"
	"github.com/cogment/app-scripts/env"
	"github.com/cogment/app-scripts/indexhtml"
	"github.com/cogment/app-scripts/paths"
)

var log = logrus.WithField("component", "build")

var (
	ErrMissingRequiredFiles = errors.New("could not find a required file")
	ErrWarningsAsErrors     = errors.New("warnings treated as errors")
)

// CompileError holds the first error reported by the bundler
type CompileError struct {
	Message string
}

func (e *CompileError) Error() string {
	return "Failed to compile.\n\n" + e.Message
}

func (e *CompileError) Unwrap() error {
	return bundler.ErrCompile
}

type WarningsAsErrorsError struct {
	Warnings []string
}

func (e *WarningsAsErrorsError) Error() string {
	return "\nTreating warnings as errors because process.env.CI = true.\n" +
		"Most CI servers set it automatically.\n\n" +
		"Failed to compile.\n\n" +
		strings.Join(e.Warnings, "\n\n")
}

func (e *WarningsAsErrorsError) Unwrap() error {
	return ErrWarningsAsErrors
}

type CompileFunc func(config bundler.Config) bundler.Result

type Options struct {
	Paths       paths.Paths
	Environment *env.Environment
	// Fs is the file system the build is read from and written to, defaults to the OS file system
	Fs afero.Fs
	// Compile defaults to bundler.Compile
	Compile CompileFunc
	// Out receives the build report, defaults to stdout
	Out io.Writer
}

func (options *Options) setDefaults() {
	if options.Fs == nil {
		options.Fs = afero.NewOsFs()
	}
	if options.Compile == nil {
		options.Compile = bundler.Compile
	}
	if options.Out == nil {
		options.Out = os.Stdout
	}
}

// Run produces the production build of the application
func Run(ctx context.Context, options Options) error {
	options.setDefaults()
	p := options.Paths
	fs := options.Fs
	out := options.Out

	if err := CheckRequiredFiles(fs, p.AppHTML, p.AppIndexJs); err != nil {
		return err
	}

	config, err := bundler.Production(p, options.Environment)
	if err != nil {
		return err
	}

	previousSizes, err := MeasureFileSizes(fs, p.AppBuild)
	if err != nil {
		return err
	}

	log.WithField("build_dir", p.AppBuild).Debug("Emptying the build directory")
	if err := emptyDir(fs, p.AppBuild); err != nil {
		return err
	}
	log.WithField("public_dir", p.AppPublic).Debug("Copying the public directory")
	if err := copyDir(fs, p.AppPublic, p.AppBuild, func(src string) bool { return src == p.AppHTML }); err != nil {
		return err
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}

	fmt.Fprintln(out, "Creating an optimized production build...")
	result := options.Compile(config)

	if len(result.Errors) > 0 {
		// Only the first error is relevant, the others are usually caused by it
		return &CompileError{Message: result.Errors[0]}
	}
	if options.Environment.IsCI() && len(result.Warnings) > 0 {
		return &WarningsAsErrorsError{Warnings: result.Warnings}
	}

	assets, err := writeOutputs(fs, p.AppBuild, config.PublicPath, result.Outputs)
	if err != nil {
		return err
	}

	if err := writeIndexHTML(fs, p, config, assets); err != nil {
		return err
	}

	if err := writeAssetManifest(fs, p.AppBuild, config.PublicPath, assets); err != nil {
		return err
	}

	if err := writeServiceWorker(fs, p.AppBuild, config); err != nil {
		return err
	}

	if len(result.Warnings) > 0 {
		color.New(color.FgYellow).Fprint(out, "Compiled with warnings.\n\n")
		fmt.Fprintln(out, strings.Join(result.Warnings, "\n\n"))
		fmt.Fprintln(out, "\nSearch for the "+color.New(color.Underline, color.FgYellow).Sprint("keywords")+
			" to learn more about each warning.")
		fmt.Fprint(out, "To ignore, add "+color.CyanString("// eslint-disable-next-line")+
			" to the line before.\n\n")
	} else {
		color.New(color.FgGreen).Fprint(out, "Compiled successfully.\n\n")
	}

	sizes, err := measureAssets(fs, p.AppBuild, assets)
	if err != nil {
		return err
	}
	fmt.Fprint(out, "File sizes after gzip:\n\n")
	PrintFileSizes(out, sizes, previousSizes)
	fmt.Fprintln(out)

	_, yarnErr := fs.Stat(p.YarnLockFile)
	PrintHostingInstructions(out, HostingInfo{
		Homepage:   homepage(fs, p.AppPackageJSON),
		PublicURL:  config.PublicURL,
		PublicPath: config.PublicPath,
		BuildDir:   relativeDir(p.AppDir, p.AppBuild),
		UseYarn:    yarnErr == nil,
	})

	return nil
}

func homepage(fs afero.Fs, manifestPath string) string {
	content, err := afero.ReadFile(fs, manifestPath)
	if err != nil {
		return ""
	}
	manifest, err := paths.ParseManifest(content)
	if err != nil {
		return ""
	}
	return manifest.Homepage
}

func relativeDir(base string, dir string) string {
	rel, err := filepath.Rel(base, dir)
	if err != nil {
		return dir
	}
	return filepath.ToSlash(rel)
}

// Asset is a file generated by the bundler
type Asset struct {
	// Name is the build relative path, slash separated
	Name string
	URL  string
}

func assetURL(publicPath string, name string) string {
	return publicPath + name
}

func writeOutputs(fs afero.Fs, buildDir string, publicPath string, outputs []bundler.OutputFile) ([]Asset, error) {
	assets := []Asset{}
	for _, output := range outputs {
		rel, err := filepath.Rel(buildDir, output.Path)
		if err != nil || strings.HasPrefix(rel, "..") {
			return nil, fmt.Errorf("generated file %q is outside of the build directory", output.Path)
		}
		if err := fs.MkdirAll(filepath.Dir(output.Path), 0o755); err != nil {
			return nil, err
		}
		if err := afero.WriteFile(fs, output.Path, output.Contents, 0o644); err != nil {
			return nil, fmt.Errorf("unable to write %q: %w", output.Path, err)
		}
		name := filepath.ToSlash(rel)
		assets = append(assets, Asset{Name: name, URL: assetURL(publicPath, name)})
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].Name < assets[j].Name })
	return assets, nil
}

func writeIndexHTML(fs afero.Fs, p paths.Paths, config bundler.Config, assets []Asset) error {
	template, err := afero.ReadFile(fs, p.AppHTML)
	if err != nil {
		return err
	}

	styles, scripts := []string{}, []string{}
	for _, asset := range assets {
		switch path.Ext(asset.Name) {
		case ".css":
			styles = append(styles, asset.URL)
		case ".js":
			if !strings.HasSuffix(asset.Name, ".chunk.js") {
				scripts = append(scripts, asset.URL)
			}
		}
	}

	content, err := indexhtml.Generate(template, indexhtml.Options{
		Variables: config.Client.Raw,
		Styles:    styles,
		Scripts:   scripts,
		Minify:    true,
	})
	if err != nil {
		return err
	}

	return afero.WriteFile(fs, filepath.Join(p.AppBuild, "index.html"), content, 0o644)
}
