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
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cogment/app-scripts/env"
	"github.com/cogment/app-scripts/lint"
	"github.com/cogment/app-scripts/paths"
)

func makeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func loadProject(t *testing.T, dir string, ambient map[string]string) (paths.Paths, *env.Environment) {
	t.Helper()
	environment, err := env.Load(dir, ambient)
	require.NoError(t, err)
	p, err := paths.Resolve(dir, environment.Get(env.PublicURLKey))
	require.NoError(t, err)
	return p, environment
}

func relOutputs(t *testing.T, p paths.Paths, result Result) map[string]string {
	t.Helper()
	outputs := map[string]string{}
	for _, output := range result.Outputs {
		rel, err := filepath.Rel(p.AppBuild, output.Path)
		require.NoError(t, err)
		outputs[filepath.ToSlash(rel)] = string(output.Contents)
	}
	return outputs
}

func TestAssembleTestMode(t *testing.T) {
	t.Parallel()
	dir := makeProject(t, map[string]string{"package.json": `{"name":"app"}`})
	p, environment := loadProject(t, dir, map[string]string{"NODE_ENV": "test"})

	_, err := Assemble(env.Test, p, environment)
	assert.Error(t, err)
}

func TestDevelopment(t *testing.T) {
	t.Parallel()
	dir := makeProject(t, map[string]string{"package.json": `{"name":"app","homepage":"https://example.com/app"}`})
	p, environment := loadProject(t, dir, map[string]string{"NODE_ENV": "development", "REACT_APP_NAME": "demo"})

	config, err := Assemble(env.Development, p, environment)
	require.NoError(t, err)

	assert.Equal(t, "/", config.PublicPath)
	assert.Equal(t, "", config.PublicURL)
	assert.Equal(t, "/", config.Options.PublicPath)
	assert.Equal(t, api.SourceMapInline, config.Options.Sourcemap)
	assert.Equal(t, "static/js/bundle", config.Options.EntryNames)
	assert.Equal(t, "static/js/[name].chunk", config.Options.ChunkNames)
	assert.False(t, config.Options.MinifyWhitespace)
	assert.Contains(t, config.Options.Banner["js"], ReloadPath)
	assert.Equal(t, `"development"`, config.Options.Define["process.env.NODE_ENV"])
	assert.Equal(t, `""`, config.Options.Define["process.env.PUBLIC_URL"])
	assert.Equal(t, `"demo"`, config.Options.Define["process.env.REACT_APP_NAME"])
	assert.Equal(t, []string{p.AppIndexJs}, config.Options.EntryPoints)
	assert.Equal(t, p.AppBuild, config.Options.Outdir)
	assert.Empty(t, config.StylesDir)
}

func TestProduction(t *testing.T) {
	t.Parallel()
	dir := makeProject(t, map[string]string{"package.json": `{"name":"app","homepage":"https://example.com/app"}`})
	p, environment := loadProject(t, dir, map[string]string{"NODE_ENV": "production"})

	config, err := Assemble(env.Production, p, environment)
	require.NoError(t, err)

	assert.Equal(t, "/app/", config.PublicPath)
	assert.Equal(t, "/app", config.PublicURL)
	assert.Equal(t, "/app/", config.Options.PublicPath)
	assert.Equal(t, `"/app"`, config.Options.Define["process.env.PUBLIC_URL"])
	assert.Equal(t, api.SourceMapLinked, config.Options.Sourcemap)
	assert.True(t, config.Options.MinifyWhitespace)
	assert.True(t, config.Options.MinifyIdentifiers)
	assert.True(t, config.Options.MinifySyntax)
	assert.Equal(t, api.ES2015, config.Options.Target)
	assert.Equal(t, "static/css", config.StylesDir)
	assert.Empty(t, config.Options.Banner)
}

func TestProductionRelativePaths(t *testing.T) {
	t.Parallel()
	dir := makeProject(t, map[string]string{"package.json": `{"name":"app","homepage":"."}`})
	p, environment := loadProject(t, dir, map[string]string{"NODE_ENV": "production"})

	config, err := Production(p, environment)
	require.NoError(t, err)

	assert.Equal(t, "./", config.PublicPath)
	assert.Equal(t, ".", config.PublicURL)
	assert.Equal(t, "./", config.Options.PublicPath)
	assert.Equal(t, "../../", config.StylesPublicPath)
}

func TestProductionWithoutSourceMaps(t *testing.T) {
	t.Parallel()
	dir := makeProject(t, map[string]string{
		"package.json": `{"name":"app"}`,
		".env":         "GENERATE_SOURCEMAP=false\n",
	})
	p, environment := loadProject(t, dir, map[string]string{"NODE_ENV": "production"})

	config, err := Production(p, environment)
	require.NoError(t, err)
	assert.Equal(t, api.SourceMapNone, config.Options.Sourcemap)
}

func TestProductionRequiresProductionMode(t *testing.T) {
	t.Parallel()
	dir := makeProject(t, map[string]string{"package.json": `{"name":"app"}`})
	p, environment := loadProject(t, dir, map[string]string{"NODE_ENV": "development"})

	_, err := Production(p, environment)
	assert.ErrorIs(t, err, ErrNotProduction)
}

func TestCheckModuleScope(t *testing.T) {
	t.Parallel()
	src := filepath.FromSlash("/app/src")
	allowed := []string{filepath.FromSlash("/app/package.json")}

	_, ok := checkModuleScope(src, allowed, filepath.FromSlash("/app/src/index.js"), src, "./App")
	assert.True(t, ok)

	_, ok = checkModuleScope(src, allowed, filepath.FromSlash("/app/src/index.js"), src, "../package.json")
	assert.True(t, ok)

	_, ok = checkModuleScope(src, allowed, filepath.FromSlash("/app/node_modules/lib/index.js"), filepath.FromSlash("/app/node_modules/lib"), "../other")
	assert.True(t, ok)

	message, ok := checkModuleScope(src, allowed, filepath.FromSlash("/app/src/index.js"), src, "../secret.js")
	assert.False(t, ok)
	assert.Contains(t, message, "You attempted to import ../secret.js which falls outside of the project src/ directory.")
}

func TestRelocateStyles(t *testing.T) {
	t.Parallel()
	outDir := filepath.FromSlash("/app/build")
	outputs := RelocateStyles([]OutputFile{
		{Path: filepath.FromSlash("/app/build/static/js/index.ABCD1234.js")},
		{Path: filepath.FromSlash("/app/build/static/js/index.ABCD1234.css")},
		{Path: filepath.FromSlash("/app/build/static/js/index.ABCD1234.css.map")},
	}, outDir, "static/css")

	assert.Equal(t, []OutputFile{
		{Path: filepath.FromSlash("/app/build/static/js/index.ABCD1234.js")},
		{Path: filepath.FromSlash("/app/build/static/css/index.ABCD1234.css")},
		{Path: filepath.FromSlash("/app/build/static/css/index.ABCD1234.css.map")},
	}, outputs)
}

func TestRebaseStyleURLs(t *testing.T) {
	t.Parallel()
	outputs := RebaseStyleURLs([]OutputFile{
		{Path: "/app/build/static/js/index.ABCD1234.js", Contents: []byte(`var a="./static/media/a.png";`)},
		{Path: "/app/build/static/css/index.ABCD1234.css", Contents: []byte(`a{background:url(./static/media/a.png)}b{background:url("./static/media/b.png")}c{background:url(https://example.com/c.png)}`)},
	}, "./", "../../")

	assert.Equal(t, `var a="./static/media/a.png";`, string(outputs[0].Contents))
	assert.Equal(t, `a{background:url(../../static/media/a.png)}b{background:url("../../static/media/b.png")}c{background:url(https://example.com/c.png)}`, string(outputs[1].Contents))
}

func TestFormatMessage(t *testing.T) {
	t.Parallel()
	formatted := formatMessage(api.Message{
		Text: `Could not resolve "./missing"`,
		Location: &api.Location{
			File:     "src/index.js",
			Line:     2,
			Column:   7,
			LineText: `import "./missing";`,
		},
	})
	assert.Equal(t, "./src/index.js 2:8\n"+
		"Module not found: Could not resolve \"./missing\"\n\n"+
		"  2 | import \"./missing\";\n"+
		"             ^", formatted)
}

func TestLintResult(t *testing.T) {
	t.Parallel()
	report := lint.Report{Errors: []string{"e"}, Warnings: []string{"w"}}

	result := lintResult(report, false)
	assert.Len(t, result.Errors, 1)
	assert.Len(t, result.Warnings, 1)

	result = lintResult(report, true)
	assert.Empty(t, result.Errors)
	assert.Len(t, result.Warnings, 2)
}

func TestCompileProduction(t *testing.T) {
	t.Parallel()
	dir := makeProject(t, map[string]string{
		"package.json":  `{"name":"app"}`,
		".env":          "REACT_APP_GREETING=hello\n",
		"src/index.js":  "import fs from 'fs';\nimport './index.css';\nimport logo from './logo.svg';\nimport { greet } from './greet';\nconsole.log(greet(), logo, fs);\n",
		"src/greet.js":  "export function greet() { return process.env.REACT_APP_GREETING; }\n",
		"src/index.css": "body { margin: 0; }\n",
		"src/logo.svg":  "<svg xmlns=\"http://www.w3.org/2000/svg\"></svg>\n",
	})
	p, environment := loadProject(t, dir, map[string]string{"NODE_ENV": "production"})
	config, err := Production(p, environment)
	require.NoError(t, err)

	result := Compile(config)
	require.Empty(t, result.Errors)
	assert.NotEmpty(t, result.Metafile)

	outputs := relOutputs(t, p, result)
	hashed := regexp.MustCompile(`^static/(js|css|media)/(index|logo)\.[A-Z0-9]+\.(js|css|svg)(\.map)?$`)
	kinds := map[string]bool{}
	for name, contents := range outputs {
		assert.Regexp(t, hashed, name)
		kinds[filepath.Ext(strings.TrimSuffix(name, ".map"))+"@"+filepath.Dir(name)] = true
		if strings.HasSuffix(name, ".js") {
			assert.Contains(t, contents, `"hello"`)
			assert.Contains(t, contents, "/static/media/logo.")
		}
	}
	assert.True(t, kinds[".js@static/js"])
	assert.True(t, kinds[".css@static/css"])
	assert.True(t, kinds[".svg@static/media"])
}

func TestCompileRelativePaths(t *testing.T) {
	t.Parallel()
	dir := makeProject(t, map[string]string{
		"package.json":  `{"name":"app","homepage":"."}`,
		"src/index.js":  "import './index.css';\nimport logo from './logo.png';\nconsole.log(logo);\n",
		"src/index.css": "body { background: url(./logo.png); }\n",
		"src/logo.png":  "not really a png",
	})
	p, environment := loadProject(t, dir, map[string]string{"NODE_ENV": "production"})
	config, err := Production(p, environment)
	require.NoError(t, err)

	result := Compile(config)
	require.Empty(t, result.Errors)

	scripts, styles := 0, 0
	for name, contents := range relOutputs(t, p, result) {
		switch {
		case strings.HasSuffix(name, ".js"):
			scripts++
			assert.Contains(t, contents, `"./static/media/logo.`)
			assert.NotContains(t, contents, "../media/")
		case strings.HasSuffix(name, ".css"):
			styles++
			assert.Contains(t, contents, "url(../../static/media/logo.")
		}
	}
	assert.Equal(t, 1, scripts)
	assert.Equal(t, 1, styles)
}

func TestCompileModuleNotFound(t *testing.T) {
	t.Parallel()
	dir := makeProject(t, map[string]string{
		"package.json": `{"name":"app"}`,
		"src/index.js": "import './missing';\n",
	})
	p, environment := loadProject(t, dir, map[string]string{"NODE_ENV": "production"})
	config, err := Production(p, environment)
	require.NoError(t, err)

	result := Compile(config)
	require.Len(t, result.Errors, 1)
	assert.True(t, result.Failed())
	assert.Empty(t, result.Outputs)
	assert.True(t, strings.HasPrefix(result.Errors[0], "./src/index.js 1:8\nModule not found: Could not resolve"))
}

func TestCompileOutsideOfSources(t *testing.T) {
	t.Parallel()
	dir := makeProject(t, map[string]string{
		"package.json": `{"name":"app"}`,
		"secret.js":    "export default 42;\n",
		"src/index.js": "import secret from '../secret';\nconsole.log(secret);\n",
	})
	p, environment := loadProject(t, dir, map[string]string{"NODE_ENV": "development"})
	config, err := Development(p, environment)
	require.NoError(t, err)

	result := Compile(config)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "falls outside of the project src/ directory")
}
