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

package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, dir string, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(content), 0o644))
}

func TestResolveHomepage(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeManifest(t, dir, `{"name": "my-app", "homepage": "https://example.com/app"}`)

	paths, err := Resolve(dir, "")
	require.NoError(t, err)

	appDir, err := CanonicalDir(dir)
	require.NoError(t, err)

	assert.Equal(t, appDir, paths.AppDir)
	assert.Equal(t, filepath.Join(appDir, "build"), paths.AppBuild)
	assert.Equal(t, filepath.Join(appDir, "public", "index.html"), paths.AppHTML)
	assert.Equal(t, filepath.Join(appDir, "src", "index.js"), paths.AppIndexJs)
	assert.Equal(t, filepath.Join(appDir, "yarn.lock"), paths.YarnLockFile)
	assert.Equal(t, filepath.Join(appDir, ".env"), paths.DotEnv)
	assert.Equal(t, "https://example.com/app", paths.PublicURL)
	assert.Equal(t, "/app/", paths.ServedPath)
}

func TestResolveOverride(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeManifest(t, dir, `{"homepage": "https://example.com/app"}`)

	paths, err := Resolve(dir, "/custom")
	require.NoError(t, err)
	assert.Equal(t, "/custom", paths.PublicURL)
	assert.Equal(t, "/custom/", paths.ServedPath)
}

func TestResolveOverrideWithoutManifest(t *testing.T) {
	t.Parallel()
	paths, err := Resolve(t.TempDir(), "https://cdn.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/", paths.ServedPath)
}

func TestResolveNoHomepage(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeManifest(t, dir, `{"name": "my-app"}`)

	paths, err := Resolve(dir, "")
	require.NoError(t, err)
	assert.Equal(t, "", paths.PublicURL)
	assert.Equal(t, "/", paths.ServedPath)
}

func TestResolveMissingManifest(t *testing.T) {
	t.Parallel()
	_, err := Resolve(t.TempDir(), "")
	assert.Error(t, err)
}

func TestResolveMissingDirectory(t *testing.T) {
	t.Parallel()
	_, err := Resolve(filepath.Join(t.TempDir(), "nope"), "/")
	assert.Error(t, err)
}

func TestServedPath(t *testing.T) {
	t.Parallel()
	var tests = []struct {
		override string
		homepage string
		expected string
	}{
		{"", "", "/"},
		{"", "https://example.com", "/"},
		{"", "https://example.com/", "/"},
		{"", "https://example.com/app", "/app/"},
		{"", "https://example.com/app/", "/app/"},
		{"", ".", "./"},
		{"/custom", "https://example.com/app", "/custom/"},
		{"/custom/", "", "/custom/"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ServedPath(tt.override, tt.homepage), "override=%q homepage=%q", tt.override, tt.homepage)
	}
}

func TestEnsureSlash(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "/app/", EnsureSlash("/app", true))
	assert.Equal(t, "/app/", EnsureSlash("/app/", true))
	assert.Equal(t, "/app", EnsureSlash("/app/", false))
	assert.Equal(t, "/app", EnsureSlash("/app", false))
	assert.Equal(t, "", EnsureSlash("/", false))
}

func TestParseManifest(t *testing.T) {
	t.Parallel()
	manifest, err := ParseManifest([]byte(`{
		"name": "my-app",
		"homepage": "https://example.com/app",
		"proxy": "http://localhost:4000",
		"dependencies": {"react": "^16.0.0"}
	}`))
	require.NoError(t, err)
	assert.Equal(t, Manifest{
		Name:     "my-app",
		Homepage: "https://example.com/app",
		Proxy:    "http://localhost:4000",
	}, manifest)
}

func TestParseManifestInvalid(t *testing.T) {
	t.Parallel()
	_, err := ParseManifest([]byte(`{"name": `))
	assert.Error(t, err)

	_, err = ParseManifest([]byte(`{"proxy": {"/api": {"target": "http://localhost:4000"}}}`))
	assert.Error(t, err)
}
