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

package env

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

func TestFiles(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{
		"/app/.env.development.local",
		"/app/.env.development",
		"/app/.env.local",
		"/app/.env",
	}, Files("/app/.env", Development))

	assert.Equal(t, []string{
		"/app/.env.test.local",
		"/app/.env.test",
		"/app/.env",
	}, Files("/app/.env", Test))
}

func TestLoadPrecedence(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		".env.development.local": "APPSCRIPTS_A=1\n",
		".env.development":       "APPSCRIPTS_A=2\nAPPSCRIPTS_B=2\n",
		".env.local":             "APPSCRIPTS_A=3\nAPPSCRIPTS_B=3\nAPPSCRIPTS_C=3\n",
		".env":                   "APPSCRIPTS_A=4\nAPPSCRIPTS_B=4\nAPPSCRIPTS_C=4\nAPPSCRIPTS_D=4\nAPPSCRIPTS_E=4\n",
	})

	environment, err := Load(dir, map[string]string{
		ModeKey:        "development",
		"APPSCRIPTS_D": "ambient",
	})
	require.NoError(t, err)

	assert.Equal(t, Development, environment.Mode())
	assert.Equal(t, "1", environment.Get("APPSCRIPTS_A"))
	assert.Equal(t, "2", environment.Get("APPSCRIPTS_B"))
	assert.Equal(t, "3", environment.Get("APPSCRIPTS_C"))
	assert.Equal(t, "ambient", environment.Get("APPSCRIPTS_D"))
	assert.Equal(t, "4", environment.Get("APPSCRIPTS_E"))
	assert.Len(t, environment.Files(), 4)
}

func TestLoadTestModeIgnoresLocal(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		".env.local": "APPSCRIPTS_X=local\n",
		".env":       "APPSCRIPTS_X=base\n",
	})

	environment, err := Load(dir, map[string]string{ModeKey: "test"})
	require.NoError(t, err)
	assert.Equal(t, "base", environment.Get("APPSCRIPTS_X"))
	assert.Equal(t, []string{filepath.Join(dir, ".env")}, environment.Files())
}

func TestLoadWithoutFiles(t *testing.T) {
	t.Parallel()
	environment, err := Load(t.TempDir(), map[string]string{ModeKey: "production", "APPSCRIPTS_Y": "y"})
	require.NoError(t, err)
	assert.Empty(t, environment.Files())
	assert.Equal(t, map[string]string{ModeKey: "production", "APPSCRIPTS_Y": "y"}, environment.Map())
}

func TestLoadModeRequired(t *testing.T) {
	t.Parallel()
	_, err := Load(t.TempDir(), map[string]string{})
	assert.ErrorIs(t, err, ErrModeRequired)

	_, err = Load(t.TempDir(), map[string]string{ModeKey: "staging"})
	assert.Error(t, err)
}

func TestLoadExpansion(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		".env.production": "REACT_APP_NAME=shop\n",
		".env": strings.Join([]string{
			"APPSCRIPTS_BASE=/root",
			"REACT_APP_URL=https://${APPSCRIPTS_TEST_HOST}${APPSCRIPTS_BASE}/api",
			"REACT_APP_TITLE=${REACT_APP_NAME}-title",
			"REACT_APP_QUOTED=${APPSCRIPTS_TEST_QUOTED}",
		}, "\n"),
	})

	environment, err := Load(dir, map[string]string{
		ModeKey:                  "production",
		"APPSCRIPTS_TEST_HOST":   "example.org",
		"APPSCRIPTS_TEST_QUOTED": `a "b" $c`,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/root/api", environment.Get("REACT_APP_URL"))
	assert.Equal(t, "shop-title", environment.Get("REACT_APP_TITLE"))
	assert.Equal(t, `a "b" $c`, environment.Get("REACT_APP_QUOTED"))
	// Seeded variables are not redefined by the expansion
	assert.Equal(t, "example.org", environment.Get("APPSCRIPTS_TEST_HOST"))
}

func TestLoadExpansionUsesEffectiveValues(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		".env.production": "APPSCRIPTS_HOST=from-mode-file\n",
		".env": strings.Join([]string{
			"APPSCRIPTS_HOST=from-base",
			"APPSCRIPTS_URL=${APPSCRIPTS_HOST}/x",
			"APPSCRIPTS_AMB=ignored",
			"APPSCRIPTS_REF=${APPSCRIPTS_AMB}",
			"APPSCRIPTS_LATER=$APPSCRIPTS_DEFINED_AFTER",
			"APPSCRIPTS_DEFINED_AFTER=after",
			"APPSCRIPTS_PRICE=\\$5",
			"APPSCRIPTS_LOOP=${APPSCRIPTS_LOOP}",
		}, "\n"),
	})

	environment, err := Load(dir, map[string]string{
		ModeKey:          "production",
		"APPSCRIPTS_AMB": "ambient",
	})
	require.NoError(t, err)
	assert.Equal(t, "from-mode-file", environment.Get("APPSCRIPTS_HOST"))
	assert.Equal(t, "from-mode-file/x", environment.Get("APPSCRIPTS_URL"))
	assert.Equal(t, "ambient", environment.Get("APPSCRIPTS_AMB"))
	assert.Equal(t, "ambient", environment.Get("APPSCRIPTS_REF"))
	assert.Equal(t, "after", environment.Get("APPSCRIPTS_LATER"))
	assert.Equal(t, "$5", environment.Get("APPSCRIPTS_PRICE"))
	assert.Equal(t, "", environment.Get("APPSCRIPTS_LOOP"))
}

func TestLoadNodePath(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	separator := string(os.PathListSeparator)
	absolute, err := filepath.Abs(string(filepath.Separator) + "absolute")
	require.NoError(t, err)

	environment, err := Load(dir, map[string]string{
		ModeKey:     "development",
		NodePathKey: strings.Join([]string{"src", "", absolute, "lib/shared"}, separator),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "src"),
		filepath.Join(dir, "lib", "shared"),
	}, environment.NodePaths())
}

func TestIsCI(t *testing.T) {
	t.Parallel()
	var tests = []struct {
		value    string
		expected bool
	}{
		{"", false},
		{"true", true},
		{"1", true},
		{"false", false},
		{"FALSE", false},
	}

	for _, tt := range tests {
		environment := &Environment{vars: map[string]string{CIKey: tt.value}}
		assert.Equal(t, tt.expected, environment.IsCI(), "CI=%q", tt.value)
	}
}

func TestEnviron(t *testing.T) {
	t.Parallel()
	environment := &Environment{vars: map[string]string{"B": "2", "A": "1=1"}}
	assert.Equal(t, []string{"A=1=1", "B=2"}, environment.Environ())
}

func TestClient(t *testing.T) {
	t.Parallel()
	environment := &Environment{vars: map[string]string{
		ModeKey:            "production",
		"REACT_APP_API":    "https://api.example.com",
		"react_app_lower":  "lower",
		"REACT_APP_QUOTED": `say "hi" <b>\n`,
		"NOT_REACT_APP_X":  "hidden",
		"HOME":             "/home/me",
		PublicURLKey:       "/ignored",
	}}

	client := environment.Client("/app")

	assert.Equal(t, map[string]string{
		ModeKey:            "production",
		PublicURLKey:       "/app",
		"REACT_APP_API":    "https://api.example.com",
		"react_app_lower":  "lower",
		"REACT_APP_QUOTED": `say "hi" <b>\n`,
	}, client.Raw)

	assert.Len(t, client.Stringified, len(client.Raw))
	for key, value := range client.Stringified {
		var parsed string
		require.NoError(t, json.Unmarshal([]byte(value), &parsed), key)
		assert.Equal(t, client.Raw[key], parsed, key)
	}
	assert.Equal(t, `"production"`, client.Stringified[ModeKey])
	assert.Equal(t, `"say \"hi\" <b>\\n"`, client.Stringified["REACT_APP_QUOTED"])

	define := client.Define()
	assert.Equal(t, `"/app"`, define["process.env.PUBLIC_URL"])
	assert.Len(t, define, len(client.Raw))
}

func TestClientDefaultMode(t *testing.T) {
	t.Parallel()
	client := (&Environment{vars: map[string]string{}}).Client("")
	assert.Equal(t, map[string]string{ModeKey: "development", PublicURLKey: ""}, client.Raw)
}

func TestParseMode(t *testing.T) {
	t.Parallel()
	mode, err := ParseMode("test")
	assert.NoError(t, err)
	assert.Equal(t, Test, mode)

	_, err = ParseMode("")
	assert.Error(t, err)
}
