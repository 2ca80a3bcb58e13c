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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "env")

const ModeKey = "NODE_ENV"
const BabelModeKey = "BABEL_ENV"
const PublicURLKey = "PUBLIC_URL"
const NodePathKey = "NODE_PATH"
const CIKey = "CI"

var ErrModeRequired = errors.New("the " + ModeKey + " environment variable is required, but was not specified")

// Environment is an immutable snapshot of the process environment merged with the layered .env files
type Environment struct {
	vars  map[string]string
	mode  Mode
	files []string
}

// Snapshot returns a copy of the current process environment
func Snapshot() map[string]string {
	result := make(map[string]string)
	for _, str := range os.Environ() {
		index := strings.IndexRune(str, '=')
		if index <= 0 {
			// Windows has a few "=C:" style entries
			continue
		}
		result[str[:index]] = str[index+1:]
	}
	return result
}

// Files lists the candidate .env files for a mode, most specific first.
//
// The environment agnostic local file is not used in test mode so that tests
// produce the same results for everyone.
func Files(dotEnv string, mode Mode) []string {
	files := []string{
		fmt.Sprintf("%s.%s.local", dotEnv, mode),
		fmt.Sprintf("%s.%s", dotEnv, mode),
	}
	if mode != Test {
		files = append(files, dotEnv+".local")
	}
	return append(files, dotEnv)
}

// Load layers the .env files of appDir on top of the ambient environment.
//
// A key is never overwritten: variables of the ambient environment take
// precedence over every file, and a file takes precedence over the ones after
// it in the Files order.
func Load(appDir string, ambient map[string]string) (*Environment, error) {
	modeValue := ambient[ModeKey]
	if len(modeValue) == 0 {
		return nil, ErrModeRequired
	}
	mode, err := ParseMode(modeValue)
	if err != nil {
		return nil, err
	}

	result := &Environment{
		vars: make(map[string]string, len(ambient)),
		mode: mode,
	}
	for key, value := range ambient {
		result.vars[key] = value
	}

	for _, file := range Files(filepath.Join(appDir, ".env"), mode) {
		content, err := os.ReadFile(file)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("unable to read %q: %w", file, err)
		}

		parsed, err := parse(content, result.vars)
		if err != nil {
			return nil, fmt.Errorf("unable to parse %q: %w", file, err)
		}

		nbSet := 0
		for key, value := range parsed {
			if _, exists := result.vars[key]; exists {
				continue
			}
			result.vars[key] = value
			nbSet++
		}
		result.files = append(result.files, file)

		log.WithFields(logrus.Fields{
			"file": file,
			"set":  nbSet,
		}).Debug("Environment file loaded")
	}

	if nodePath, ok := result.vars[NodePathKey]; ok {
		result.vars[NodePathKey] = strings.Join(normalizeNodePath(appDir, nodePath), string(os.PathListSeparator))
	}

	return result, nil
}

// Placeholders hiding the "$" signs from godotenv, references are expanded by the loader
const dollarPlaceholder = "\uE000"
const escapedDollarPlaceholder = "\uE001"

var dollarHider = strings.NewReplacer(`\$`, escapedDollarPlaceholder, "$", dollarPlaceholder)
var dollarRestorer = strings.NewReplacer(dollarPlaceholder, "$", escapedDollarPlaceholder, "$")
var referenceRegex = regexp.MustCompile(dollarPlaceholder + `\{?([A-Za-z0-9_]+)\}?`)

// parse reads a .env file and expands its "${VAR}" references.
//
// A reference resolves to the effective value of the variable: the known
// variables win over the file's own entries, which are only used for the keys
// nothing else defines. "\$" is a literal dollar sign.
func parse(content []byte, known map[string]string) (map[string]string, error) {
	raw, err := godotenv.UnmarshalBytes([]byte(dollarHider.Replace(string(content))))
	if err != nil {
		return nil, err
	}

	e := expander{
		known:     known,
		raw:       raw,
		expanded:  make(map[string]string, len(raw)),
		expanding: map[string]bool{},
	}
	result := make(map[string]string, len(raw))
	for key := range raw {
		result[key] = e.entry(key)
	}
	return result, nil
}

type expander struct {
	known     map[string]string
	raw       map[string]string
	expanded  map[string]string
	expanding map[string]bool
}

func (e *expander) reference(name string) string {
	if value, ok := e.known[name]; ok {
		return value
	}
	if _, ok := e.raw[name]; ok {
		return e.entry(name)
	}
	return ""
}

func (e *expander) entry(key string) string {
	if value, ok := e.expanded[key]; ok {
		return value
	}
	if e.expanding[key] {
		log.WithField("key", key).Debug("Circular reference expanded as an empty string")
		return ""
	}

	e.expanding[key] = true
	value := referenceRegex.ReplaceAllStringFunc(e.raw[key], func(match string) string {
		return e.reference(referenceRegex.FindStringSubmatch(match)[1])
	})
	delete(e.expanding, key)

	value = dollarRestorer.Replace(value)
	e.expanded[key] = value
	return value
}

// Resolve relative node paths against the application directory, absolute ones are dropped
func normalizeNodePath(appDir string, nodePath string) []string {
	result := []string{}
	for _, folder := range filepath.SplitList(nodePath) {
		if len(folder) == 0 || filepath.IsAbs(folder) {
			continue
		}
		result = append(result, filepath.Join(appDir, folder))
	}
	return result
}

func (e *Environment) Mode() Mode {
	return e.mode
}

// Files returns the .env files that were parsed, in load order
func (e *Environment) Files() []string {
	return append([]string{}, e.files...)
}

func (e *Environment) Lookup(key string) (string, bool) {
	value, ok := e.vars[key]
	return value, ok
}

func (e *Environment) Get(key string) string {
	return e.vars[key]
}

// Map returns a copy of the variables
func (e *Environment) Map() map[string]string {
	result := make(map[string]string, len(e.vars))
	for key, value := range e.vars {
		result[key] = value
	}
	return result
}

// ConfigMap exposes the variables to a viper configuration layer
func (e *Environment) ConfigMap() map[string]interface{} {
	result := make(map[string]interface{}, len(e.vars))
	for key, value := range e.vars {
		result[key] = value
	}
	return result
}

// Environ returns the variables in the "key=value" form expected by child processes, sorted by key
func (e *Environment) Environ() []string {
	keys := make([]string, 0, len(e.vars))
	for key := range e.vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	result := make([]string, 0, len(keys))
	for _, key := range keys {
		result = append(result, key+"="+e.vars[key])
	}
	return result
}

func (e *Environment) NodePaths() []string {
	return filepath.SplitList(e.vars[NodePathKey])
}

// IsCI is true when the CI variable is set to anything but "false"
func (e *Environment) IsCI() bool {
	value := e.vars[CIKey]
	return len(value) > 0 && strings.ToLower(value) != "false"
}
