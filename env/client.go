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
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
)

// Only the variables with this prefix are exposed to the application code
var clientKeyRegex = regexp.MustCompile(`(?i)^REACT_APP_`)

// ClientEnvironment is the part of the environment injected into the generated code
type ClientEnvironment struct {
	Raw map[string]string
	// Stringified holds the same keys as Raw, the values being JSON string literals
	Stringified map[string]string
}

// Client computes the environment exposed to the application code.
func (e *Environment) Client(publicURL string) ClientEnvironment {
	mode := e.vars[ModeKey]
	if len(mode) == 0 {
		mode = string(Development)
	}

	raw := map[string]string{
		ModeKey:      mode,
		PublicURLKey: publicURL,
	}
	for key, value := range e.vars {
		if clientKeyRegex.MatchString(key) {
			raw[key] = value
		}
	}

	stringified := make(map[string]string, len(raw))
	for key, value := range raw {
		stringified[key] = Stringify(value)
	}

	return ClientEnvironment{
		Raw:         raw,
		Stringified: stringified,
	}
}

// Define returns the substitutions of the "process.env.KEY" expressions
func (c ClientEnvironment) Define() map[string]string {
	result := make(map[string]string, len(c.Stringified))
	for key, value := range c.Stringified {
		result["process.env."+key] = value
	}
	return result
}

// Stringify quotes a value as a JSON string literal
func Stringify(value string) string {
	b := bytes.Buffer{}
	encoder := json.NewEncoder(&b)
	encoder.SetEscapeHTML(false)
	// Encoding a string can't fail
	_ = encoder.Encode(value)
	return strings.TrimSuffix(b.String(), "\n")
}
