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
	"fmt"
	"os"

	"github.com/tidwall/gjson"
)

// Manifest holds the package.json fields the scripts rely on
type Manifest struct {
	Name     string
	Homepage string
	// Proxy is the development API proxy target
	Proxy string
}

func ReadManifest(path string) (Manifest, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("unable to read the package manifest %q: %w", path, err)
	}
	return ParseManifest(content)
}

func ParseManifest(content []byte) (Manifest, error) {
	if !gjson.ValidBytes(content) {
		return Manifest{}, fmt.Errorf("invalid package manifest, expecting a json object")
	}

	fields := gjson.GetManyBytes(content, "name", "homepage", "proxy")

	proxy := fields[2]
	if proxy.Exists() && proxy.Type != gjson.String {
		return Manifest{}, fmt.Errorf(
			"when specified, \"proxy\" in package.json must be a string, instead it was %s",
			proxy.Type,
		)
	}

	return Manifest{
		Name:     fields[0].String(),
		Homepage: fields[1].String(),
		Proxy:    proxy.String(),
	}, nil
}
