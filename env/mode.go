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
	"fmt"
	"strings"
)

// Mode is the runtime mode, it selects the build configuration and the environment files
type Mode string

const (
	Development Mode = "development"
	Production  Mode = "production"
	Test        Mode = "test"
)

var expectedModes = []Mode{Development, Production, Test}

func ParseMode(value string) (Mode, error) {
	for _, mode := range expectedModes {
		if string(mode) == strings.TrimSpace(value) {
			return mode, nil
		}
	}
	return "", fmt.Errorf("invalid %s %q, expecting one of %v", ModeKey, value, expectedModes)
}

func (m Mode) String() string {
	return string(m)
}
