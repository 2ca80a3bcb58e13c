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

package cmd

import (
	"github.com/mitchellh/go-homedir"
	"github.com/sirupsen/logrus"

	"github.com/cogment/app-scripts/env"
	"github.com/cogment/app-scripts/paths"
)

// forceMode returns a copy of the ambient environment with the mode variables,
// and the given overrides, set.
func forceMode(ambient map[string]string, mode env.Mode, overrides map[string]string) map[string]string {
	result := make(map[string]string, len(ambient)+len(overrides)+2)
	for key, value := range ambient {
		result[key] = value
	}
	result[env.BabelModeKey] = mode.String()
	result[env.ModeKey] = mode.String()
	for key, value := range overrides {
		result[key] = value
	}
	return result
}

func appDir() (string, error) {
	dir, err := homedir.Expand(rootViper.GetString(cwdKey))
	if err != nil {
		return "", err
	}
	return paths.CanonicalDir(dir)
}

// loadProject loads the environment of the application for a mode, then resolves its paths
func loadProject(mode env.Mode, overrides map[string]string) (paths.Paths, *env.Environment, error) {
	dir, err := appDir()
	if err != nil {
		return paths.Paths{}, nil, err
	}

	environment, err := env.Load(dir, forceMode(env.Snapshot(), mode, overrides))
	if err != nil {
		return paths.Paths{}, nil, err
	}

	p, err := paths.Resolve(dir, environment.Get(env.PublicURLKey))
	if err != nil {
		return paths.Paths{}, nil, err
	}

	log.WithFields(logrus.Fields{
		"app_dir":     p.AppDir,
		"mode":        mode,
		"env_files":   environment.Files(),
		"served_path": p.ServedPath,
	}).Debug("Project loaded")

	return p, environment, nil
}
