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
	"net/url"
	"path/filepath"
	"strings"
)

// Paths is the set of fixed project locations, all absolute
type Paths struct {
	AppDir         string
	DotEnv         string
	AppBuild       string
	AppPublic      string
	AppHTML        string
	AppIndexJs     string
	AppPackageJSON string
	AppSrc         string
	TestsSetup     string
	AppNodeModules string
	YarnLockFile   string

	// PublicURL is the explicit override or the manifest homepage, it can be empty
	PublicURL string
	// ServedPath is the path prefix under which the built assets are hosted, it always ends with "/"
	ServedPath string
}

// CanonicalDir returns the absolute path of dir with every symbolic link evaluated
func CanonicalDir(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("unable to resolve the application directory %q: %w", dir, err)
	}
	realDir, err := filepath.EvalSymlinks(absDir)
	if err != nil {
		return "", fmt.Errorf("unable to resolve the application directory %q: %w", dir, err)
	}
	return realDir, nil
}

// Resolve computes the project paths from the working directory.
//
// A non empty publicURLOverride takes precedence over the "homepage" field of
// the package manifest, which is only read when no override is given.
func Resolve(workingDir string, publicURLOverride string) (Paths, error) {
	appDir, err := CanonicalDir(workingDir)
	if err != nil {
		return Paths{}, err
	}

	resolveApp := func(relativePath string) string {
		return filepath.Join(appDir, filepath.FromSlash(relativePath))
	}

	result := Paths{
		AppDir:         appDir,
		DotEnv:         resolveApp(".env"),
		AppBuild:       resolveApp("build"),
		AppPublic:      resolveApp("public"),
		AppHTML:        resolveApp("public/index.html"),
		AppIndexJs:     resolveApp("src/index.js"),
		AppPackageJSON: resolveApp("package.json"),
		AppSrc:         resolveApp("src"),
		TestsSetup:     resolveApp("src/setupTests.js"),
		AppNodeModules: resolveApp("node_modules"),
		YarnLockFile:   resolveApp("yarn.lock"),
	}

	homepage := ""
	if len(publicURLOverride) == 0 {
		manifest, err := ReadManifest(result.AppPackageJSON)
		if err != nil {
			return Paths{}, err
		}
		homepage = manifest.Homepage
	}

	result.PublicURL = PublicURL(publicURLOverride, homepage)
	result.ServedPath = ServedPath(publicURLOverride, homepage)

	return result, nil
}

func PublicURL(override string, homepage string) string {
	if len(override) > 0 {
		return override
	}
	return homepage
}

func ServedPath(override string, homepage string) string {
	if len(override) > 0 {
		return EnsureSlash(override, true)
	}

	servedURL := "/"
	if len(homepage) > 0 {
		if parsed, err := url.Parse(homepage); err == nil {
			servedURL = parsed.Path
		}
		if len(servedURL) == 0 {
			servedURL = "/"
		}
	}

	return EnsureSlash(servedURL, true)
}

// EnsureSlash adds or removes the trailing slash of a path
func EnsureSlash(path string, needsSlash bool) string {
	hasSlash := strings.HasSuffix(path, "/")
	if hasSlash && !needsSlash {
		return path[:len(path)-1]
	} else if !hasSlash && needsSlash {
		return path + "/"
	}
	return path
}
