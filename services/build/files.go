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
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/afero"
)

// CheckRequiredFiles fails when one of the files doesn't exist
func CheckRequiredFiles(fs afero.Fs, files ...string) error {
	for _, file := range files {
		info, err := fs.Stat(file)
		if err != nil || info.IsDir() {
			return fmt.Errorf("%w.\n  Name: %s\n  Searched in: %s",
				ErrMissingRequiredFiles, filepath.Base(file), filepath.Dir(file))
		}
	}
	return nil
}

func emptyDir(fs afero.Fs, dir string) error {
	if err := fs.RemoveAll(dir); err != nil {
		return fmt.Errorf("unable to empty %q: %w", dir, err)
	}
	return fs.MkdirAll(dir, 0o755)
}

// copyDir copies the content of src into dst, following symbolic links.
func copyDir(fs afero.Fs, src string, dst string, skip func(src string) bool) error {
	entries, err := afero.ReadDir(fs, src)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("unable to read %q: %w", src, err)
	}

	if err := fs.MkdirAll(dst, 0o755); err != nil {
		return err
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())
		if skip(srcPath) {
			continue
		}

		info := entry
		if entry.Mode()&os.ModeSymlink != 0 {
			info, err = fs.Stat(srcPath)
			if err != nil {
				return fmt.Errorf("unable to follow %q: %w", srcPath, err)
			}
		}

		if info.IsDir() {
			if err := copyDir(fs, srcPath, dstPath, skip); err != nil {
				return err
			}
			continue
		}

		content, err := afero.ReadFile(fs, srcPath)
		if err != nil {
			return err
		}
		if err := afero.WriteFile(fs, dstPath, content, info.Mode().Perm()); err != nil {
			return err
		}
	}
	return nil
}

var hashRegex = regexp.MustCompile(`^(.*)\.[A-Z2-7]{8}(\.chunk)?(\.js|\.css)$`)

// StripHash removes the content hash from a generated file name
func StripHash(name string) string {
	return hashRegex.ReplaceAllString(name, "$1$2$3")
}

func gzipSize(content []byte) int {
	compressed := bytes.Buffer{}
	writer := gzip.NewWriter(&compressed)
	_, _ = writer.Write(content)
	_ = writer.Close()
	return compressed.Len()
}

func isMeasured(name string) bool {
	ext := path.Ext(name)
	return ext == ".js" || ext == ".css"
}

// MeasureFileSizes computes the gzip size of the scripts and stylesheets of
// an existing build, keyed by their path without content hash.
func MeasureFileSizes(fs afero.Fs, buildDir string) (map[string]int, error) {
	sizes := map[string]int{}
	exists, err := afero.DirExists(fs, buildDir)
	if err != nil || !exists {
		return sizes, err
	}

	err = afero.Walk(fs, buildDir, func(file string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(buildDir, file)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if !isMeasured(name) {
			return nil
		}
		content, err := afero.ReadFile(fs, file)
		if err != nil {
			return err
		}
		sizes[StripHash(name)] = gzipSize(content)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to measure the previous build: %w", err)
	}
	return sizes, nil
}

// FileSize is the gzip size of a generated file
type FileSize struct {
	Name string
	Size int
}

func measureAssets(fs afero.Fs, buildDir string, assets []Asset) ([]FileSize, error) {
	sizes := []FileSize{}
	for _, asset := range assets {
		if !isMeasured(asset.Name) {
			continue
		}
		content, err := afero.ReadFile(fs, filepath.Join(buildDir, filepath.FromSlash(asset.Name)))
		if err != nil {
			return nil, err
		}
		sizes = append(sizes, FileSize{Name: asset.Name, Size: gzipSize(content)})
	}
	return sizes, nil
}

// AssetManifestFile maps the logical names of the generated files to their urls
const AssetManifestFile = "asset-manifest.json"

var mediaHashRegex = regexp.MustCompile(`^(static/media/.*)\.[A-Z2-7]{8}(\.[^./]+)$`)

func logicalName(name string) string {
	if mediaHashRegex.MatchString(name) {
		return mediaHashRegex.ReplaceAllString(name, "$1$2")
	}
	stripped := StripHash(strings.TrimSuffix(name, ".map"))
	if strings.HasSuffix(name, ".map") {
		stripped += ".map"
	}
	if strings.HasPrefix(stripped, "static/js/") || strings.HasPrefix(stripped, "static/css/") {
		return path.Base(stripped)
	}
	return stripped
}

func AssetManifest(assets []Asset, indexURL string) map[string]string {
	manifest := map[string]string{"index.html": indexURL}
	for _, asset := range assets {
		manifest[logicalName(asset.Name)] = asset.URL
	}
	return manifest
}

func writeAssetManifest(fs afero.Fs, buildDir string, publicPath string, assets []Asset) error {
	// Map keys are sorted by the encoder
	content, err := json.MarshalIndent(AssetManifest(assets, assetURL(publicPath, "index.html")), "", "  ")
	if err != nil {
		return err
	}
	return afero.WriteFile(fs, filepath.Join(buildDir, AssetManifestFile), content, 0o644)
}
