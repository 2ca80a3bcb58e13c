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

package devserver

import (
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/cogment/app-scripts/bundler"
)

// assetStore holds the output of the latest successful compilation, keyed by url path
type assetStore struct {
	mutex     sync.RWMutex
	files     map[string][]byte
	indexHTML []byte
}

func newAssetStore() *assetStore {
	return &assetStore{
		files: map[string][]byte{},
	}
}

func (s *assetStore) get(urlPath string) ([]byte, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	content, ok := s.files[urlPath]
	return content, ok
}

func (s *assetStore) index() []byte {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.indexHTML
}

func (s *assetStore) replace(files map[string][]byte, indexHTML []byte) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.files = files
	s.indexHTML = indexHTML
}

// assetFiles maps the compiled outputs to their url path under the public path
func assetFiles(outDir string, publicPath string, outputs []bundler.OutputFile) map[string][]byte {
	files := make(map[string][]byte, len(outputs))
	for _, output := range outputs {
		rel, err := filepath.Rel(outDir, output.Path)
		if err != nil || strings.HasPrefix(rel, "..") {
			log.WithField("path", output.Path).Warn("Ignoring an output outside of the build directory")
			continue
		}
		files[path.Join(publicPath, filepath.ToSlash(rel))] = output.Contents
	}
	return files
}

// entryAssets lists the scripts and stylesheets to load from the index page
func entryAssets(files map[string][]byte) ([]string, []string) {
	styles, scripts := []string{}, []string{}
	for urlPath := range files {
		switch {
		case strings.HasSuffix(urlPath, ".css"):
			styles = append(styles, urlPath)
		case strings.HasSuffix(urlPath, ".js") && !strings.HasSuffix(urlPath, ".chunk.js"):
			scripts = append(scripts, urlPath)
		}
	}
	sort.Strings(styles)
	sort.Strings(scripts)
	return styles, scripts
}
