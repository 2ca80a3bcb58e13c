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
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"text/template"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/spf13/afero"

	"github.com/cogment/app-scripts/bundler"
)

const ServiceWorkerFile = "service-worker.js"

// PrecacheEntry is a file cached by the service worker at install time.
//
// Revision is empty for the files whose name already contains a content hash.
type PrecacheEntry struct {
	URL      string `json:"url"`
	Revision string `json:"revision,omitempty"`
}

var serviceWorkerTemplate = template.Must(template.New(ServiceWorkerFile).Parse(`"use strict";
var precacheEntries = {{.Entries}};
var cacheName = "app-precache-" + {{.Version}};
var navigateFallback = {{.NavigateFallback}};
var ignoredNavigations = [/^\/__/];

function precacheRequest(entry) {
  return entry.revision ? entry.url + "?__revision=" + entry.revision : entry.url;
}

self.addEventListener("install", function (event) {
  event.waitUntil(
    caches.open(cacheName).then(function (cache) {
      return Promise.all(precacheEntries.map(function (entry) {
        return fetch(precacheRequest(entry), { credentials: "same-origin" }).then(function (response) {
          if (!response.ok) {
            throw new Error("Unable to precache " + entry.url);
          }
          return cache.put(new URL(entry.url, self.location).toString(), response);
        });
      }));
    }).then(function () {
      return self.skipWaiting();
    })
  );
});

self.addEventListener("activate", function (event) {
  event.waitUntil(
    caches.keys().then(function (names) {
      return Promise.all(names.filter(function (name) {
        return name.indexOf("app-precache-") === 0 && name !== cacheName;
      }).map(function (name) {
        return caches.delete(name);
      }));
    }).then(function () {
      return self.clients.claim();
    })
  );
});

self.addEventListener("fetch", function (event) {
  if (event.request.method !== "GET") {
    return;
  }
  var url = new URL(event.request.url);
  var request = event.request;
  if (request.mode === "navigate" && url.origin === self.location.origin) {
    var ignored = ignoredNavigations.some(function (pattern) {
      return pattern.test(url.pathname);
    });
    if (ignored) {
      return;
    }
    request = new URL(navigateFallback, self.location).toString();
  }
  event.respondWith(
    caches.open(cacheName).then(function (cache) {
      return cache.match(request).then(function (cached) {
        return cached || fetch(event.request);
      });
    })
  );
});
`))

var hashedNameRegexes = []*regexp.Regexp{hashRegex, mediaHashRegex}

func isHashed(name string) bool {
	for _, re := range hashedNameRegexes {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

func isPrecached(name string) bool {
	return !strings.HasSuffix(name, ".map") && name != AssetManifestFile && name != ServiceWorkerFile
}

// PrecacheEntries lists the files of the build directory that the service worker caches
func PrecacheEntries(fs afero.Fs, buildDir string, publicPath string) ([]PrecacheEntry, error) {
	entries := []PrecacheEntry{}
	err := afero.Walk(fs, buildDir, func(file string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		rel, err := filepath.Rel(buildDir, file)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if !isPrecached(name) {
			return nil
		}

		entry := PrecacheEntry{URL: assetURL(publicPath, name)}
		if !isHashed(name) {
			content, err := afero.ReadFile(fs, file)
			if err != nil {
				return err
			}
			sum := md5.Sum(content)
			entry.Revision = hex.EncodeToString(sum[:])
		}
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].URL < entries[j].URL })
	return entries, nil
}

// GenerateServiceWorker renders the minified service worker script
func GenerateServiceWorker(entries []PrecacheEntry, navigateFallback string) ([]byte, error) {
	serializedEntries, err := json.Marshal(entries)
	if err != nil {
		return nil, err
	}
	digest := md5.New()
	digest.Write(serializedEntries)
	version, _ := json.Marshal(hex.EncodeToString(digest.Sum(nil))[:12])
	serializedFallback, _ := json.Marshal(navigateFallback)

	source := bytes.Buffer{}
	err = serviceWorkerTemplate.Execute(&source, map[string]string{
		"Entries":          string(serializedEntries),
		"Version":          string(version),
		"NavigateFallback": string(serializedFallback),
	})
	if err != nil {
		return nil, err
	}

	result := api.Transform(source.String(), api.TransformOptions{
		Loader:            api.LoaderJS,
		Target:            api.ES2015,
		Charset:           api.CharsetASCII,
		MinifyWhitespace:  true,
		MinifyIdentifiers: true,
		MinifySyntax:      true,
		LogLevel:          api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("unable to minify the service worker: %s", result.Errors[0].Text)
	}
	return result.Code, nil
}

func writeServiceWorker(fs afero.Fs, buildDir string, config bundler.Config) error {
	entries, err := PrecacheEntries(fs, buildDir, config.PublicPath)
	if err != nil {
		return fmt.Errorf("unable to list the files to precache: %w", err)
	}
	content, err := GenerateServiceWorker(entries, config.PublicURL+"/index.html")
	if err != nil {
		return err
	}
	return afero.WriteFile(fs, filepath.Join(buildDir, ServiceWorkerFile), content, 0o644)
}
