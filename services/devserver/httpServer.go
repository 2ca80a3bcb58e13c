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
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/cogment/app-scripts/bundler"
)

const internalPathPrefix = "/__"

func (s *Server) newEngine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.HandleMethodNotAllowed = false

	// Allows all origins
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	engine.Use(cors.New(corsConfig))

	engine.Use(ginErrorHandlerMiddleware)
	engine.Use(ginLoggerMiddleware)

	// Recovery middleware recovers from any panics and writes a 500 if there was one.
	engine.Use(gin.Recovery())

	engine.GET(bundler.ReloadPath, s.streamReloads)
	engine.NoRoute(s.serve)

	return engine
}

func (s *Server) streamReloads(c *gin.Context) {
	reloads, unsubscribe := s.reloads.subscribe()
	defer unsubscribe()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("Content-Type", "text/event-stream")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case _, ok := <-reloads:
			if !ok {
				return false
			}
			c.SSEvent(bundler.ReloadEvent, "")
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func (s *Server) serve(c *gin.Context) {
	urlPath := path.Clean("/" + c.Request.URL.Path)
	isRead := c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead

	if isRead {
		if content, ok := s.assets.get(urlPath); ok {
			c.Data(http.StatusOK, contentType(urlPath), content)
			return
		}
	}

	if strings.HasPrefix(urlPath, internalPathPrefix) {
		_ = c.Error(fmt.Errorf("%q not found", urlPath))
		c.String(http.StatusNotFound, "Not found")
		return
	}

	if isRead {
		if publicFile, ok := s.publicFile(urlPath); ok {
			c.File(publicFile)
			return
		}
	}

	if s.proxy != nil && shouldProxy(c.Request) {
		s.proxy.ServeHTTP(c.Writer, c.Request)
		return
	}

	if !isRead {
		_ = c.Error(fmt.Errorf("%s %q not found", c.Request.Method, urlPath))
		c.String(http.StatusNotFound, "Not found")
		return
	}

	// Single page application fallback
	index := s.assets.index()
	if index == nil {
		c.String(http.StatusServiceUnavailable, "The application is being compiled, retry in a moment.")
		return
	}
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, "text/html; charset=utf-8", index)
}

// publicFile resolves a url path to a file of the public directory
func (s *Server) publicFile(urlPath string) (string, bool) {
	rel := strings.TrimPrefix(urlPath, strings.TrimSuffix(s.config.PublicPath, "/"))
	if rel == "/" || len(rel) == 0 {
		return "", false
	}
	file := filepath.Join(s.options.Paths.AppPublic, filepath.FromSlash(rel))
	if file == s.options.Paths.AppHTML {
		return "", false
	}
	info, err := os.Stat(file)
	if err != nil || info.IsDir() {
		return "", false
	}
	return file, true
}

func contentType(urlPath string) string {
	if strings.HasSuffix(urlPath, ".map") {
		return "application/json"
	}
	if mimeType := mime.TypeByExtension(path.Ext(urlPath)); len(mimeType) > 0 {
		return mimeType
	}
	return "application/octet-stream"
}
