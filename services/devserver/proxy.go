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
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
)

var ErrInvalidProxy = errors.New(`when specified, "proxy" in package.json must be a string starting with http:// or https://`)

// ParseProxy validates the "proxy" field of the package manifest
func ParseProxy(proxy string) (*url.URL, error) {
	if len(proxy) == 0 {
		return nil, nil
	}
	if !strings.HasPrefix(proxy, "http://") && !strings.HasPrefix(proxy, "https://") {
		return nil, fmt.Errorf("%w, got %q", ErrInvalidProxy, proxy)
	}
	target, err := url.Parse(proxy)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProxy, err)
	}
	return target, nil
}

// newProxy forwards requests to the api server, the Host header being
// rewritten to match the target.
func newProxy(target *url.URL, transport http.RoundTripper) *httputil.ReverseProxy {
	proxy := httputil.NewSingleHostReverseProxy(target)
	director := proxy.Director
	proxy.Director = func(req *http.Request) {
		director(req)
		req.Host = target.Host
	}
	if transport != nil {
		proxy.Transport = transport
	}
	proxy.ErrorHandler = func(w http.ResponseWriter, req *http.Request, err error) {
		log.WithFields(logrus.Fields{
			"path":   req.URL.Path,
			"target": target.String(),
			"error":  err,
		}).Warn("Proxy error")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, "Proxy error: Could not proxy request %s from %s to %s (%v).", req.URL.Path, req.Host, target, err)
	}
	return proxy
}

// shouldProxy is true for the requests that don't expect an html page
func shouldProxy(req *http.Request) bool {
	if req.Method != http.MethodGet {
		return true
	}
	accept := req.Header.Get("Accept")
	return len(accept) > 0 && !strings.Contains(accept, "text/html")
}
