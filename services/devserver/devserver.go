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
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httputil"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/imdario/mergo"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/cogment/app-scripts/bundler"
	"github.com/cogment/app-scripts/env"
	"github.com/cogment/app-scripts/indexhtml"
	"github.com/cogment/app-scripts/paths"
	"github.com/cogment/app-scripts/utils"
)

var log = logrus.WithField("component", "devserver")

type State int

const (
	Idle State = iota
	Running
	Terminated
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Terminated:
		return "terminated"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var ErrNotIdle = errors.New("the dev server can only be started once")

type Options struct {
	Paths       paths.Paths
	Environment *env.Environment
	Host        string
	Port        uint
	HTTPS       bool
	CertFile    string
	KeyFile     string
	// Browser is the program opening the app url, "none" disables it and empty uses the system default
	Browser string
	// Interactive clears the console between compilations
	Interactive bool
	UseYarn     bool

	// Out receives the compilation reports, defaults to stdout
	Out io.Writer
	// ProxyTransport overrides the transport used to reach the proxied api server
	ProxyTransport http.RoundTripper
}

var DefaultOptions = Options{
	Host: "0.0.0.0",
	Port: 3000,
}

type Server struct {
	options Options
	config  bundler.Config
	urls    URLs
	// appName is the package.json name
	appName string

	assets  *assetStore
	reloads *reloadBroadcaster
	proxy   *httputil.ReverseProxy
	engine  http.Handler

	firstCompile *utils.Event

	stateMutex sync.Mutex
	state      State
}

func New(options Options) (*Server, error) {
	if err := mergo.Merge(&options, DefaultOptions); err != nil {
		return nil, err
	}
	if options.Out == nil {
		options.Out = os.Stdout
	}

	config, err := bundler.Assemble(env.Development, options.Paths, options.Environment)
	if err != nil {
		return nil, err
	}

	protocol := "http"
	if options.HTTPS {
		protocol = "https"
	}

	server := &Server{
		options:      options,
		config:       config,
		urls:         PrepareURLs(protocol, options.Host, options.Port),
		assets:       newAssetStore(),
		reloads:      newReloadBroadcaster(),
		firstCompile: utils.NewEvent(),
		state:        Idle,
	}

	manifest, err := paths.ReadManifest(options.Paths.AppPackageJSON)
	if err != nil {
		return nil, err
	}
	target, err := ParseProxy(manifest.Proxy)
	if err != nil {
		return nil, err
	}
	if target != nil {
		log.WithField("target", target.String()).Debug("Proxying the api requests")
		server.proxy = newProxy(target, options.ProxyTransport)
	}
	server.appName = manifest.Name

	server.engine = server.newEngine()
	return server, nil
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) URLs() URLs {
	return s.urls
}

func (s *Server) State() State {
	s.stateMutex.Lock()
	defer s.stateMutex.Unlock()
	return s.state
}

func (s *Server) transition(from State, to State) bool {
	s.stateMutex.Lock()
	defer s.stateMutex.Unlock()
	if s.state != from {
		return false
	}
	log.WithFields(logrus.Fields{"from": from, "to": to}).Trace("State transition")
	s.state = to
	return true
}

// Update publishes the result of a compilation
func (s *Server) Update(result bundler.Result) {
	if !result.Failed() {
		files := assetFiles(s.config.Options.Outdir, s.config.PublicPath, result.Outputs)
		index, err := s.generateIndex(files)
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
		} else {
			s.assets.replace(files, index)
		}
	}

	s.printCompilation(result)

	if !result.Failed() {
		clients := s.reloads.broadcast()
		log.WithField("clients", clients).Debug("Reload notified")
		s.firstCompile.Set()
	}
}

func (s *Server) generateIndex(files map[string][]byte) ([]byte, error) {
	template, err := os.ReadFile(s.options.Paths.AppHTML)
	if err != nil {
		return nil, fmt.Errorf("unable to read the html template: %w", err)
	}
	styles, scripts := entryAssets(files)
	return indexhtml.Generate(template, indexhtml.Options{
		Variables: s.config.Client.Raw,
		Styles:    styles,
		Scripts:   scripts,
	})
}

func (s *Server) watchPlugin() api.Plugin {
	return api.Plugin{
		Name: "dev-server",
		Setup: func(build api.PluginBuild) {
			build.OnStart(func() (api.OnStartResult, error) {
				s.printCompiling()
				return api.OnStartResult{}, nil
			})
			build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
				s.Update(bundler.MakeResult(result, s.config))
				return api.OnEndResult{}, nil
			})
		},
	}
}

func (s *Server) listen() (net.Listener, error) {
	address := net.JoinHostPort(s.options.Host, strconv.FormatUint(uint64(s.options.Port), 10))
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("unable to listen to %s: %w", address, err)
	}
	if !s.options.HTTPS {
		return listener, nil
	}
	config, err := tlsConfig(s.options.CertFile, s.options.KeyFile)
	if err != nil {
		listener.Close()
		return nil, err
	}
	return tls.NewListener(listener, config), nil
}

// Run serves the application, recompiling it on every change, until ctx is done
func (s *Server) Run(ctx context.Context) error {
	if !s.transition(Idle, Running) {
		return ErrNotIdle
	}
	defer s.transition(Running, Terminated)

	listener, err := s.listen()
	if err != nil {
		return err
	}

	options := s.config.Options
	options.Plugins = append(append([]api.Plugin{}, options.Plugins...), s.watchPlugin())
	buildCtx, ctxErr := api.Context(options)
	if ctxErr != nil {
		listener.Close()
		if len(ctxErr.Errors) > 0 {
			return fmt.Errorf("unable to setup the compilation: %s", ctxErr.Errors[0].Text)
		}
		return fmt.Errorf("unable to setup the compilation")
	}
	disposeOnce := sync.Once{}
	dispose := func() { disposeOnce.Do(buildCtx.Dispose) }
	defer dispose()

	httpServer := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.WithFields(logrus.Fields{
			"host":  s.options.Host,
			"port":  s.options.Port,
			"https": s.options.HTTPS,
		}).Debug("http server listening")
		if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("unexpected error while serving http routes: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		s.printStarting()
		if err := buildCtx.Watch(api.WatchOptions{}); err != nil {
			return fmt.Errorf("unable to watch the sources: %w", err)
		}
		return nil
	})

	if s.options.Browser != "none" {
		group.Go(func() error {
			if s.firstCompile.Wait(ctx) {
				s.openBrowser(ctx)
			}
			return nil
		})
	}

	group.Go(func() error {
		<-ctx.Done()
		log.Debug("Gracefully stopping")

		dispose()
		s.reloads.close()

		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(stopCtx); err != nil {
			log.WithField("error", err).Warning("Error while stopping")
		}
		return ctx.Err()
	})

	err = group.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func Run(ctx context.Context, options Options) error {
	server, err := New(options)
	if err != nil {
		return err
	}
	return server.Run(ctx)
}
