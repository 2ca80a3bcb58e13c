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

package indexhtml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const template = `<!DOCTYPE html>
<html lang="en">
  <head>
    <!-- shown in the tab -->
    <link rel="icon" href="%PUBLIC_URL%/favicon.ico">
    <title>%REACT_APP_TITLE%</title>
  </head>
  <body>
    <noscript>You need to enable JavaScript to run this app.</noscript>
    <div id="root"></div>
  </body>
</html>
`

func TestInterpolate(t *testing.T) {
	t.Parallel()
	result := Interpolate("%PUBLIC_URL%/a %PUBLIC% %UNKNOWN%", map[string]string{
		"PUBLIC_URL": "/app",
		"PUBLIC":     "p",
	})
	assert.Equal(t, "/app/a p %UNKNOWN%", result)
}

func TestInject(t *testing.T) {
	t.Parallel()
	result, err := Inject([]byte(template), []string{"/static/css/index.A.css"}, []string{"/static/js/index.B.js"})
	require.NoError(t, err)

	assert.Contains(t, string(result), `<link href="/static/css/index.A.css" rel="stylesheet"/></head>`)
	assert.Contains(t, string(result), `<script src="/static/js/index.B.js"></script></body>`)
}

func TestInjectWithoutBody(t *testing.T) {
	t.Parallel()
	// The parser always synthesizes the head and body elements
	result, err := Inject([]byte("<p>hi</p>"), nil, []string{"/a.js"})
	require.NoError(t, err)
	assert.Equal(t, `<html><head></head><body><p>hi</p><script src="/a.js"></script></body></html>`, string(result))
}

func TestMinify(t *testing.T) {
	t.Parallel()
	result, err := Minify([]byte(`<!DOCTYPE html>
<html>
  <head>
    <!-- comment -->
    <style type="text/css">
      body { margin: 0; }
    </style>
  </head>
  <body>
    <pre>  keep
  me</pre>
    <p>Hello    <b>world</b></p>
    <script type="text/javascript">if (a && b) {  go(); }</script>
  </body>
</html>
`))
	require.NoError(t, err)
	assert.Equal(t, "<!doctype html><html><head><style>\n      body { margin: 0; }\n    </style></head>"+
		"<body><pre>  keep\n  me</pre><p>Hello <b>world</b></p>"+
		"<script>if (a && b) {  go(); }</script></body></html>", string(result))
}

func TestGenerate(t *testing.T) {
	t.Parallel()
	result, err := Generate([]byte(template), Options{
		Variables: map[string]string{"PUBLIC_URL": "/app", "REACT_APP_TITLE": "Demo"},
		Scripts:   []string{"/app/static/js/main.js"},
		Minify:    true,
	})
	require.NoError(t, err)

	assert.Equal(t, `<!doctype html><html lang="en"><head><link rel="icon" href="/app/favicon.ico"/><title>Demo</title></head>`+
		`<body><noscript>You need to enable JavaScript to run this app.</noscript><div id="root"></div>`+
		`<script src="/app/static/js/main.js"></script></body></html>`, string(result))
}
