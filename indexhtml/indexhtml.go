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
	"bytes"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Options drives the generation of the served index.html from the public template
type Options struct {
	// Variables replaces the "%KEY%" placeholders
	Variables map[string]string
	// Styles are the urls of the stylesheets linked at the end of the head
	Styles []string
	// Scripts are the urls of the scripts loaded at the end of the body
	Scripts []string
	Minify  bool
}

func Generate(template []byte, options Options) ([]byte, error) {
	content := Interpolate(string(template), options.Variables)

	result, err := Inject([]byte(content), options.Styles, options.Scripts)
	if err != nil {
		return nil, err
	}

	if options.Minify {
		return Minify(result)
	}
	return result, nil
}

// Interpolate replaces every "%KEY%" occurrence with the matching value
func Interpolate(content string, variables map[string]string) string {
	keys := make([]string, 0, len(variables))
	for key := range variables {
		keys = append(keys, key)
	}
	// Longest keys first so that a key being the prefix of another doesn't interfere
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	oldnew := make([]string, 0, 2*len(keys))
	for _, key := range keys {
		oldnew = append(oldnew, "%"+key+"%", variables[key])
	}
	return strings.NewReplacer(oldnew...).Replace(content)
}

// Inject adds the stylesheet links and the script tags to the document
func Inject(content []byte, styles []string, scripts []string) ([]byte, error) {
	document, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("unable to parse the html template: %w", err)
	}

	head := findElement(document, atom.Head)
	body := findElement(document, atom.Body)
	if head == nil || body == nil {
		return nil, fmt.Errorf("the html template has no head or body")
	}

	for _, style := range styles {
		head.AppendChild(&html.Node{
			Type:     html.ElementNode,
			DataAtom: atom.Link,
			Data:     "link",
			Attr: []html.Attribute{
				{Key: "href", Val: style},
				{Key: "rel", Val: "stylesheet"},
			},
		})
	}
	for _, script := range scripts {
		body.AppendChild(&html.Node{
			Type:     html.ElementNode,
			DataAtom: atom.Script,
			Data:     "script",
			Attr: []html.Attribute{
				{Key: "src", Val: script},
			},
		})
	}

	result := bytes.Buffer{}
	if err := html.Render(&result, document); err != nil {
		return nil, fmt.Errorf("unable to render the html document: %w", err)
	}
	return result.Bytes(), nil
}

func findElement(node *html.Node, a atom.Atom) *html.Node {
	if node.Type == html.ElementNode && node.DataAtom == a {
		return node
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if found := findElement(child, a); found != nil {
			return found
		}
	}
	return nil
}
