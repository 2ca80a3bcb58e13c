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
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var whitespaceRegex = regexp.MustCompile(`[ \t\r\n\f]+`)

// Minify removes the comments and collapses the whitespaces of a document.
//
// The content of pre, textarea, script and style elements is left untouched.
func Minify(content []byte) ([]byte, error) {
	tokenizer := html.NewTokenizer(bytes.NewReader(content))
	result := bytes.Buffer{}
	preserveDepth := 0

	for {
		tokenType := tokenizer.Next()
		switch tokenType {
		case html.ErrorToken:
			if err := tokenizer.Err(); err != io.EOF {
				return nil, fmt.Errorf("unable to minify the html document: %w", err)
			}
			return result.Bytes(), nil
		case html.CommentToken:
			continue
		case html.DoctypeToken:
			result.WriteString("<!doctype html>")
		case html.TextToken:
			raw := tokenizer.Raw()
			if preserveDepth > 0 {
				result.Write(raw)
				continue
			}
			collapsed := whitespaceRegex.ReplaceAll(raw, []byte(" "))
			if len(bytes.TrimSpace(collapsed)) == 0 {
				continue
			}
			result.Write(collapsed)
		case html.StartTagToken, html.SelfClosingTagToken:
			raw := append([]byte{}, tokenizer.Raw()...)
			token := tokenizer.Token()
			if isPreserved(token.DataAtom) && tokenType == html.StartTagToken {
				preserveDepth++
			}
			if stripped, ok := stripRedundantType(token); ok {
				result.WriteString(stripped.String())
			} else {
				result.Write(whitespaceRegex.ReplaceAll(raw, []byte(" ")))
			}
		case html.EndTagToken:
			token := tokenizer.Token()
			if isPreserved(token.DataAtom) && preserveDepth > 0 {
				preserveDepth--
			}
			result.WriteString(token.String())
		}
	}
}

func isPreserved(a atom.Atom) bool {
	switch a {
	case atom.Pre, atom.Textarea, atom.Script, atom.Style:
		return true
	}
	return false
}

// The default "type" of scripts and stylesheets can be dropped
func stripRedundantType(token html.Token) (html.Token, bool) {
	defaults := map[atom.Atom]string{
		atom.Script: "text/javascript",
		atom.Style:  "text/css",
		atom.Link:   "text/css",
	}
	defaultType, ok := defaults[token.DataAtom]
	if !ok {
		return token, false
	}

	attrs := make([]html.Attribute, 0, len(token.Attr))
	stripped := false
	for _, attr := range token.Attr {
		if attr.Key == "type" && strings.EqualFold(strings.TrimSpace(attr.Val), defaultType) {
			stripped = true
			continue
		}
		attrs = append(attrs, attr)
	}
	token.Attr = attrs
	return token, stripped
}
