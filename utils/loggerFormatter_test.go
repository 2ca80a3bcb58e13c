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

package utils

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestLoggerFormatterPrefixFields(t *testing.T) {
	t.Parallel()
	formatter := MakeLoggerFormatter([]string{"component", "sub_component"}, false)

	entry := &logrus.Entry{
		Time:    time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC),
		Level:   logrus.InfoLevel,
		Message: "  compiled  ",
		Data: logrus.Fields{
			"sub_component": "bundler",
			"component":     "build",
			"warnings":      2,
			"errors":        0,
		},
	}

	out, err := formatter.Format(entry)
	assert.NoError(t, err)
	assert.Equal(
		t,
		"2023-01-02T03:04:05Z \x1b[36m[INFO] [build>bundler] \x1b[0mcompiled [errors:0] [warnings:2]\n",
		string(out),
	)
}

func TestLoggerFormatterLevelName(t *testing.T) {
	t.Parallel()
	formatter := MakeLoggerFormatter(nil, false)

	out, err := formatter.Format(&logrus.Entry{
		Time:    time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC),
		Level:   logrus.WarnLevel,
		Message: "oops",
		Data:    logrus.Fields{},
	})
	assert.NoError(t, err)
	assert.Equal(t, "2023-01-02T03:04:05Z \x1b[33m[WARN] \x1b[0moops\n", string(out))
}

func TestLoggerFormatterMinimal(t *testing.T) {
	t.Parallel()
	formatter := MakeLoggerFormatter([]string{"cmd"}, true)

	out, err := formatter.Format(&logrus.Entry{
		Level:   logrus.InfoLevel,
		Message: "PASS src/App.test.js\n",
		Data:    logrus.Fields{"cmd": "jest"},
	})
	assert.NoError(t, err)
	assert.Equal(t, "PASS src/App.test.js\n", string(out))
}
