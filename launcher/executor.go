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

package launcher

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "launcher")

var ErrCancelled = errors.New("process cancelled")

// ExitError is returned when a process ran to completion with a non zero exit code
type ExitError struct {
	Name string
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.Name, e.Code)
}

type Executor struct {
	Ctx         context.Context
	Folder      string
	Environment []string

	// OutputEnabled streams the process stdout at debug level and its stderr at warning level
	OutputEnabled bool
	// Logger defaults to the launcher component logger
	Logger *logrus.Entry
	// Output receives a copy of the process stdout
	Output io.Writer
	// Interactive attaches the process to the terminal, output is neither logged nor captured
	Interactive bool
}

// Remove trailing empty values
func trimTrail(src []string) []string {
	lastIndex := len(src) - 1
	for lastIndex >= 0 {
		if len(src[lastIndex]) == 0 {
			lastIndex--
		} else {
			break
		}
	}

	return src[:lastIndex+1]
}

func (exe *Executor) streamOut(out func(args ...interface{}), copyTo io.Writer, src io.Reader, wg *sync.WaitGroup) {
	defer wg.Done()

	scanner := bufio.NewScanner(src)
	for scanner.Scan() {
		text := scanner.Text()

		if copyTo != nil {
			fmt.Fprintln(copyTo, text)
		}

		if exe.OutputEnabled {
			out(text)
		}
	}
}

func (exe *Executor) Execute(cmdDesc string, cmdArgs []string) error {
	logger := exe.Logger
	if logger == nil {
		logger = log
	}
	logger = logger.WithField("cmd", cmdDesc)

	if len(cmdArgs) < 1 || len(cmdArgs[0]) == 0 {
		logger.Trace("Empty command ignored")
		return nil
	}

	ctx := exe.Ctx
	if ctx == nil {
		ctx = context.Background()
	}

	cmd := cmdArgs[0]
	args := trimTrail(cmdArgs[1:])

	cmdCtx := exec.CommandContext(ctx, cmd, args...)
	cmdCtx.Dir = exe.Folder
	cmdCtx.Env = exe.Environment

	if exe.Interactive {
		cmdCtx.Stdin = os.Stdin
		cmdCtx.Stdout = os.Stdout
		cmdCtx.Stderr = os.Stderr
	} else if exe.OutputEnabled || exe.Output != nil {
		errReader, errWriter := io.Pipe()
		outReader, outWriter := io.Pipe()
		cmdCtx.Stderr = errWriter
		cmdCtx.Stdout = outWriter

		logWg := new(sync.WaitGroup)
		logWg.Add(2)

		go exe.streamOut(logger.Debug, exe.Output, outReader, logWg)
		go exe.streamOut(logger.Warn, nil, errReader, logWg)
		defer func() {
			errWriter.Close()
			outWriter.Close()
			logWg.Wait()
		}()
	}

	cmdLine := strings.Join(append([]string{cmd}, args...), " ")
	logger.WithField("", cmdLine).Trace("Launch")

	err := cmdCtx.Start()
	if err != nil {
		if ctx.Err() != nil {
			logger.Debug("Cancelled before start")
			return ErrCancelled
		}
		logger.WithField("error", err).Debug("Failed")
		return err
	}

	err = cmdCtx.Wait()
	if err != nil {
		var exitErr *exec.ExitError
		if ctx.Err() != nil {
			// This happens when the context is cancelled (e.g. CTRL-C).
			logger.Debug("Killed")
			return ErrCancelled
		} else if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
			logger.WithField("code", exitErr.ExitCode()).Debug("Failed")
			return &ExitError{Name: cmd, Code: exitErr.ExitCode()}
		} else if strings.HasPrefix(err.Error(), "signal: ") {
			logger.Debug(err.Error())
			return ErrCancelled
		}
		logger.WithField("error", err).Debug("Failed")
		return err
	}

	logger.Trace("Completed")

	return nil
}
