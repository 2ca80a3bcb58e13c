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

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// bindFlags binds "cobra" flags defined in the CLI with viper, keeping their declaration order
func bindFlags(cfg *viper.Viper, flags *pflag.FlagSet) error {
	// Don't sort alphabetically, keep insertion order
	flags.SortFlags = false
	return cfg.BindPFlags(flags)
}

// extractFlags sets the flags of the given set found in args and returns the remaining ones.
//
// Both "--name value" and "--name=value" are supported, args following "--" are kept as is.
func extractFlags(flags *pflag.FlagSet, args []string) ([]string, error) {
	remaining := []string{}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return append(remaining, args[i+1:]...), nil
		}
		if !strings.HasPrefix(arg, "--") {
			remaining = append(remaining, arg)
			continue
		}
		name, value, hasValue := strings.Cut(arg[2:], "=")
		if flags.Lookup(name) == nil {
			remaining = append(remaining, arg)
			continue
		}
		if !hasValue {
			if i+1 >= len(args) {
				return nil, fmt.Errorf("flag needs an argument: --%s", name)
			}
			i++
			value = args[i]
		}
		if err := flags.Set(name, value); err != nil {
			return nil, fmt.Errorf("invalid argument %q for --%s: %w", value, name, err)
		}
	}
	return remaining, nil
}
