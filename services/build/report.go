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
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

const (
	fiftyKilobytes          = 50 * 1024
	warnAfterBundleGzipSize = 512 * 1024
	warnAfterChunkGzipSize  = 1024 * 1024
)

// SizeDifference formats the growth of a file compared to the previous build
func SizeDifference(current int, previous int) string {
	difference := current - previous
	label := humanize.Bytes(uint64(abs(difference)))
	switch {
	case difference >= fiftyKilobytes:
		return color.RedString("+" + label)
	case difference > 0:
		return color.YellowString("+" + label)
	case difference < 0:
		return color.GreenString("-" + label)
	}
	return ""
}

func abs(value int) int {
	if value < 0 {
		return -value
	}
	return value
}

func isTooLarge(size FileSize) bool {
	if strings.HasSuffix(size.Name, ".chunk.js") {
		return size.Size > warnAfterChunkGzipSize
	}
	return path.Ext(size.Name) == ".js" && size.Size > warnAfterBundleGzipSize
}

// PrintFileSizes lists the generated scripts and stylesheets, largest first
func PrintFileSizes(out io.Writer, sizes []FileSize, previousSizes map[string]int) {
	sorted := append([]FileSize{}, sizes...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Size > sorted[j].Size })

	table := tablewriter.NewWriter(out)
	table.SetBorder(false)
	table.SetColumnSeparator("")
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	suggestBundleSplitting := false
	for _, size := range sorted {
		label := humanize.Bytes(uint64(size.Size))
		if previous, ok := previousSizes[StripHash(size.Name)]; ok {
			if difference := SizeDifference(size.Size, previous); len(difference) > 0 {
				label += " (" + difference + ")"
			}
		}
		if isTooLarge(size) {
			suggestBundleSplitting = true
			label = color.YellowString(label)
		}
		table.Append([]string{
			label,
			color.New(color.Faint).Sprint(path.Dir(size.Name)+"/") + color.CyanString(path.Base(size.Name)),
		})
	}
	table.Render()

	if suggestBundleSplitting {
		fmt.Fprintln(out)
		color.New(color.FgYellow).Fprint(out,
			"The bundle size is significantly larger than recommended.\n"+
				"Consider reducing it with code splitting: https://goo.gl/9VhYWB\n"+
				"You can also analyze the project dependencies: https://goo.gl/LeUzfb\n")
	}
}

type HostingInfo struct {
	Homepage   string
	PublicURL  string
	PublicPath string
	BuildDir   string
	UseYarn    bool
}

// PrintHostingInstructions explains how the build is meant to be deployed
func PrintHostingInstructions(out io.Writer, info HostingInfo) {
	cyan := color.New(color.FgCyan).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	run := "npm run"
	if info.UseYarn {
		run = "yarn"
	}

	switch {
	case strings.Contains(info.Homepage, "github.io"):
		fmt.Fprintf(out, "The project was built assuming it is hosted at %s.\n", green(info.PublicPath))
		fmt.Fprintf(out, "You can control this with the %s field in your %s.\n\n", green("homepage"), cyan("package.json"))
		fmt.Fprintf(out, "The %s folder is ready to be deployed.\n", cyan(info.BuildDir))
		fmt.Fprintf(out, "To publish it at %s, run:\n\n", green(info.Homepage))
		fmt.Fprintf(out, "  %s\n\n", cyan(run+" deploy"))
	case info.PublicPath != "/":
		fmt.Fprintf(out, "The project was built assuming it is hosted at %s.\n", green(info.PublicPath))
		fmt.Fprintf(out, "You can control this with the %s field in your %s.\n\n", green("homepage"), cyan("package.json"))
		fmt.Fprintf(out, "The %s folder is ready to be deployed.\n\n", cyan(info.BuildDir))
	default:
		fmt.Fprintf(out, "The project was built assuming it is hosted at the server root.\n")
		fmt.Fprintf(out, "You can control this with the %s field in your %s.\n", green("homepage"), cyan("package.json"))
		fmt.Fprintf(out, "For example, add this to build it for GitHub Pages:\n\n")
		fmt.Fprintf(out, "  %s%s\n\n", green(`"homepage"`), cyan(`: "http://myname.github.io/myapp",`))
		fmt.Fprintf(out, "The %s folder is ready to be deployed.\n", cyan(info.BuildDir))
		fmt.Fprintf(out, "You may serve it with a static server:\n\n")
		if info.UseYarn {
			fmt.Fprintf(out, "  %s\n", cyan("yarn global add serve"))
		} else {
			fmt.Fprintf(out, "  %s\n", cyan("npm install -g serve"))
		}
		fmt.Fprintf(out, "  %s\n\n", cyan("serve -s "+info.BuildDir))
	}
}
