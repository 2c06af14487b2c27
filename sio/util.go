/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package sio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
)

// ShortWidth is how many runes JShort keeps.
const ShortWidth = 70

func render(x interface{}, indent bool) string {
	if x == nil {
		return "null"
	}
	var (
		js  []byte
		err error
	)
	if indent {
		js, err = json.MarshalIndent(x, "", "  ")
	} else {
		js, err = json.Marshal(x)
	}
	if err != nil {
		return fmt.Sprintf("%#v", x)
	}
	return string(js)
}

// JSON renders its argument as indented JSON or, failing that, with
// '%#v'.
func JSON(x interface{}) string {
	return render(x, true)
}

// JShort renders its argument as compact JSON cut to ShortWidth runes
// for log lines.
func JShort(x interface{}) string {
	rs := []rune(render(x, false))
	if len(rs) <= ShortWidth {
		return string(rs)
	}
	return string(rs[:ShortWidth]) + "..."
}

var shell = regexp.MustCompile(`<<(.*?)>>`)

// ShellExpand replaces each '<<command>>' in the line with the
// command's output, less trailing newlines.
//
// Commands run with bash and are killed when the context is done.
func ShellExpand(ctx context.Context, line string) (string, error) {
	var (
		acc  strings.Builder
		last int
	)
	for _, loc := range shell.FindAllStringSubmatchIndex(line, -1) {
		acc.WriteString(line[last:loc[0]])
		sh := line[loc[2]:loc[3]]
		var out bytes.Buffer
		cmd := exec.CommandContext(ctx, "bash", "-c", sh)
		cmd.Stdout = &out
		if err := cmd.Run(); err != nil {
			return "", fmt.Errorf("shell %q: %w", sh, err)
		}
		acc.WriteString(strings.TrimRight(out.String(), "\n"))
		last = loc[1]
	}
	acc.WriteString(line[last:])
	return acc.String(), nil
}
