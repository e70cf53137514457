// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package extract

import (
	"strings"
	"unicode"
)

// repairJSON fixes the two malformations models produce most often:
// object keys missing one or both quotes, and trailing commas before a
// closing bracket. Text inside string literals is never touched.
func repairJSON(s string) string {
	src := []rune(s)
	var out strings.Builder
	out.Grow(len(s) + 16)

	var stack []rune
	inString := false
	escaped := false
	expectKey := false

	for i := 0; i < len(src); i++ {
		ch := src[i]

		if inString {
			out.WriteRune(ch)
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch {
		case ch == '"':
			inString = true
			expectKey = false
			out.WriteRune(ch)

		case ch == '{' || ch == '[':
			stack = append(stack, ch)
			expectKey = ch == '{'
			out.WriteRune(ch)

		case ch == '}' || ch == ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			expectKey = false
			out.WriteRune(ch)

		case ch == ',':
			if next := nextSignificant(src, i+1); next == '}' || next == ']' {
				continue
			}
			expectKey = len(stack) > 0 && stack[len(stack)-1] == '{'
			out.WriteRune(ch)

		case expectKey && isKeyStart(ch):
			end := i
			for end < len(src) && isKeyRune(src[end]) {
				end++
			}
			// Either `key":` or `key:`.
			after := end
			if after < len(src) && src[after] == '"' {
				after++
			}
			if nextSignificant(src, after) == ':' {
				out.WriteRune('"')
				out.WriteString(string(src[i:end]))
				out.WriteRune('"')
				i = after - 1
			} else {
				out.WriteString(string(src[i:end]))
				i = end - 1
			}
			expectKey = false

		default:
			if !unicode.IsSpace(ch) {
				expectKey = false
			}
			out.WriteRune(ch)
		}
	}

	return out.String()
}

// nextSignificant returns the first non-space rune at or after i, or 0.
func nextSignificant(src []rune, i int) rune {
	for ; i < len(src); i++ {
		if !unicode.IsSpace(src[i]) {
			return src[i]
		}
	}
	return 0
}

func isKeyStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isKeyRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-'
}
