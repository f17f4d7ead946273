package config

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// The config file accepts a relaxed JSON5-ish syntax: comments, unquoted
// keys and trailing commas. The preprocessor normalizes it to plain JSON
// before unmarshalling. It is not a full JSON5 parser.

var (
	unquotedKeyRe   = regexp.MustCompile(`(^|[{,\s])([a-zA-Z_$][a-zA-Z0-9_$]*)\s*:`)
	trailingCommaRe = regexp.MustCompile(`,(\s*[}\]])`)
)

// ParseJSON5 parses relaxed JSON content and unmarshals it into target
func ParseJSON5(data []byte, target interface{}) error {
	normalized, err := normalizeJSON5(string(data))
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(normalized), target); err != nil {
		return fmt.Errorf("failed to parse config JSON: %w", err)
	}
	return nil
}

func normalizeJSON5(content string) (string, error) {
	content = stripComments(content)
	content = unquotedKeyRe.ReplaceAllString(content, `$1"$2":`)
	content = trailingCommaRe.ReplaceAllString(content, `$1`)

	var probe interface{}
	if err := json.Unmarshal([]byte(content), &probe); err != nil {
		return "", fmt.Errorf("config is not valid JSON after normalization: %w", err)
	}
	return content, nil
}

// stripComments removes // and /* */ comments, leaving string literals
// untouched.
func stripComments(content string) string {
	var out strings.Builder
	inString := false
	escaped := false
	inBlock := false

	for i := 0; i < len(content); i++ {
		c := content[i]

		if inBlock {
			if c == '*' && i+1 < len(content) && content[i+1] == '/' {
				inBlock = false
				i++
			}
			continue
		}

		if inString {
			out.WriteByte(c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}

		switch {
		case c == '"':
			inString = true
			out.WriteByte(c)
		case c == '/' && i+1 < len(content) && content[i+1] == '/':
			// single-line comment runs to end of line
			for i < len(content) && content[i] != '\n' {
				i++
			}
			if i < len(content) {
				out.WriteByte('\n')
			}
		case c == '/' && i+1 < len(content) && content[i+1] == '*':
			inBlock = true
			i++
		default:
			out.WriteByte(c)
		}
	}

	return out.String()
}
