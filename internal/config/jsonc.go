package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// normalizeJSONC blanks out comments and drops trailing commas so the result
// decodes as strict JSON. Byte offsets are preserved for comment removal so
// decoder errors still point at the original line.
func normalizeJSONC(content string) (string, error) {
	stripped, err := blankComments(content)
	if err != nil {
		return "", err
	}
	return dropTrailingCommas(stripped), nil
}

type scanMode int

const (
	modeCode scanMode = iota
	modeString
	modeLineComment
	modeBlockComment
)

func blankComments(content string) (string, error) {
	buf := []byte(content)
	mode := modeCode
	escaped := false

	for i := 0; i < len(buf); i++ {
		ch := buf[i]
		switch mode {
		case modeString:
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				mode = modeCode
			}
		case modeLineComment:
			if ch == '\n' || ch == '\r' {
				mode = modeCode
				continue
			}
			buf[i] = ' '
		case modeBlockComment:
			if ch == '*' && i+1 < len(buf) && buf[i+1] == '/' {
				buf[i], buf[i+1] = ' ', ' '
				i++
				mode = modeCode
				continue
			}
			if !isJSONSpace(ch) {
				buf[i] = ' '
			}
		default:
			if ch == '"' {
				mode = modeString
				continue
			}
			if ch != '/' || i+1 >= len(buf) {
				continue
			}
			switch buf[i+1] {
			case '/':
				mode = modeLineComment
			case '*':
				mode = modeBlockComment
			default:
				continue
			}
			buf[i], buf[i+1] = ' ', ' '
			i++
		}
	}

	if mode == modeBlockComment {
		return "", errors.New("unterminated block comment in JSONC")
	}
	return string(buf), nil
}

func dropTrailingCommas(content string) string {
	buf := []byte(content)
	inString := false
	escaped := false

	for i, ch := range buf {
		if inString {
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
		if ch == '"' {
			inString = true
			continue
		}
		if ch != ',' {
			continue
		}
		next := i + 1
		for next < len(buf) && isJSONSpace(buf[next]) {
			next++
		}
		if next < len(buf) && (buf[next] == '}' || buf[next] == ']') {
			buf[i] = ' '
		}
	}
	return string(buf)
}

func isJSONSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	var extra json.RawMessage
	switch err := decoder.Decode(&extra); {
	case errors.Is(err, io.EOF):
		return nil
	case err != nil:
		return err
	default:
		return errors.New("multiple JSON values are not allowed")
	}
}

func wrapJSONDecodeError(content string, err error) error {
	var offset int64 = -1

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		offset = syntaxErr.Offset
	case errors.As(err, &typeErr):
		offset = typeErr.Offset
	}
	if offset < 0 {
		return err
	}

	line, col := offsetToLineCol(content, offset)
	return fmt.Errorf("line %d column %d: %w", line, col, err)
}

// offsetToLineCol maps a decoder offset (bytes consumed) onto a 1-based
// line/column of the last consumed byte.
func offsetToLineCol(content string, offset int64) (int, int) {
	if offset <= 0 {
		return 1, 1
	}
	limit := min(int(offset), len(content))

	consumed := content[:max(limit-1, 0)]
	line := strings.Count(consumed, "\n") + 1
	col := len(consumed) - (strings.LastIndex(consumed, "\n") + 1) + 1
	return line, col
}
