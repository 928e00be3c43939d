package pofile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// Parse reads a PO/POT file from a reader. Malformed lines are skipped;
// only read errors are returned.
func Parse(r io.Reader) (*Catalog, error) {
	c := New()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

	var (
		current     *Entry
		sawMsgID    bool
		sawHeader   bool
		lastField   string // tracks the last msgid/msgstr/etc. field for multiline strings
		pluralIndex int
		lineNum     int
	)

	flush := func() {
		defer func() {
			current = nil
			sawMsgID = false
			lastField = ""
		}()
		if current == nil || !sawMsgID {
			return
		}
		if current.MsgID == "" && current.MsgCtxt == "" && !current.Obsolete {
			if sawHeader {
				log.Debug().Str("sys", "pofile").Int("line", lineNum).Msg("duplicate header entry skipped")
				return
			}
			sawHeader = true
			c.Metadata = ParseMetadata(current.MsgStr)
			c.HeaderComments = current.TranslatorComments
			c.HeaderFlags = current.Flags
			return
		}
		if current.MsgID == "" {
			log.Debug().Str("sys", "pofile").Int("line", lineNum).Msg("entry with empty msgid skipped")
			return
		}
		if _, err := c.Add(current); err != nil {
			log.Debug().Str("sys", "pofile").Int("line", lineNum).Err(err).Msg("entry skipped")
		}
	}

	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")

		// Empty line separates entries
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}

		obsolete := strings.HasPrefix(line, "#~")
		if obsolete {
			line = strings.TrimPrefix(strings.TrimPrefix(line, "#~"), " ")
			if strings.HasPrefix(line, "|") {
				line = "#" + line
			}
		}

		// A comment or keyword after a complete msgstr starts a new entry
		// even without a separating blank line.
		if current != nil && strings.HasPrefix(lastField, "msgstr") && startsEntry(line) {
			flush()
		}

		if current == nil {
			current = &Entry{}
		}
		if obsolete {
			current.Obsolete = true
		}

		switch {
		case strings.HasPrefix(line, "#:"):
			for _, ref := range strings.Fields(line[2:]) {
				current.References = append(current.References, ParseLocation(ref))
			}

		case strings.HasPrefix(line, "#,"):
			for _, flag := range strings.Split(line[2:], ",") {
				current.AddFlag(flag)
			}

		case strings.HasPrefix(line, "#."):
			current.ExtractedComments = append(current.ExtractedComments, strings.TrimSpace(line[2:]))

		case strings.HasPrefix(line, "#|"):
			prev := strings.TrimSpace(line[2:])
			if strings.HasPrefix(prev, "msgid ") {
				current.PreviousMsgID = unquote(strings.TrimPrefix(prev, "msgid "))
			}

		case strings.HasPrefix(line, "#"):
			current.TranslatorComments = append(current.TranslatorComments, strings.TrimPrefix(line[1:], " "))

		case strings.HasPrefix(line, "msgctxt "):
			current.MsgCtxt = unquote(strings.TrimPrefix(line, "msgctxt "))
			lastField = "msgctxt"

		case strings.HasPrefix(line, "msgid_plural "):
			current.MsgIDPlural = unquote(strings.TrimPrefix(line, "msgid_plural "))
			lastField = "msgid_plural"

		case strings.HasPrefix(line, "msgid "):
			current.MsgID = unquote(strings.TrimPrefix(line, "msgid "))
			sawMsgID = true
			lastField = "msgid"

		case strings.HasPrefix(line, "msgstr["):
			end := strings.Index(line, "]")
			idx, err := -1, errors.New("missing ]")
			if end > 0 {
				idx, err = strconv.Atoi(line[len("msgstr["):end])
			}
			if err != nil || idx < 0 {
				log.Debug().Str("sys", "pofile").Int("line", lineNum).Str("text", line).Msg("invalid msgstr index skipped")
				lastField = ""
				continue
			}
			if current.MsgStrPlural == nil {
				current.MsgStrPlural = make(map[int]string)
			}
			current.MsgStrPlural[idx] = unquote(line[end+1:])
			pluralIndex = idx
			lastField = "msgstr[]"

		case strings.HasPrefix(line, "msgstr "):
			current.MsgStr = unquote(strings.TrimPrefix(line, "msgstr "))
			lastField = "msgstr"

		case strings.HasPrefix(line, "\""):
			// Continuation line
			val := unquote(line)
			switch lastField {
			case "msgctxt":
				current.MsgCtxt += val
			case "msgid":
				current.MsgID += val
			case "msgid_plural":
				current.MsgIDPlural += val
			case "msgstr":
				current.MsgStr += val
			case "msgstr[]":
				current.MsgStrPlural[pluralIndex] += val
			default:
				log.Debug().Str("sys", "pofile").Int("line", lineNum).Msg("stray continuation line skipped")
			}

		default:
			log.Debug().Str("sys", "pofile").Int("line", lineNum).Str("text", line).Msg("unrecognized line skipped")
		}
	}

	// Flush last entry
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading PO file: %w", err)
	}

	return c, nil
}

func startsEntry(line string) bool {
	return strings.HasPrefix(line, "#") || strings.HasPrefix(line, "msgctxt ") || strings.HasPrefix(line, "msgid ")
}

// ParseFile reads a PO/POT file from disk.
func ParseFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Load is ParseFile with a missing file treated as an empty catalog.
// Callers that need the file to exist must check first.
func Load(path string) (*Catalog, error) {
	c, err := ParseFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return c, nil
}

// unquote removes PO-style quoting from a string.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}
	return Unescape(s[1 : len(s)-1])
}

// Unescape resolves PO backslash escapes. Unknown escapes are kept verbatim.
func Unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var result strings.Builder
	result.Grow(len(s))

	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case 'n':
				result.WriteByte('\n')
				i++
			case 't':
				result.WriteByte('\t')
				i++
			case 'r':
				result.WriteByte('\r')
				i++
			case '\\':
				result.WriteByte('\\')
				i++
			case '"':
				result.WriteByte('"')
				i++
			default:
				result.WriteByte(s[i])
			}
		} else {
			result.WriteByte(s[i])
		}
	}
	return result.String()
}
