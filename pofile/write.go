package pofile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Write writes the catalog to a writer: header first, then active entries
// sorted by (msgid, msgctxt), then obsolete entries.
func (c *Catalog) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)

	writeEntry(bw, &Entry{
		TranslatorComments: c.HeaderComments,
		Flags:              c.HeaderFlags,
		MsgStr:             c.Metadata.String(),
	})

	for _, e := range c.Entries() {
		fmt.Fprintln(bw)
		writeEntry(bw, e)
	}

	obsolete := c.Obsolete()
	sortEntries(obsolete)
	for _, e := range obsolete {
		fmt.Fprintln(bw)
		writeEntry(bw, e)
	}

	return bw.Flush()
}

// Save writes the catalog to disk, creating parent directories.
func (c *Catalog) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := c.Write(out); err != nil {
		out.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return out.Close()
}

func writeEntry(w *bufio.Writer, e *Entry) {
	prefix := ""
	if e.Obsolete {
		prefix = "#~ "
	}

	// Translator comments
	for _, c := range e.TranslatorComments {
		if c == "" {
			fmt.Fprintln(w, "#")
			continue
		}
		fmt.Fprintf(w, "# %s\n", c)
	}

	// Extracted comments
	for _, c := range e.ExtractedComments {
		fmt.Fprintf(w, "#. %s\n", c)
	}

	// References
	for _, ref := range e.References {
		fmt.Fprintf(w, "#: %s\n", ref)
	}

	// Flags
	if len(e.Flags) > 0 {
		fmt.Fprintf(w, "#, %s\n", strings.Join(e.Flags, ", "))
	}

	// Previous msgid
	if e.PreviousMsgID != "" {
		fmt.Fprintf(w, "#| msgid %s\n", Quote(e.PreviousMsgID))
	}

	if e.MsgCtxt != "" {
		writeQuotedField(w, prefix, "msgctxt", e.MsgCtxt)
	}

	writeQuotedField(w, prefix, "msgid", e.MsgID)

	if e.MsgIDPlural == "" {
		writeQuotedField(w, prefix, "msgstr", e.MsgStr)
		return
	}

	writeQuotedField(w, prefix, "msgid_plural", e.MsgIDPlural)
	if len(e.MsgStrPlural) == 0 {
		writeQuotedField(w, prefix, "msgstr[0]", e.MsgStr)
		writeQuotedField(w, prefix, "msgstr[1]", "")
		return
	}
	indices := make([]int, 0, len(e.MsgStrPlural))
	for idx := range e.MsgStrPlural {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	for _, idx := range indices {
		writeQuotedField(w, prefix, fmt.Sprintf("msgstr[%d]", idx), e.MsgStrPlural[idx])
	}
}

// writeQuotedField writes a PO field with proper multiline quoting.
func writeQuotedField(w *bufio.Writer, prefix, field, value string) {
	if !strings.Contains(strings.TrimSuffix(value, "\n"), "\n") {
		fmt.Fprintf(w, "%s%s %s\n", prefix, field, Quote(value))
		return
	}

	// Multiline: use empty string on first line
	fmt.Fprintf(w, "%s%s \"\"\n", prefix, field)
	parts := strings.SplitAfter(value, "\n")
	for _, part := range parts {
		if part != "" {
			fmt.Fprintf(w, "%s%s\n", prefix, Quote(part))
		}
	}
}

// Escape applies PO escaping. Backslash goes first so the escapes added
// for the other characters are not doubled.
func Escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	s = strings.ReplaceAll(s, "\t", `\t`)
	s = strings.ReplaceAll(s, "\r", `\r`)
	return s
}

// Quote produces a PO-style quoted string.
func Quote(s string) string {
	return `"` + Escape(s) + `"`
}
