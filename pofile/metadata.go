package pofile

import (
	"strings"
)

// Standard header field names.
const (
	FieldProjectIDVersion = "Project-Id-Version"
	FieldReportBugsTo     = "Report-Msgid-Bugs-To"
	FieldPOTCreationDate  = "POT-Creation-Date"
	FieldPORevisionDate   = "PO-Revision-Date"
	FieldLastTranslator   = "Last-Translator"
	FieldLanguageTeam     = "Language-Team"
	FieldLanguage         = "Language"
	FieldMIMEVersion      = "MIME-Version"
	FieldContentType      = "Content-Type"
	FieldTransferEncoding = "Content-Transfer-Encoding"
	FieldPluralForms      = "Plural-Forms"
	FieldGeneratedBy      = "Generated-By"
)

// Field is a single "Key: Value" header line.
type Field struct {
	Key   string
	Value string
}

// Metadata holds header fields in file order. Key matching is
// case-insensitive, as in GNU gettext.
type Metadata struct {
	fields []Field
}

// ParseMetadata parses a header msgstr made of "Key: Value\n" lines.
// Lines without a colon are ignored.
func ParseMetadata(s string) Metadata {
	var m Metadata
	for _, line := range strings.Split(s, "\n") {
		idx := strings.Index(line, ":")
		if idx <= 0 {
			continue
		}
		m.Set(strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+1:]))
	}
	return m
}

func (m *Metadata) index(key string) int {
	for i, f := range m.fields {
		if strings.EqualFold(f.Key, key) {
			return i
		}
	}
	return -1
}

// Get returns a header field value by name, or "" when absent.
func (m *Metadata) Get(key string) string {
	v, _ := m.Lookup(key)
	return v
}

// Lookup returns a header field value and whether it is present.
func (m *Metadata) Lookup(key string) (string, bool) {
	if i := m.index(key); i >= 0 {
		return m.fields[i].Value, true
	}
	return "", false
}

// Set replaces a field in place or appends it.
func (m *Metadata) Set(key, value string) {
	if i := m.index(key); i >= 0 {
		m.fields[i].Value = value
		return
	}
	m.fields = append(m.fields, Field{Key: key, Value: value})
}

// Delete removes a field.
func (m *Metadata) Delete(key string) {
	if i := m.index(key); i >= 0 {
		m.fields = append(m.fields[:i], m.fields[i+1:]...)
	}
}

// Fields returns a copy of the fields in order.
func (m *Metadata) Fields() []Field {
	return append([]Field(nil), m.fields...)
}

// Len returns the number of fields.
func (m *Metadata) Len() int {
	return len(m.fields)
}

// Clone returns an independent copy.
func (m Metadata) Clone() Metadata {
	return Metadata{fields: m.Fields()}
}

// String renders the header msgstr.
func (m *Metadata) String() string {
	var b strings.Builder
	for _, f := range m.fields {
		b.WriteString(f.Key)
		b.WriteString(": ")
		b.WriteString(f.Value)
		b.WriteByte('\n')
	}
	return b.String()
}

// Map returns the fields as a map keyed by their original names.
func (m *Metadata) Map() map[string]string {
	out := make(map[string]string, len(m.fields))
	for _, f := range m.fields {
		out[f.Key] = f.Value
	}
	return out
}
