// Package mofile compiles PO catalogs into the GNU gettext binary MO
// format and reads MO files back.
//
// Layout (all words uint32, little-endian on write):
//
//	0   magic 0x950412de
//	4   file format revision (0)
//	8   number of strings N
//	12  offset of original strings table (28)
//	16  offset of translated strings table (28 + 8N)
//	20  hash table size (0)
//	24  hash table offset (0)
//	28  N (length, offset) pairs for originals, then N for translations,
//	    then the NUL-terminated originals, then the NUL-terminated translations
package mofile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	po "github.com/minios-linux/transx/pofile"
)

const (
	// Magic is the MO magic number as read in the file's own byte order.
	Magic uint32 = 0x950412de
	// magicSwapped is Magic read with the wrong byte order.
	magicSwapped uint32 = 0xde120495

	headerSize = 28
)

// ErrFormat reports structurally invalid MO data. It is never recovered
// from inside this package.
var ErrFormat = errors.New("mofile: invalid MO data")

// requiredFields are injected into the compiled header when the catalog
// lacks them, in this order of precedence for defaults.
var requiredFields = []po.Field{
	{Key: po.FieldProjectIDVersion, Value: "1.0"},
	{Key: po.FieldPOTCreationDate, Value: "YEAR-MO-DA HO:MI+ZONE"},
	{Key: po.FieldPORevisionDate, Value: "YEAR-MO-DA HO:MI+ZONE"},
	{Key: po.FieldLastTranslator, Value: "FULL NAME <EMAIL@ADDRESS>"},
	{Key: po.FieldLanguageTeam, Value: "LANGUAGE <LL@li.org>"},
	{Key: po.FieldMIMEVersion, Value: "1.0"},
	{Key: po.FieldContentType, Value: "text/plain; charset=UTF-8"},
	{Key: po.FieldTransferEncoding, Value: "8bit"},
	{Key: po.FieldLanguage, Value: "en_US"},
}

type options struct {
	skipUntranslated bool
	useFuzzy         bool
}

// Option tunes Compile.
type Option func(*options)

// SkipUntranslated drops entries with empty translations and fuzzy
// entries, as msgfmt does.
func SkipUntranslated() Option {
	return func(o *options) { o.skipUntranslated = true }
}

// WithFuzzy keeps fuzzy entries when SkipUntranslated is set
// (msgfmt --use-fuzzy).
func WithFuzzy() Option {
	return func(o *options) { o.useFuzzy = true }
}

type message struct {
	id  []byte
	str []byte
}

// Header renders the header msgstr compiled as entry zero: the catalog's
// fields plus defaults for required ones, sorted by key.
func Header(cat *po.Catalog) string {
	fields := cat.Metadata.Map()
	for _, f := range requiredFields {
		if v, ok := cat.Metadata.Lookup(f.Key); ok && v != "" {
			continue
		}
		for k := range fields {
			if strings.EqualFold(k, f.Key) {
				delete(fields, k)
			}
		}
		fields[f.Key] = f.Value
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(fields[k])
		b.WriteByte('\n')
	}
	return b.String()
}

// Compile encodes cat as MO data. Output is byte-identical for equal
// catalogs: entries are sorted by their raw id bytes and no timestamps
// are generated. Every active entry is written, so Read returns the
// same (id, context, translation) triples; obsolete entries never are.
func Compile(cat *po.Catalog, opts ...Option) ([]byte, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	msgs := []message{{id: nil, str: []byte(Header(cat))}}
	for _, e := range cat.Entries() {
		str := translation(e)
		if o.skipUntranslated {
			if e.IsFuzzy() && !o.useFuzzy {
				continue
			}
			if strings.Trim(str, "\x00") == "" {
				continue
			}
		}
		if strings.Contains(e.MsgID, "\x00") || strings.Contains(e.MsgCtxt, "\x00") {
			return nil, fmt.Errorf("msgid %q: NUL byte is not allowed", e.MsgID)
		}
		id := e.Key().String()
		if e.MsgIDPlural != "" {
			id += "\x00" + e.MsgIDPlural
		}
		msgs = append(msgs, message{id: []byte(id), str: []byte(str)})
	}

	sort.SliceStable(msgs, func(i, j int) bool {
		return bytes.Compare(msgs[i].id, msgs[j].id) < 0
	})

	return encode(msgs), nil
}

// translation joins plural forms with NUL, as the MO format stores them.
func translation(e *po.Entry) string {
	if e.MsgIDPlural == "" {
		return e.MsgStr
	}
	if len(e.MsgStrPlural) == 0 {
		return e.MsgStr
	}
	maxIdx := 0
	for idx := range e.MsgStrPlural {
		maxIdx = max(maxIdx, idx)
	}
	forms := make([]string, maxIdx+1)
	for idx, v := range e.MsgStrPlural {
		forms[idx] = v
	}
	return strings.Join(forms, "\x00")
}

func encode(msgs []message) []byte {
	n := uint32(len(msgs))
	origOff := uint32(headerSize)
	transOff := origOff + 8*n
	keyStart := transOff + 8*n

	var ids, strs bytes.Buffer
	origTable := make([]uint32, 0, 2*n)
	transTable := make([]uint32, 0, 2*n)
	for _, m := range msgs {
		origTable = append(origTable, uint32(len(m.id)), uint32(ids.Len()))
		ids.Write(m.id)
		ids.WriteByte(0)
	}
	valueStart := keyStart + uint32(ids.Len())
	for _, m := range msgs {
		transTable = append(transTable, uint32(len(m.str)), valueStart+uint32(strs.Len()))
		strs.Write(m.str)
		strs.WriteByte(0)
	}
	for i := 1; i < len(origTable); i += 2 {
		origTable[i] += keyStart
	}

	out := make([]byte, 0, int(valueStart)+strs.Len())
	for _, w := range []uint32{Magic, 0, n, origOff, transOff, 0, 0} {
		out = binary.LittleEndian.AppendUint32(out, w)
	}
	for _, w := range origTable {
		out = binary.LittleEndian.AppendUint32(out, w)
	}
	for _, w := range transTable {
		out = binary.LittleEndian.AppendUint32(out, w)
	}
	out = append(out, ids.Bytes()...)
	out = append(out, strs.Bytes()...)
	return out
}

// WriteFile compiles cat and writes it to path, creating parent directories.
func WriteFile(path string, cat *po.Catalog, opts ...Option) error {
	data, err := Compile(cat, opts...)
	if err != nil {
		return fmt.Errorf("compiling %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// CompileFile compiles the PO file at poPath into moPath.
func CompileFile(poPath, moPath string, opts ...Option) (*po.Catalog, error) {
	cat, err := po.ParseFile(poPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", poPath, err)
	}
	if err := WriteFile(moPath, cat, opts...); err != nil {
		return nil, err
	}
	return cat, nil
}

// ---------------------------------------------------------------------------
// Reading
// ---------------------------------------------------------------------------

// Read decodes MO data in either byte order. A bad magic number or a
// truncated header/table area is an ErrFormat; a string pair pointing
// outside the data ends the read at that entry.
func Read(data []byte) (*po.Catalog, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrFormat, len(data))
	}

	var order binary.ByteOrder
	switch binary.LittleEndian.Uint32(data) {
	case Magic:
		order = binary.LittleEndian
	case magicSwapped:
		order = binary.BigEndian
	default:
		return nil, fmt.Errorf("%w: bad magic 0x%08x", ErrFormat, binary.LittleEndian.Uint32(data))
	}

	revision := order.Uint32(data[4:])
	if revision>>16 > 1 {
		return nil, fmt.Errorf("%w: unsupported revision %d", ErrFormat, revision>>16)
	}
	n := uint64(order.Uint32(data[8:]))
	origOff := uint64(order.Uint32(data[12:]))
	transOff := uint64(order.Uint32(data[16:]))
	size := uint64(len(data))
	if origOff+8*n > size || transOff+8*n > size {
		return nil, fmt.Errorf("%w: string tables for %d entries exceed %d bytes", ErrFormat, n, size)
	}

	cat := po.New()
	for i := uint64(0); i < n; i++ {
		id, ok := stringAt(data, order, origOff+8*i)
		if !ok {
			break
		}
		str, ok := stringAt(data, order, transOff+8*i)
		if !ok {
			break
		}
		addMessage(cat, id, str)
	}
	return cat, nil
}

// ReadFrom reads all of r and decodes it.
func ReadFrom(r io.Reader) (*po.Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading MO data: %w", err)
	}
	return Read(data)
}

// ReadFile decodes the MO file at path.
func ReadFile(path string) (*po.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cat, err := Read(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cat, nil
}

func stringAt(data []byte, order binary.ByteOrder, tableOff uint64) (string, bool) {
	length := uint64(order.Uint32(data[tableOff:]))
	off := uint64(order.Uint32(data[tableOff+4:]))
	if off+length > uint64(len(data)) {
		return "", false
	}
	return string(data[off : off+length]), true
}

func addMessage(cat *po.Catalog, id, str string) {
	if id == "" {
		cat.Metadata = po.ParseMetadata(str)
		return
	}

	e := &po.Entry{}
	if singular, plural, ok := strings.Cut(id, "\x00"); ok {
		id = singular
		e.MsgIDPlural = plural
		e.MsgStrPlural = make(map[int]string)
		for i, form := range strings.Split(str, "\x00") {
			e.MsgStrPlural[i] = form
		}
	} else {
		e.MsgStr = str
	}
	key := po.SplitKey(id)
	e.MsgID, e.MsgCtxt = key.ID, key.Context
	// Entries rejected by the catalog (empty id after a context) are dropped.
	_, _ = cat.Add(e)
}
