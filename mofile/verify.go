package mofile

import (
	"fmt"

	"github.com/leonelquinteros/gotext"

	po "github.com/minios-linux/transx/pofile"
)

// Mismatch is a singular message that an independent gettext runtime
// resolves differently from the source catalog.
type Mismatch struct {
	Key  po.Key
	Want string
	Got  string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%q: want %q, got %q", m.Key.String(), m.Want, m.Got)
}

// Verify loads data with the gotext MO parser and checks that every
// translated singular entry of src resolves to the same text. Plural
// entries are skipped since their lookup depends on Plural-Forms.
// Lookups go through the parsed tables, so message ids are never used
// as format strings.
func Verify(data []byte, src *po.Catalog) []Mismatch {
	mo := gotext.NewMo()
	mo.Parse(data)
	domain := mo.GetDomain()
	plain := domain.GetTranslations()
	withCtx := domain.GetCtxTranslations()

	var bad []Mismatch
	for _, e := range src.Entries() {
		if e.MsgIDPlural != "" || !e.IsTranslated() {
			continue
		}
		tr := plain[e.MsgID]
		if e.MsgCtxt != "" {
			tr = withCtx[e.MsgCtxt][e.MsgID]
		}
		var got string
		if tr != nil {
			got = tr.Trs[0]
		}
		if got != e.MsgStr {
			bad = append(bad, Mismatch{Key: e.Key(), Want: e.MsgStr, Got: got})
		}
	}
	return bad
}
