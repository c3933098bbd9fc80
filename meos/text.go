package meos

import "github.com/chazu/meosbind/meosrt"

// TextsetMakeStrings builds a text set from Go strings. Each string is
// converted with Cstring2text; the intermediate text values are released
// before it returns.
func (lib *Library) TextsetMakeStrings(values []string) (*meosrt.Owned, error) {
	texts := make([]*meosrt.Owned, 0, len(values))
	defer func() {
		for _, t := range texts {
			t.Release()
		}
	}()
	ptrs := make([]meosrt.Pointer, len(values))
	for i, v := range values {
		t, err := lib.Cstring2text(v)
		if err != nil {
			return nil, err
		}
		texts = append(texts, t)
		ptrs[i] = t
	}
	return lib.TextsetMake(ptrs)
}
