// resolve.go
package config

import "github.com/xtding233/alienpod-sim/internal/ini"

// Resolve layers a draft over base: every key present in draft replaces the
// base value wholesale, keys only in base are kept. Neither input is modified.
// A nil draft yields a copy of base.
func Resolve(base, draft *ini.Store) *ini.Store {
	var out *ini.Store
	if base == nil {
		out = ini.NewStore()
	} else {
		out = base.Clone()
	}
	if draft == nil {
		return out
	}
	d := draft.Clone()
	for _, name := range d.Sections() {
		sec, _ := d.Section(name)
		for _, key := range sec.Keys() {
			v, _ := sec.Value(key)
			out.Set(name, key, v)
		}
	}
	return out
}
