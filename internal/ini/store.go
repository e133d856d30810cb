package ini

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Section keeps its keys in first-seen order so a save reproduces the file layout.
type Section struct {
	Name   string
	keys   []string
	values map[string]Value
}

// Keys returns the key names in order.
func (s *Section) Keys() []string { return append([]string(nil), s.keys...) }

// Value returns the stored value for key.
func (s *Section) Value(key string) (Value, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Store is an ordered INI document. It is not safe for concurrent mutation;
// the engine only ever reads a store once it has been handed over.
type Store struct {
	order    []string
	sections map[string]*Section
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{sections: make(map[string]*Section)}
}

// Sections returns section names in order.
func (s *Store) Sections() []string { return append([]string(nil), s.order...) }

// Section looks up a section by name.
func (s *Store) Section(name string) (*Section, bool) {
	sec, ok := s.sections[name]
	return sec, ok
}

func (s *Store) section(name string) *Section {
	sec, ok := s.sections[name]
	if !ok {
		sec = &Section{Name: name, values: make(map[string]Value)}
		s.sections[name] = sec
		s.order = append(s.order, name)
	}
	return sec
}

// Set replaces the value stored under section/key.
func (s *Store) Set(section, key string, v Value) {
	sec := s.section(section)
	if _, ok := sec.values[key]; !ok {
		sec.keys = append(sec.keys, key)
	}
	sec.values[key] = v
}

// Lookup returns the raw value under section/key.
func (s *Store) Lookup(section, key string) (Value, bool) {
	sec, ok := s.sections[section]
	if !ok {
		return Value{}, false
	}
	return sec.Value(key)
}

// Get resolves section/key to an ordered list of raw strings. When the key is
// absent def is returned unchanged.
func (s *Store) Get(section, key string, def []string) []string {
	if s == nil {
		return def
	}
	v, ok := s.Lookup(section, key)
	if !ok {
		return def
	}
	return Densify(v)
}

// Clone returns a deep copy.
func (s *Store) Clone() *Store {
	out := NewStore()
	for _, name := range s.order {
		sec := s.sections[name]
		dst := out.section(name)
		for _, k := range sec.keys {
			v := sec.values[k]
			cp := Value{Kind: v.Kind}
			cp.Items = append(cp.Items, v.Items...)
			cp.Entries = append(cp.Entries, v.Entries...)
			dst.keys = append(dst.keys, k)
			dst.values[k] = cp
		}
	}
	return out
}

// CheckIndices reports the first indexed entry whose key is not an integer
// in 0..MaxIndex. Such keys cannot be written as Key[N]=V and read back.
func (s *Store) CheckIndices() error {
	for _, name := range s.order {
		sec := s.sections[name]
		for _, k := range sec.keys {
			v := sec.values[k]
			if v.Kind != KindIndexed {
				continue
			}
			for _, e := range v.Entries {
				n, err := strconv.Atoi(e.Key)
				if err != nil || n < 0 || n > MaxIndex {
					return fmt.Errorf("section %q key %q: %w: %q must be an integer in 0..%d", name, k, ErrIndexRange, e.Key, MaxIndex)
				}
			}
		}
	}
	return nil
}

var (
	sectionRe = regexp.MustCompile(`^\[(.*)\]`)
	arrayRe   = regexp.MustCompile(`^(.*)\[(\d+)\]`)
)

// Parse reads an INI document. Text after ';' is a comment. Key[N]=V lines
// build an indexed value, repeated Key=V lines build a sequence, and keys that
// appear before any section header are dropped.
func Parse(r io.Reader) (*Store, error) {
	s := NewStore()
	var cur *Section
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line, _, _ := strings.Cut(sc.Text(), ";")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := sectionRe.FindStringSubmatch(line); m != nil {
			cur = s.section(m[1])
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok || cur == nil {
			continue
		}
		key, val = strings.TrimSpace(key), strings.TrimSpace(val)
		if m := arrayRe.FindStringSubmatch(key); m != nil {
			if err := checkIndex(m[2]); err != nil {
				return nil, fmt.Errorf("section %q key %q: %w", cur.Name, key, err)
			}
			idx, err := strconv.Atoi(m[2])
			if err != nil {
				return nil, fmt.Errorf("section %q key %q: bad index: %w", cur.Name, key, err)
			}
			v, exists := cur.values[m[1]]
			if !exists || v.Kind != KindIndexed {
				if !exists {
					cur.keys = append(cur.keys, m[1])
				}
				v = Value{Kind: KindIndexed}
			}
			v.set(strconv.Itoa(idx), val)
			cur.values[m[1]] = v
			continue
		}
		v, exists := cur.values[key]
		if !exists || v.Kind != KindSequence {
			if !exists {
				cur.keys = append(cur.keys, key)
			}
			v = Value{Kind: KindSequence}
		}
		v.Items = append(v.Items, val)
		cur.values[key] = v
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

// ParseString is Parse over an in-memory document.
func ParseString(text string) (*Store, error) {
	return Parse(strings.NewReader(text))
}

// Format renders the store back to INI text. Indexed keys are written in
// ascending index order and every section is followed by a blank line.
func Format(s *Store) string {
	var lines []string
	for _, name := range s.order {
		sec := s.sections[name]
		lines = append(lines, "["+name+"]")
		for _, k := range sec.keys {
			v := sec.values[k]
			switch v.Kind {
			case KindIndexed:
				for _, e := range sortedEntries(v.Entries) {
					lines = append(lines, fmt.Sprintf("%s[%s]=%s", k, e.Key, e.Value))
				}
			default:
				for _, item := range v.Items {
					lines = append(lines, k+"="+item)
				}
			}
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// sortedEntries orders entries numerically; non-numeric keys keep their
// insertion order after the numeric ones.
func sortedEntries(es []IndexEntry) []IndexEntry {
	out := append([]IndexEntry(nil), es...)
	sort.SliceStable(out, func(i, j int) bool {
		a, errA := strconv.Atoi(out[i].Key)
		b, errB := strconv.Atoi(out[j].Key)
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		default:
			return false
		}
	})
	return out
}
