// Package structtext reads and writes the inline struct syntax used by the
// game's config files: (Key=Value,Key2=Value2) with an optional trailing
// ";comment".
package structtext

import (
	"strings"
)

// Field is one Key=Value pair.
type Field struct {
	Key   string
	Value string
}

// Struct is a parsed struct literal. Fields keep first-seen order; a repeated
// key updates the value in place. Malformed lists segments that had no '='.
type Struct struct {
	Fields    []Field
	Malformed []string
}

// Parse decodes text. Everything from the first ';' on is dropped, then the
// surrounding whitespace and parentheses. Empty segments are skipped silently.
func Parse(text string) Struct {
	body, _, _ := strings.Cut(text, ";")
	body = strings.Trim(strings.TrimSpace(body), "()")

	var s Struct
	for _, seg := range strings.Split(body, ",") {
		k, v, ok := strings.Cut(seg, "=")
		if !ok {
			if t := strings.TrimSpace(seg); t != "" {
				s.Malformed = append(s.Malformed, t)
			}
			continue
		}
		s.Set(strings.TrimSpace(k), strings.TrimSpace(v))
	}
	return s
}

// Get returns the value for key.
func (s Struct) Get(key string) (string, bool) {
	for _, f := range s.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Has reports whether key is present.
func (s Struct) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Set updates key in place or appends it.
func (s *Struct) Set(key, value string) {
	for i := range s.Fields {
		if s.Fields[i].Key == key {
			s.Fields[i].Value = value
			return
		}
	}
	s.Fields = append(s.Fields, Field{Key: key, Value: value})
}

// Map copies the fields into a plain map.
func (s Struct) Map() map[string]string {
	m := make(map[string]string, len(s.Fields))
	for _, f := range s.Fields {
		m[f.Key] = f.Value
	}
	return m
}

// Clone returns a copy that can be modified independently.
func (s Struct) Clone() Struct {
	return Struct{
		Fields:    append([]Field(nil), s.Fields...),
		Malformed: append([]string(nil), s.Malformed...),
	}
}

// Format renders fields as (K=V,K2=V2).
func Format(fields []Field) string {
	var b strings.Builder
	b.WriteByte('(')
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(f.Key)
		b.WriteByte('=')
		b.WriteString(f.Value)
	}
	b.WriteByte(')')
	return b.String()
}

// String formats s.
func (s Struct) String() string { return Format(s.Fields) }

// LooksLikeStruct reports whether a raw config value is written as a struct.
func LooksLikeStruct(raw string) bool {
	raw = strings.TrimSpace(raw)
	return strings.HasPrefix(raw, "(") && strings.HasSuffix(raw, ")")
}
