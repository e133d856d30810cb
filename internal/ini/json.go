package ini

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// The editor exchanges the store as JSON: sections are objects, sequence keys
// are arrays and indexed keys are objects keyed by index. Object order is
// significant, so both directions walk the token stream by hand.

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if v.Kind == KindIndexed {
		buf.WriteByte('{')
		for i, e := range v.Entries {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeString(&buf, e.Key)
			buf.WriteByte(':')
			writeString(&buf, e.Value)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	}
	items := v.Items
	if items == nil {
		items = []string{}
	}
	return json.Marshal(items)
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	out, err := decodeValue(dec)
	if err != nil {
		return err
	}
	*v = out
	return nil
}

// MarshalJSON implements json.Marshaler.
func (s *Store) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range s.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeString(&buf, name)
		buf.WriteString(":{")
		sec := s.sections[name]
		for j, k := range sec.keys {
			if j > 0 {
				buf.WriteByte(',')
			}
			writeString(&buf, k)
			buf.WriteByte(':')
			b, err := sec.values[k].MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Store) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	out := NewStore()
	if err := expectDelim(dec, '{'); err != nil {
		return err
	}
	for dec.More() {
		name, err := readKey(dec)
		if err != nil {
			return err
		}
		out.section(name)
		if err := expectDelim(dec, '{'); err != nil {
			return fmt.Errorf("section %q: %w", name, err)
		}
		for dec.More() {
			key, err := readKey(dec)
			if err != nil {
				return err
			}
			v, err := decodeValue(dec)
			if err != nil {
				return fmt.Errorf("section %q key %q: %w", name, key, err)
			}
			out.Set(name, key, v)
		}
		if err := expectDelim(dec, '}'); err != nil {
			return err
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return err
	}
	*s = *out
	return nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '[':
			v := Value{Kind: KindSequence, Items: []string{}}
			for dec.More() {
				s, err := readScalar(dec)
				if err != nil {
					return Value{}, err
				}
				v.Items = append(v.Items, s)
			}
			return v, expectDelim(dec, ']')
		case '{':
			v := Value{Kind: KindIndexed}
			for dec.More() {
				k, err := readKey(dec)
				if err != nil {
					return Value{}, err
				}
				if err := checkIndex(k); err != nil {
					return Value{}, err
				}
				s, err := readScalar(dec)
				if err != nil {
					return Value{}, err
				}
				v.set(k, s)
			}
			return v, expectDelim(dec, '}')
		}
		return Value{}, fmt.Errorf("unexpected %v", t)
	default:
		s, err := scalarString(tok)
		if err != nil {
			return Value{}, err
		}
		return Sequence(s), nil
	}
}

func readScalar(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	return scalarString(tok)
}

func scalarString(tok json.Token) (string, error) {
	switch t := tok.(type) {
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case bool:
		if t {
			return "true", nil
		}
		return "false", nil
	case nil:
		return "", nil
	}
	return "", fmt.Errorf("expected scalar, got %v", tok)
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	k, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}
	return k, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func writeString(buf *bytes.Buffer, s string) {
	b, _ := json.Marshal(s)
	buf.Write(b)
}
