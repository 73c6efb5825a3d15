// Package game implements the vendor wire protocol: the form-encoded
// msg_id/msg envelope, the ordered JSON payload and the HTTP transport.
package game

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Payload is an insertion-ordered key/value object. The vendor backend
// receives the JSON exactly as the official client lays it out, so key order
// is part of the wire format.
type Payload struct {
	keys   []string
	values map[string]interface{}
}

// NewPayload creates an empty payload.
func NewPayload() *Payload {
	return &Payload{values: make(map[string]interface{})}
}

// Set stores value under key. Existing keys keep their position.
func (p *Payload) Set(key string, value interface{}) *Payload {
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
	return p
}

// Get returns the value stored under key.
func (p *Payload) Get(key string) (interface{}, bool) {
	v, ok := p.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (p *Payload) Keys() []string {
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Len returns the number of keys.
func (p *Payload) Len() int {
	return len(p.keys)
}

// Clone returns a shallow copy that can be extended without touching p.
func (p *Payload) Clone() *Payload {
	c := &Payload{
		keys:   make([]string, len(p.keys)),
		values: make(map[string]interface{}, len(p.values)),
	}
	copy(c.keys, p.keys)
	for k, v := range p.values {
		c.values[k] = v
	}
	return c
}

// Merge appends key/value pairs given as alternating arguments.
// It panics on an odd argument count or a non-string key, which is a programming error.
func (p *Payload) Merge(kvs ...interface{}) *Payload {
	if len(kvs)%2 != 0 {
		panic("game: Payload.Merge requires key/value pairs")
	}
	for i := 0; i < len(kvs); i += 2 {
		key, ok := kvs[i].(string)
		if !ok {
			panic(fmt.Sprintf("game: Payload.Merge key %v is not a string", kvs[i]))
		}
		p.Set(key, kvs[i+1])
	}
	return p
}

// MarshalJSON renders the payload with ", " and ": " separators, non-ASCII
// text left as UTF-8 and no HTML escaping, matching the official client.
func (p *Payload) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range p.keys {
		if i > 0 {
			buf.WriteString(", ")
		}
		k, err := encodeValue(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteString(": ")

		v, err := encodeValue(p.values[key])
		if err != nil {
			return nil, fmt.Errorf("failed to encode payload field %s: %w", key, err)
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func encodeValue(v interface{}) ([]byte, error) {
	if nested, ok := v.(*Payload); ok {
		return nested.MarshalJSON()
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
