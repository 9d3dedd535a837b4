package kryptos

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// This file contains the strict reader used by every UnmarshalJSON.
//
// encoding/json stops at the first failure of a nested Unmarshaler and knows
// nothing about required keys. Instead, each entity is read from a
// map[string]json.RawMessage one property at a time, and every problem is
// recorded with its full path before moving on to the next property.

// fields is a JSON object being read.
type fields struct {
	r   report
	raw map[string]json.RawMessage
}

// decodeFields parses data as a JSON object. It records a MalformedJSON
// problem and returns nil if data is anything else.
func decodeFields(r report, data []byte) *fields {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		r.add(&Problem{Kind: MalformedJSON, Detail: "expected a JSON object", Err: err})
		return nil
	}
	return &fields{r: r, raw: raw}
}

// decodeWith reads data into a T using decode, and returns every problem met.
func decodeWith[T any](data []byte, decode func(*fields) T) (T, error) {
	r := newReport()
	var v T
	if f := decodeFields(r, data); f != nil {
		v = decode(f)
	}
	return v, r.err()
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

// lookup returns the raw value for key. Absent and null values are reported
// as MissingField when required.
func (f *fields) lookup(key string, required bool) (json.RawMessage, bool) {
	v, ok := f.raw[key]
	if !ok || isNull(v) {
		if required {
			f.r.missing(key)
		}
		return nil, false
	}
	return v, true
}

// nullable returns the raw value for a key that must be present but may be
// null. ok is false for null.
func (f *fields) nullable(key string) (json.RawMessage, bool) {
	v, present := f.raw[key]
	if !present {
		f.r.missing(key)
		return nil, false
	}
	return v, !isNull(v)
}

// has reports whether key holds a non null value.
func (f *fields) has(key string) bool {
	v, ok := f.raw[key]
	return ok && !isNull(v)
}

func (f *fields) scan(key string, v json.RawMessage, into any) bool {
	if err := json.Unmarshal(v, into); err != nil {
		f.r.add(&Problem{Kind: MalformedJSON, Path: joinPath(f.r.path, key), Detail: fmt.Sprintf("wrong JSON type: %v", err), Err: err})
		return false
	}
	return true
}

func (f *fields) String(key string) string {
	var s string
	if v, ok := f.lookup(key, true); ok {
		f.scan(key, v, &s)
	}
	return s
}

func (f *fields) OptString(key string) string {
	var s string
	if v, ok := f.lookup(key, false); ok {
		f.scan(key, v, &s)
	}
	return s
}

func (f *fields) NullString(key string) *string {
	v, ok := f.nullable(key)
	if !ok {
		return nil
	}
	var s string
	if !f.scan(key, v, &s) {
		return nil
	}
	return &s
}

func (f *fields) Bool(key string) bool {
	var b bool
	if v, ok := f.lookup(key, true); ok {
		f.scan(key, v, &b)
	}
	return b
}

func (f *fields) OptBool(key string) *bool {
	v, ok := f.lookup(key, false)
	if !ok {
		return nil
	}
	var b bool
	if !f.scan(key, v, &b) {
		return nil
	}
	return &b
}

func (f *fields) NullBool(key string) *bool {
	v, ok := f.nullable(key)
	if !ok {
		return nil
	}
	var b bool
	if !f.scan(key, v, &b) {
		return nil
	}
	return &b
}

func (f *fields) Int(key string) int64 {
	var i int64
	if v, ok := f.lookup(key, true); ok {
		f.scan(key, v, &i)
	}
	return i
}

func (f *fields) OptInt(key string) *int64 {
	v, ok := f.lookup(key, false)
	if !ok {
		return nil
	}
	var i int64
	if !f.scan(key, v, &i) {
		return nil
	}
	return &i
}

func (f *fields) Float(key string) float64 {
	var x float64
	if v, ok := f.lookup(key, true); ok {
		f.scan(key, v, &x)
	}
	return x
}

func (f *fields) OptFloat(key string) *float64 {
	v, ok := f.lookup(key, false)
	if !ok {
		return nil
	}
	var x float64
	if !f.scan(key, v, &x) {
		return nil
	}
	return &x
}

// parseQuantity reads a decimal from a JSON string or a JSON number literal.
func (f *fields) parseQuantity(key string, v json.RawMessage) (Quantity, bool) {
	text := string(bytes.TrimSpace(v))
	if len(text) > 0 && text[0] == '"' {
		s, err := strconv.Unquote(text)
		if err != nil {
			f.r.add(&Problem{Kind: MalformedJSON, Path: joinPath(f.r.path, key), Detail: "invalid string", Err: err})
			return Quantity{}, false
		}
		text = s
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		f.r.add(&Problem{Kind: InvalidNumericString, Path: joinPath(f.r.path, key), Name: text, Detail: "not a decimal number", Err: err})
		return Quantity{}, false
	}
	return Quantity{value: d}, true
}

func (f *fields) Quantity(key string) Quantity {
	v, ok := f.lookup(key, true)
	if !ok {
		return Quantity{}
	}
	q, _ := f.parseQuantity(key, v)
	return q
}

func (f *fields) OptQuantity(key string) *Quantity {
	v, ok := f.lookup(key, false)
	if !ok {
		return nil
	}
	q, ok := f.parseQuantity(key, v)
	if !ok {
		return nil
	}
	return &q
}

func (f *fields) NullQuantity(key string) *Quantity {
	v, ok := f.nullable(key)
	if !ok {
		return nil
	}
	q, ok := f.parseQuantity(key, v)
	if !ok {
		return nil
	}
	return &q
}

// Strings reads a list of strings. A required list may be empty but not absent.
func (f *fields) Strings(key string, required bool) []string {
	var list []string
	if v, ok := f.lookup(key, required); ok {
		f.scan(key, v, &list)
	}
	return list
}

func (f *fields) StringMap(key string, required bool) map[string]string {
	var m map[string]string
	if v, ok := f.lookup(key, required); ok {
		f.scan(key, v, &m)
	}
	return m
}

// Raw returns an opaque value verbatim, or nil if absent or null.
func (f *fields) Raw(key string) json.RawMessage {
	v, ok := f.lookup(key, false)
	if !ok {
		return nil
	}
	return append(json.RawMessage(nil), bytes.TrimSpace(v)...)
}

// Object returns the nested object under key, or nil if absent or null.
func (f *fields) Object(key string, required bool) *fields {
	v, ok := f.lookup(key, required)
	if !ok {
		return nil
	}
	return decodeFields(f.r.at(key), v)
}

// NullObject returns the nested object under a key that must be present but
// may be null.
func (f *fields) NullObject(key string) *fields {
	v, ok := f.nullable(key)
	if !ok {
		return nil
	}
	return decodeFields(f.r.at(key), v)
}

// Objects returns the objects of the list under key. Elements that are not
// objects are reported and skipped.
func (f *fields) Objects(key string, required bool) []*fields {
	v, ok := f.lookup(key, required)
	if !ok {
		return nil
	}
	var list []json.RawMessage
	if !f.scan(key, v, &list) {
		return nil
	}
	objs := make([]*fields, 0, len(list))
	for i, item := range list {
		if o := decodeFields(f.r.at(key).index(i), item); o != nil {
			objs = append(objs, o)
		}
	}
	return objs
}

// enumField reads a closed enumeration. Unknown values are reported as
// UnknownVariant and returned as is.
func enumField[T enum](f *fields, key string, required bool) T {
	var s string
	if v, ok := f.lookup(key, required); ok {
		f.scan(key, v, &s)
	}
	t := T(s)
	if s != "" && !t.Valid() {
		f.r.add(&Problem{Kind: UnknownVariant, Path: joinPath(f.r.path, key), Name: s})
	}
	return t
}

// optEnum reads an optional enumeration into a pointer.
func optEnum[T enum](f *fields, key string) *T {
	if !f.has(key) {
		return nil
	}
	t := enumField[T](f, key, false)
	return &t
}

// objectList decodes every element of the list under key with decode.
func objectList[T any](f *fields, key string, required bool, decode func(*fields) T) []T {
	objs := f.Objects(key, required)
	if objs == nil {
		return nil
	}
	list := make([]T, 0, len(objs))
	for _, o := range objs {
		list = append(list, decode(o))
	}
	return list
}

// optObject decodes the object under key, if any.
func optObject[T any](f *fields, key string, decode func(*fields) T) *T {
	o := f.Object(key, false)
	if o == nil {
		return nil
	}
	v := decode(o)
	return &v
}

// reqObject decodes the required object under key into a pointer, nil when
// missing.
func reqObject[T any](f *fields, key string, decode func(*fields) T) *T {
	o := f.Object(key, true)
	if o == nil {
		return nil
	}
	v := decode(o)
	return &v
}

// nullObject decodes the object under a present-but-nullable key.
func nullObject[T any](f *fields, key string, decode func(*fields) T) *T {
	o := f.NullObject(key)
	if o == nil {
		return nil
	}
	v := decode(o)
	return &v
}

// object decodes the required object under key.
func object[T any](f *fields, key string, decode func(*fields) T) T {
	var v T
	if o := f.Object(key, true); o != nil {
		v = decode(o)
	}
	return v
}
