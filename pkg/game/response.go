package game

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Error code field names used by the backend. Which one an endpoint fills is
// not uniform, see Endpoints.
const (
	FieldErrorCode = "errorCode"
	FieldErrCode   = "errCode"
)

// ErrNoReply marks a request that produced no usable reply: transport
// failure, non-200 status or an unparsable body. It is never fatal.
var ErrNoReply = errors.New("game: no usable reply")

// Response is a decoded reply object. Numbers are kept as json.Number.
type Response map[string]interface{}

// ParseResponse decodes a reply body. A body that is not a JSON object is an error.
func ParseResponse(body []byte) (Response, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var r Response
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("failed to parse reply: %w", err)
	}
	if r == nil {
		return nil, errors.New("failed to parse reply: not an object")
	}
	return r, nil
}

// Code returns the business error code stored in field. When field is absent
// the other known error code field is consulted.
func (r Response) Code(field string) (int64, bool) {
	if v, ok := r.lookupInt(field); ok {
		return v, true
	}
	alt := FieldErrorCode
	if field == FieldErrorCode {
		alt = FieldErrCode
	}
	return r.lookupInt(alt)
}

// Has reports whether key is present.
func (r Response) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// Int returns key as an integer, or 0.
func (r Response) Int(key string) int64 {
	v, _ := r.lookupInt(key)
	return v
}

// IntOK returns key as an integer and whether it was present and numeric.
func (r Response) IntOK(key string) (int64, bool) {
	return r.lookupInt(key)
}

// String returns key as a string. Numbers are formatted.
func (r Response) String(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Bool returns key as a boolean; numbers are true when non-zero.
func (r Response) Bool(key string) bool {
	switch v := r[key].(type) {
	case bool:
		return v
	case json.Number:
		n, err := v.Int64()
		return err == nil && n != 0
	}
	return false
}

// Ints returns key as a slice of integers. Non-numeric entries become 0.
func (r Response) Ints(key string) []int64 {
	arr, ok := r[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]int64, len(arr))
	for i, item := range arr {
		out[i], _ = toInt(item)
	}
	return out
}

// Object returns key as a nested object.
func (r Response) Object(key string) Response {
	if m, ok := r[key].(map[string]interface{}); ok {
		return Response(m)
	}
	return nil
}

// Objects returns key as a slice of nested objects, skipping non-objects.
func (r Response) Objects(key string) []Response {
	arr, ok := r[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]Response, 0, len(arr))
	for _, item := range arr {
		if m, ok := item.(map[string]interface{}); ok {
			out = append(out, Response(m))
		}
	}
	return out
}

// Decode converts the response into a typed value through JSON.
func (r Response) Decode(v interface{}) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to re-encode reply: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode reply: %w", err)
	}
	return nil
}

func (r Response) lookupInt(key string) (int64, bool) {
	v, ok := r[key]
	if !ok {
		return 0, false
	}
	return toInt(v)
}

func toInt(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		if f, err := n.Float64(); err == nil {
			return int64(f), true
		}
	case float64:
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	case string:
		if i, err := strconv.ParseInt(n, 10, 64); err == nil {
			return i, true
		}
	}
	return 0, false
}

// Endpoints maps message ids to the error code field they report.
type Endpoints map[int]string

// DefaultEndpoints lists the endpoints known to use errCode instead of errorCode.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		MsgSignInInfo:    FieldErrCode,
		MsgSignIn:        FieldErrCode,
		MsgSignInWeekend: FieldErrCode,
	}
}

// CodeField returns the error code field for msgID, errorCode by default.
func (e Endpoints) CodeField(msgID int) string {
	if f, ok := e[msgID]; ok && f != "" {
		return f
	}
	return FieldErrorCode
}
