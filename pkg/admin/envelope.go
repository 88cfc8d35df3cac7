package admin

import (
	"bytes"
	"encoding/json"

	"github.com/tidwall/gjson"
)

// Envelope is a response body resolved into its payload.
type Envelope struct {
	Payload    json.RawMessage
	Pagination *PageInfo
	// Structured is true when the body used the {success, data} form.
	Structured bool
}

// UnwrapEnvelope resolves a response body into its payload. Priority:
//
//  1. Structured: a JSON object whose "success" is truthy and whose "data"
//     is truthy. The payload is "data" and "pagination" is read if present.
//  2. Bare: anything else; the whole body is the payload.
//
// An empty body resolves to a null payload.
func UnwrapEnvelope(body []byte) Envelope {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return Envelope{}
	}

	if gjson.ValidBytes(trimmed) {
		parsed := gjson.ParseBytes(trimmed)
		if parsed.IsObject() && truthy(parsed.Get("success")) && truthy(parsed.Get("data")) {
			return Envelope{
				Payload:    json.RawMessage(parsed.Get("data").Raw),
				Pagination: parsePageInfo(parsed.Get("pagination")),
				Structured: true,
			}
		}
	}

	return Envelope{Payload: json.RawMessage(trimmed)}
}

// DecodeList decodes a list payload. A null payload is an empty collection;
// any other non-array payload is an empty collection plus a
// ShapeMismatchError describing what arrived instead.
func DecodeList(entity string, payload json.RawMessage) ([]Record, *ShapeMismatchError) {
	records := []Record{}

	parsed := gjson.ParseBytes(payload)
	if len(bytes.TrimSpace(payload)) == 0 || parsed.Type == gjson.Null {
		return records, nil
	}

	if !parsed.IsArray() {
		return records, &ShapeMismatchError{Entity: entity, Expected: "array", Got: kindOf(parsed)}
	}

	err := decodeJSON(payload, &records)
	if err != nil {
		return []Record{}, &ShapeMismatchError{Entity: entity, Expected: "array of objects", Got: "array"}
	}

	return records, nil
}

// DecodeRecord decodes a single-record payload. A null payload decodes to a
// nil record; a non-object payload decodes to a nil record plus a
// ShapeMismatchError.
func DecodeRecord(entity string, payload json.RawMessage) (Record, *ShapeMismatchError) {
	parsed := gjson.ParseBytes(payload)
	if len(bytes.TrimSpace(payload)) == 0 || parsed.Type == gjson.Null {
		return nil, nil
	}

	if !parsed.IsObject() {
		return nil, &ShapeMismatchError{Entity: entity, Expected: "object", Got: kindOf(parsed)}
	}

	var record Record

	err := decodeJSON(payload, &record)
	if err != nil {
		return nil, &ShapeMismatchError{Entity: entity, Expected: "object", Got: "malformed JSON"}
	}

	return record, nil
}

// truthy mirrors how the backend's JavaScript clients test envelope fields.
func truthy(value gjson.Result) bool {
	switch value.Type {
	case gjson.True, gjson.JSON:
		return true
	case gjson.Number:
		return value.Num != 0
	case gjson.String:
		return value.Str != ""
	default:
		return false
	}
}

func parsePageInfo(value gjson.Result) *PageInfo {
	if !value.IsObject() {
		return nil
	}

	return &PageInfo{
		Page:  int(value.Get("page").Int()),
		Limit: int(value.Get("limit").Int()),
		Total: int(value.Get("total").Int()),
		Pages: int(value.Get("pages").Int()),
	}
}

func kindOf(value gjson.Result) string {
	switch {
	case value.IsObject():
		return "object"
	case value.IsArray():
		return "array"
	}

	switch value.Type {
	case gjson.String:
		return "string"
	case gjson.Number:
		return "number"
	case gjson.True, gjson.False:
		return "boolean"
	case gjson.Null:
		return "null"
	default:
		return "invalid JSON"
	}
}
