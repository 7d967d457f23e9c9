package mcp

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// Normalize flattens a tool result of unknown shape into a single string
// suitable as tool-message content. The shape set is closed:
//
//  1. an object with a non-empty "content" array (the usual MCP result)
//     yields the first block's "text" verbatim when it has one, otherwise
//     the indented JSON of the content array;
//  2. any other object yields its indented JSON;
//  3. a non-object (primitive, string, nil) yields its JSON literal.
//
// The first human-readable text block is the common case of a textual tool
// answer; the JSON fallbacks are lossless for everything else.
func Normalize(result any) string {
	raw, err := json.Marshal(result)
	if err != nil {
		// Not JSON-serializable; fall back to its string representation.
		raw, _ = json.Marshal(fmt.Sprint(result))
	}

	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return string(raw)
	}

	content := root.Get("content")
	if content.IsArray() {
		items := content.Array()
		if len(items) > 0 {
			if text := items[0].Get("text"); text.Exists() && items[0].IsObject() {
				return text.String()
			}
			return indent([]byte(content.Raw))
		}
	}

	return indent(raw)
}

func indent(raw []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
