package translate

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/kailas-cloud/esquery/internal/domain/kind"
)

// Placeholders written for values JSON cannot represent, so that such
// inputs still hash deterministically. The encoder escapes every control
// character, so a raw NUL never appears in an encoded string.
const (
	nanPlaceholder       = "\x00NaN"
	functionPlaceholder  = "\x00function"
	undefinedPlaceholder = "\x00undefined"
)

// CacheKey returns the content hash of (filter, idAlias). Object keys are
// sorted at every level, so key order never changes the hash.
func CacheKey(filter any, idAlias string) string {
	var buf bytes.Buffer
	buf.WriteString(`{"alias":`)
	writeJSON(&buf, idAlias)
	buf.WriteString(`,"query":`)
	canonicalize(&buf, filter)
	buf.WriteByte('}')

	h := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(h[:])
}

func canonicalize(buf *bytes.Buffer, v any) {
	switch kind.Of(v) {
	case kind.NotANumber:
		buf.WriteString(nanPlaceholder)
	case kind.Undefined:
		if v == kind.UndefinedValue {
			buf.WriteString(undefinedPlaceholder)
		} else {
			buf.WriteString(functionPlaceholder)
		}
	case kind.Array:
		items, _ := kind.AsArray(v)
		buf.WriteByte('[')
		for i, item := range items {
			if i > 0 {
				buf.WriteByte(',')
			}
			canonicalize(buf, item)
		}
		buf.WriteByte(']')
	case kind.Object:
		if !kind.IsMap(v) {
			// structs such as time.Time hash by their JSON form
			writeJSON(buf, v)
			return
		}
		obj, _ := kind.AsObject(v)
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeJSON(buf, k)
			buf.WriteByte(':')
			canonicalize(buf, obj[k])
		}
		buf.WriteByte('}')
	default:
		writeJSON(buf, v)
	}
}

func writeJSON(buf *bytes.Buffer, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		b, _ = json.Marshal(fmt.Sprintf("%v", v))
	}
	buf.Write(b)
}
