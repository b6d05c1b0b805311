package icx

import (
	"fmt"
	"sort"
	"strings"
)

var escaper = strings.NewReplacer(
	`\`, `\\`,
	`.`, `\.`,
	`{`, `\{`,
	`}`, `\}`,
	`[`, `\[`,
	`]`, `\]`,
)

// Serialize renders transaction params in ICON's signing form: keys
// sorted, key and value joined by dots, objects in braces, arrays in
// brackets, special characters backslash-escaped and null as \0. The
// top level object has no braces.
func Serialize(params map[string]any) string {
	var b strings.Builder
	writeObject(&b, params)
	return b.String()
}

func writeObject(b *strings.Builder, m map[string]any) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(k)
		b.WriteByte('.')
		writeValue(b, m[k])
	}
}

func writeValue(b *strings.Builder, v any) {
	switch t := v.(type) {
	case nil:
		b.WriteString(`\0`)
	case map[string]any:
		b.WriteByte('{')
		writeObject(b, t)
		b.WriteByte('}')
	case []any:
		b.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				b.WriteByte('.')
			}
			writeValue(b, e)
		}
		b.WriteByte(']')
	case string:
		b.WriteString(escaper.Replace(t))
	default:
		b.WriteString(escaper.Replace(fmt.Sprint(t)))
	}
}
