package dotenv

import (
	"sort"
	"strings"

	"github.com/envil-dev/envil/schema"
)

// bucketOrder fixes the serialization order of sections.
var bucketOrder = []string{"server", "client", "shared"}

// Encode serializes a document deterministically: entries grouped by resolved
// bucket, sorted by source line then key, each bucket introduced by its
// section header. Decoding the output reproduces every directive and prefix
// of the input.
func Encode(doc *Document) string {
	grouped := make(map[string][]Entry, len(bucketOrder))
	for _, e := range doc.Entries {
		b := e.Bucket()
		grouped[b] = append(grouped[b], e)
	}
	for _, entries := range grouped {
		sort.SliceStable(entries, func(i, j int) bool {
			if entries[i].Line != entries[j].Line {
				return entries[i].Line < entries[j].Line
			}
			return entries[i].Key < entries[j].Key
		})
	}

	var b strings.Builder
	for i, bucket := range bucketOrder {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("# @" + bucket)
		if p := doc.Prefixes[bucket]; p != "" {
			b.WriteString(" " + p)
		}
		b.WriteString("\n")

		for _, e := range grouped[bucket] {
			writeDirectiveLines(&b, e.Directives)
			b.WriteString(e.Key + "=" + quoteValue(e.Value) + "\n")
		}
	}
	return b.String()
}

// writeDirectiveLines emits the entry's directive comments in fixed order:
// type, optional, no-default, redacted.
func writeDirectiveLines(b *strings.Builder, d Directives) {
	if d.Type == schema.KindStringEnum {
		b.WriteString("# @type enum " + strings.Join(d.EnumValues, ",") + "\n")
	} else if d.Type != "" {
		b.WriteString("# @type " + string(d.Type) + "\n")
	}
	if d.Optional {
		b.WriteString("# @optional\n")
	}
	if d.NoDefault {
		b.WriteString("# @no-default\n")
	}
	if d.Redacted {
		b.WriteString("# @redacted\n")
	}
}

func quoteValue(v string) string {
	if !strings.ContainsAny(v, " \t#") {
		return v
	}
	escaped := strings.ReplaceAll(v, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	return `"` + escaped + `"`
}
