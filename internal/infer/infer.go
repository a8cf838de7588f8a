// Package infer derives a schema model from a parsed dotenv document:
// per-variable kind, bucket, default value and flags, using the literal value
// and key name as heuristics unless directives say otherwise.
package infer

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/envil-dev/envil/env"
	"github.com/envil-dev/envil/internal/dotenv"
	"github.com/envil-dev/envil/schema"
)

// Variable is one inferred schema row.
type Variable struct {
	SchemaKey  string
	RuntimeKey string
	Bucket     env.Bucket
	Kind       schema.Kind
	Optional   bool
	HasDefault bool
	Default    any
	Redacted   bool
	Line       int
	EnumValues []string
}

// Model is the full inference output, sorted by bucket then schema key so
// generated source is stable.
type Model struct {
	Prefixes  env.Prefixes
	Variables []Variable
}

// DuplicateKeyError reports two entries resolving to the same bucket and
// schema key.
type DuplicateKeyError struct {
	Bucket env.Bucket
	Key    string
	Line   int
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate variable %q in bucket %q (line %d)", e.Key, e.Bucket, e.Line)
}

// Build infers a model from doc using the resolved prefix table.
func Build(doc *dotenv.Document, prefixes env.Prefixes) (*Model, error) {
	model := &Model{Prefixes: prefixes}
	seen := make(map[string]int)

	for _, entry := range doc.Entries {
		v := inferVariable(entry, prefixes)

		dedupeKey := string(v.Bucket) + "\x00" + v.SchemaKey
		if _, dup := seen[dedupeKey]; dup {
			return nil, &DuplicateKeyError{Bucket: v.Bucket, Key: v.SchemaKey, Line: v.Line}
		}
		seen[dedupeKey] = v.Line
		model.Variables = append(model.Variables, v)
	}

	sort.SliceStable(model.Variables, func(i, j int) bool {
		a, b := model.Variables[i], model.Variables[j]
		if a.Bucket != b.Bucket {
			return bucketRank(a.Bucket) < bucketRank(b.Bucket)
		}
		return a.SchemaKey < b.SchemaKey
	})
	return model, nil
}

func bucketRank(b env.Bucket) int {
	switch b {
	case env.BucketClient:
		return 1
	case env.BucketShared:
		return 2
	default:
		return 0
	}
}

func inferVariable(entry dotenv.Entry, prefixes env.Prefixes) Variable {
	bucket, schemaKey := resolveBucket(entry, prefixes)

	// An entry written without its bucket prefix still resolves to the
	// prefixed name at runtime.
	runtimeKey := entry.Key
	if p := prefixes.For(bucket); p != "" && !strings.HasPrefix(entry.Key, p) {
		runtimeKey = p + schemaKey
	}

	v := Variable{
		SchemaKey:  schemaKey,
		RuntimeKey: runtimeKey,
		Bucket:     bucket,
		Optional:   entry.Directives.Optional,
		Redacted:   entry.Directives.Redacted,
		Line:       entry.Line,
	}

	value := strings.TrimSpace(entry.Value)
	if entry.Directives.Type != "" {
		v.Kind = entry.Directives.Type
		v.EnumValues = entry.Directives.EnumValues
	} else {
		v.Kind = inferKind(entry.Key, value)
	}

	if value != "" && !entry.Directives.NoDefault {
		v.HasDefault = true
		v.Default = deriveDefault(v.Kind, value)
	}
	return v
}

// resolveBucket applies the precedence: explicit @bucket, active section,
// longest matching configured prefix, server. When a prefix match decides the
// bucket, the schema key is the runtime key with that prefix stripped, unless
// stripping would leave nothing.
func resolveBucket(entry dotenv.Entry, prefixes env.Prefixes) (env.Bucket, string) {
	if entry.Directives.Bucket != "" {
		b := env.Bucket(entry.Directives.Bucket)
		return b, stripPrefix(entry.Key, prefixes.For(b))
	}
	if entry.Section != "" {
		b := env.Bucket(entry.Section)
		return b, stripPrefix(entry.Key, prefixes.For(b))
	}

	var (
		best       env.Bucket
		bestPrefix string
	)
	for _, b := range env.Buckets() {
		p := prefixes.For(b)
		if p != "" && strings.HasPrefix(entry.Key, p) && len(p) > len(bestPrefix) {
			best = b
			bestPrefix = p
		}
	}
	if bestPrefix != "" {
		return best, stripPrefix(entry.Key, bestPrefix)
	}
	return env.BucketServer, entry.Key
}

func stripPrefix(key, prefix string) string {
	if prefix == "" || !strings.HasPrefix(key, prefix) {
		return key
	}
	if stripped := key[len(prefix):]; stripped != "" {
		return stripped
	}
	// a key that is exactly the prefix keeps its full name
	return key
}

// inferKind guesses a schema kind from the literal value, in fixed priority
// order: JSON literal, database URL, comma-separated (numbers, URLs, plain),
// bare URL, boolean, integer (port when the key name says so), number,
// string.
func inferKind(key, value string) schema.Kind {
	if isJSONLiteral(value) {
		return schema.KindJSON
	}

	switch {
	case hasAnyPrefix(value, "postgres://", "postgresql://"):
		return schema.KindPostgresURL
	case hasAnyPrefix(value, "redis://", "rediss://"):
		return schema.KindRedisURL
	case hasAnyPrefix(value, "mongodb://", "mongodb+srv://"):
		return schema.KindMongoURL
	case hasAnyPrefix(value, "mysql://", "mysqls://"):
		return schema.KindMySQLURL
	}

	if strings.Contains(value, ",") {
		parts := splitTrim(value)
		if allNumeric(parts) {
			return schema.KindCommaSeparatedNumbers
		}
		if allHTTPURLs(parts) {
			return schema.KindCommaSeparatedURLs
		}
		return schema.KindCommaSeparated
	}

	if hasAnyPrefix(value, "http://", "https://") {
		return schema.KindURL
	}

	switch strings.ToLower(value) {
	case "true", "false", "1", "0":
		return schema.KindBoolean
	}

	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		if n >= 1 && n <= 65535 && strings.Contains(strings.ToUpper(key), "PORT") {
			return schema.KindPort
		}
		return schema.KindInteger
	}
	if _, err := strconv.ParseFloat(value, 64); err == nil {
		return schema.KindNumber
	}
	return schema.KindRequiredString
}

// deriveDefault converts the literal value into a typed default for the
// inferred kind. This is deliberately lenient: inference is a best-effort
// heuristic, unlike the strict runtime decoders.
func deriveDefault(kind schema.Kind, raw string) any {
	switch kind {
	case schema.KindBoolean:
		switch strings.ToLower(raw) {
		case "1", "true":
			return true
		}
		return false

	case schema.KindInteger:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(f) {
			return int64(0)
		}
		return int64(f) // truncates toward zero

	case schema.KindNumber:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(f) {
			return float64(0)
		}
		return f

	case schema.KindPort:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 || n > 65535 {
			return int64(3000)
		}
		return n

	case schema.KindCommaSeparated, schema.KindCommaSeparatedURLs:
		return splitTrim(raw)

	case schema.KindCommaSeparatedNumbers:
		nums := make([]float64, 0)
		for _, p := range splitTrim(raw) {
			f, err := strconv.ParseFloat(p, 64)
			if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
				continue // silently dropped, unlike the runtime decoder
			}
			nums = append(nums, f)
		}
		return nums

	case schema.KindJSON:
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return map[string]any{}
		}
		return v

	default:
		if raw == "" {
			return "value"
		}
		return raw
	}
}

func isJSONLiteral(value string) bool {
	if !strings.HasPrefix(value, "{") && !strings.HasPrefix(value, "[") {
		return false
	}
	return json.Valid([]byte(value))
}

func hasAnyPrefix(value string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(value, p) {
			return true
		}
	}
	return false
}

func splitTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

func allNumeric(parts []string) bool {
	for _, p := range parts {
		if _, err := strconv.ParseFloat(p, 64); err != nil {
			return false
		}
	}
	return len(parts) > 0
}

func allHTTPURLs(parts []string) bool {
	for _, p := range parts {
		if !hasAnyPrefix(p, "http://", "https://") {
			return false
		}
	}
	return len(parts) > 0
}
