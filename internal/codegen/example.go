package codegen

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/envil-dev/envil/env"
	"github.com/envil-dev/envil/internal/dotenv"
	"github.com/envil-dev/envil/internal/infer"
	"github.com/envil-dev/envil/schema"
)

// BuildExample converts a model back into a dotenv document. Every entry gets
// an explicit @type directive and, when it has no default, a @no-default
// directive guarding its placeholder value, so re-inferring the encoded
// output reproduces the model exactly.
func BuildExample(model *infer.Model) *dotenv.Document {
	doc := &dotenv.Document{Prefixes: make(map[string]string)}
	if model.Prefixes.Server != "" {
		doc.Prefixes["server"] = model.Prefixes.Server
	}
	if model.Prefixes.Client != "" {
		doc.Prefixes["client"] = model.Prefixes.Client
	}
	if model.Prefixes.Shared != "" {
		doc.Prefixes["shared"] = model.Prefixes.Shared
	}

	for i, v := range model.Variables {
		value := schema.Placeholder(v.Kind, v.EnumValues)
		if v.HasDefault {
			value = formatDefault(v.Default)
		}
		doc.Entries = append(doc.Entries, dotenv.Entry{
			Key:     v.SchemaKey,
			Value:   value,
			Line:    i + 1,
			Section: string(v.Bucket),
			Directives: dotenv.Directives{
				Type:       v.Kind,
				EnumValues: v.EnumValues,
				Optional:   v.Optional,
				Redacted:   v.Redacted,
				NoDefault:  !v.HasDefault,
			},
		})
	}
	return doc
}

// BuildExampleFromOptions derives a model directly from a live schema
// definition via introspection, for programmatic example generation without
// the CLI.
func BuildExampleFromOptions(opts env.Options) *dotenv.Document {
	prefixes := opts.Prefix.Resolve()
	model := &infer.Model{Prefixes: prefixes}

	appendBucket := func(bucket env.Bucket, schemas map[string]*schema.Schema) {
		for key, s := range schemas {
			info := schema.Inspect(s)
			model.Variables = append(model.Variables, infer.Variable{
				SchemaKey:  key,
				RuntimeKey: prefixes.For(bucket) + key,
				Bucket:     bucket,
				Kind:       info.Kind,
				Optional:   info.Optional,
				HasDefault: info.HasDefault,
				Default:    info.DefaultValue,
				Redacted:   info.Redacted,
				EnumValues: info.EnumValues,
			})
		}
	}
	appendBucket(env.BucketServer, opts.Server)
	appendBucket(env.BucketClient, opts.Client)
	appendBucket(env.BucketShared, opts.Shared)

	sortModel(model)
	return BuildExample(model)
}

func sortModel(model *infer.Model) {
	sort.SliceStable(model.Variables, func(i, j int) bool {
		a, b := model.Variables[i], model.Variables[j]
		if a.Bucket != b.Bucket {
			return bucketRank(a.Bucket) < bucketRank(b.Bucket)
		}
		return a.SchemaKey < b.SchemaKey
	})
}

func formatDefault(d any) string {
	switch v := d.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case []string:
		return strings.Join(v, ",")
	case []float64:
		nums := make([]string, len(v))
		for i, f := range v {
			nums[i] = strconv.FormatFloat(f, 'g', -1, 64)
		}
		return strings.Join(nums, ",")
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return "{}"
		}
		return string(raw)
	}
}
