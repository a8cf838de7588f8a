// Package codegen renders inferred models into Go schema-definition source
// and back: it also loads generated source via the AST and rebuilds the
// .env.example document from it.
package codegen

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/envil-dev/envil/env"
	"github.com/envil-dev/envil/internal/infer"
	"github.com/envil-dev/envil/schema"
)

const (
	envImport    = "github.com/envil-dev/envil/env"
	schemaImport = "github.com/envil-dev/envil/schema"
)

var kindConstructors = map[schema.Kind]string{
	schema.KindRequiredString:        "String",
	schema.KindBoolean:               "Boolean",
	schema.KindInteger:               "Integer",
	schema.KindNumber:                "Number",
	schema.KindPort:                  "Port",
	schema.KindURL:                   "URL",
	schema.KindPostgresURL:           "PostgresURL",
	schema.KindRedisURL:              "RedisURL",
	schema.KindMongoURL:              "MongoURL",
	schema.KindMySQLURL:              "MySQLURL",
	schema.KindCommaSeparated:        "CommaSeparated",
	schema.KindCommaSeparatedNumbers: "CommaSeparatedNumbers",
	schema.KindCommaSeparatedURLs:    "CommaSeparatedURLs",
	schema.KindJSON:                  "JSON",
	schema.KindStringEnum:            "Enum",
}

// Generate renders the schema-definition source for a model. Output is
// byte-for-byte deterministic: the model is already bucket-and-key sorted and
// the import block contains exactly the packages the rendered helpers live
// in, alphabetically.
func Generate(model *infer.Model) []byte {
	imports := map[string]struct{}{envImport: {}}
	if len(model.Variables) > 0 {
		imports[schemaImport] = struct{}{}
	}

	var b strings.Builder
	b.WriteString("// Code generated by envil. DO NOT EDIT.\n")
	b.WriteString("package env\n\n")

	paths := make([]string, 0, len(imports))
	for p := range imports {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	b.WriteString("import (\n")
	for _, p := range paths {
		b.WriteString("\t" + strconv.Quote(p) + "\n")
	}
	b.WriteString(")\n\n")

	b.WriteString("// Definition declares the application's environment schema.\n")
	b.WriteString("var Definition = env.Options{\n")
	writePrefixBlock(&b, model.Prefixes)
	for _, bucket := range env.Buckets() {
		writeBucketBlock(&b, bucket, model.Variables)
	}
	b.WriteString("}\n\n")

	b.WriteString("// Env is the validated environment, resolved at startup.\n")
	b.WriteString("var Env = env.MustNew(Definition)\n")
	return []byte(b.String())
}

func writePrefixBlock(b *strings.Builder, p env.Prefixes) {
	if p.Server == "" && p.Client == "" && p.Shared == "" {
		return
	}
	b.WriteString("\tPrefix: env.PrefixConfig{\n")
	if p.Server != "" {
		fmt.Fprintf(b, "\t\tServer: %s,\n", strconv.Quote(p.Server))
	}
	if p.Client != "" {
		fmt.Fprintf(b, "\t\tClient: %s,\n", strconv.Quote(p.Client))
	}
	if p.Shared != "" {
		fmt.Fprintf(b, "\t\tShared: %s,\n", strconv.Quote(p.Shared))
	}
	b.WriteString("\t},\n")
}

func writeBucketBlock(b *strings.Builder, bucket env.Bucket, vars []infer.Variable) {
	var selected []infer.Variable
	for _, v := range vars {
		if v.Bucket == bucket {
			selected = append(selected, v)
		}
	}
	if len(selected) == 0 {
		return
	}

	field := map[env.Bucket]string{
		env.BucketServer: "Server",
		env.BucketClient: "Client",
		env.BucketShared: "Shared",
	}[bucket]

	fmt.Fprintf(b, "\t%s: map[string]*schema.Schema{\n", field)
	for _, v := range selected {
		fmt.Fprintf(b, "\t\t%s: %s,\n", strconv.Quote(v.SchemaKey), schemaExpr(v))
	}
	b.WriteString("\t},\n")
}

// schemaExpr renders a variable's composed schema, nesting wrappers in fixed
// order: redacted around withDefault around optional around the base kind.
// Optional is omitted when a default exists since it would be a dead wrapper.
func schemaExpr(v infer.Variable) string {
	expr := kindExpr(v)
	if v.Optional && !v.HasDefault {
		expr = fmt.Sprintf("schema.Optional(%s)", expr)
	}
	if v.HasDefault {
		expr = fmt.Sprintf("schema.WithDefault(%s, %s)", expr, defaultLiteral(v.Default))
	}
	if v.Redacted {
		expr = fmt.Sprintf("schema.Redacted(%s)", expr)
	}
	return expr
}

func kindExpr(v infer.Variable) string {
	name := kindConstructors[v.Kind]
	if v.Kind == schema.KindStringEnum {
		quoted := make([]string, len(v.EnumValues))
		for i, val := range v.EnumValues {
			quoted[i] = strconv.Quote(val)
		}
		return fmt.Sprintf("schema.Enum(%s)", strings.Join(quoted, ", "))
	}
	return fmt.Sprintf("schema.%s()", name)
}

func defaultLiteral(d any) string {
	switch v := d.(type) {
	case string:
		return strconv.Quote(v)
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case []string:
		quoted := make([]string, len(v))
		for i, s := range v {
			quoted[i] = strconv.Quote(s)
		}
		return fmt.Sprintf("[]string{%s}", strings.Join(quoted, ", "))
	case []float64:
		nums := make([]string, len(v))
		for i, f := range v {
			nums[i] = strconv.FormatFloat(f, 'g', -1, 64)
		}
		return fmt.Sprintf("[]float64{%s}", strings.Join(nums, ", "))
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return `schema.MustJSONValue("{}")`
		}
		if strings.Contains(string(raw), "`") {
			return fmt.Sprintf("schema.MustJSONValue(%s)", strconv.Quote(string(raw)))
		}
		return fmt.Sprintf("schema.MustJSONValue(`%s`)", raw)
	}
}
