package codegen

import (
	"encoding/json"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"sort"
	"strconv"

	"github.com/envil-dev/envil/env"
	"github.com/envil-dev/envil/internal/infer"
	"github.com/envil-dev/envil/schema"
)

var constructorKinds = invertConstructors()

func invertConstructors() map[string]schema.Kind {
	m := make(map[string]schema.Kind, len(kindConstructors))
	for kind, name := range kindConstructors {
		m[name] = kind
	}
	return m
}

// Load parses a generated schema-definition source file and reconstructs the
// inferred model from its Definition binding. Only the exact shape Generate
// emits is accepted; anything else is a malformed-definition error naming the
// file.
func Load(src []byte, filename string) (*infer.Model, error) {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("malformed schema definition in %s: %s", filename, fmt.Sprintf(format, args...))
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, 0)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}

	lit := findDefinition(file)
	if lit == nil {
		return nil, fail("no Definition = env.Options{...} binding found")
	}

	model := &infer.Model{}
	for _, elt := range lit.Elts {
		kv, ok := elt.(*ast.KeyValueExpr)
		if !ok {
			continue
		}
		field, ok := kv.Key.(*ast.Ident)
		if !ok {
			continue
		}
		switch field.Name {
		case "Prefix":
			p, err := loadPrefixes(kv.Value)
			if err != nil {
				return nil, fail("%s", err)
			}
			model.Prefixes = p
		case "Server", "Client", "Shared":
			bucket := map[string]env.Bucket{
				"Server": env.BucketServer,
				"Client": env.BucketClient,
				"Shared": env.BucketShared,
			}[field.Name]
			vars, err := loadBucket(kv.Value, bucket)
			if err != nil {
				return nil, fail("%s", err)
			}
			model.Variables = append(model.Variables, vars...)
		}
	}

	for i := range model.Variables {
		v := &model.Variables[i]
		v.RuntimeKey = model.Prefixes.For(v.Bucket) + v.SchemaKey
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

func findDefinition(file *ast.File) *ast.CompositeLit {
	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.VAR {
			continue
		}
		for _, spec := range gen.Specs {
			vs, ok := spec.(*ast.ValueSpec)
			if !ok || len(vs.Names) != 1 || vs.Names[0].Name != "Definition" || len(vs.Values) != 1 {
				continue
			}
			if lit, ok := vs.Values[0].(*ast.CompositeLit); ok && isSelector(lit.Type, "env", "Options") {
				return lit
			}
		}
	}
	return nil
}

func isSelector(expr ast.Expr, pkg, name string) bool {
	sel, ok := expr.(*ast.SelectorExpr)
	if !ok {
		return false
	}
	ident, ok := sel.X.(*ast.Ident)
	return ok && ident.Name == pkg && sel.Sel.Name == name
}

func loadPrefixes(expr ast.Expr) (env.Prefixes, error) {
	var p env.Prefixes
	lit, ok := expr.(*ast.CompositeLit)
	if !ok || !isSelector(lit.Type, "env", "PrefixConfig") {
		return p, fmt.Errorf("Prefix field is not an env.PrefixConfig literal")
	}
	for _, elt := range lit.Elts {
		kv, ok := elt.(*ast.KeyValueExpr)
		if !ok {
			continue
		}
		field, ok := kv.Key.(*ast.Ident)
		if !ok {
			continue
		}
		val, err := stringLit(kv.Value)
		if err != nil {
			return p, fmt.Errorf("prefix %s: %w", field.Name, err)
		}
		switch field.Name {
		case "All":
			p.Server, p.Client, p.Shared = val, val, val
		case "Server":
			p.Server = val
		case "Client":
			p.Client = val
		case "Shared":
			p.Shared = val
		}
	}
	return p, nil
}

func loadBucket(expr ast.Expr, bucket env.Bucket) ([]infer.Variable, error) {
	lit, ok := expr.(*ast.CompositeLit)
	if !ok {
		return nil, fmt.Errorf("%s bucket is not a map literal", bucket)
	}
	var vars []infer.Variable
	for _, elt := range lit.Elts {
		kv, ok := elt.(*ast.KeyValueExpr)
		if !ok {
			return nil, fmt.Errorf("%s bucket has a non key/value element", bucket)
		}
		key, err := stringLit(kv.Key)
		if err != nil {
			return nil, fmt.Errorf("%s bucket key: %w", bucket, err)
		}
		v := infer.Variable{SchemaKey: key, Bucket: bucket}
		if err := loadSchemaExpr(kv.Value, &v); err != nil {
			return nil, fmt.Errorf("%s.%s: %w", bucket, key, err)
		}
		vars = append(vars, v)
	}
	return vars, nil
}

// loadSchemaExpr unwinds a composed schema call chain, recording wrapper
// flags until it reaches the base kind constructor.
func loadSchemaExpr(expr ast.Expr, v *infer.Variable) error {
	call, ok := expr.(*ast.CallExpr)
	if !ok {
		return fmt.Errorf("schema expression is not a call")
	}
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok || !isPackageIdent(sel.X, "schema") {
		return fmt.Errorf("schema expression does not call into the schema package")
	}

	switch name := sel.Sel.Name; name {
	case "Optional":
		if len(call.Args) != 1 {
			return fmt.Errorf("schema.Optional expects one argument")
		}
		v.Optional = true
		return loadSchemaExpr(call.Args[0], v)

	case "Redacted":
		if len(call.Args) != 1 {
			return fmt.Errorf("schema.Redacted expects one argument")
		}
		v.Redacted = true
		return loadSchemaExpr(call.Args[0], v)

	case "WithDefault":
		if len(call.Args) != 2 {
			return fmt.Errorf("schema.WithDefault expects two arguments")
		}
		def, err := literalValue(call.Args[1])
		if err != nil {
			return fmt.Errorf("default value: %w", err)
		}
		v.HasDefault = true
		v.Default = def
		return loadSchemaExpr(call.Args[0], v)

	case "Enum":
		values := make([]string, 0, len(call.Args))
		for _, arg := range call.Args {
			s, err := stringLit(arg)
			if err != nil {
				return fmt.Errorf("enum value: %w", err)
			}
			values = append(values, s)
		}
		if len(values) == 0 {
			return fmt.Errorf("schema.Enum requires at least one value")
		}
		v.Kind = schema.KindStringEnum
		v.EnumValues = values
		return nil

	default:
		kind, ok := constructorKinds[name]
		if !ok {
			return fmt.Errorf("unknown schema constructor %q", name)
		}
		v.Kind = kind
		return nil
	}
}

func isPackageIdent(expr ast.Expr, name string) bool {
	ident, ok := expr.(*ast.Ident)
	return ok && ident.Name == name
}

func stringLit(expr ast.Expr) (string, error) {
	lit, ok := expr.(*ast.BasicLit)
	if !ok || lit.Kind != token.STRING {
		return "", fmt.Errorf("expected a string literal")
	}
	return strconv.Unquote(lit.Value)
}

func literalValue(expr ast.Expr) (any, error) {
	switch e := expr.(type) {
	case *ast.BasicLit:
		switch e.Kind {
		case token.STRING:
			s, err := strconv.Unquote(e.Value)
			return s, err
		case token.INT:
			n, err := strconv.ParseInt(e.Value, 10, 64)
			return n, err
		case token.FLOAT:
			f, err := strconv.ParseFloat(e.Value, 64)
			return f, err
		}
		return nil, fmt.Errorf("unsupported literal %s", e.Value)

	case *ast.Ident:
		switch e.Name {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, fmt.Errorf("unsupported identifier %q", e.Name)

	case *ast.UnaryExpr:
		if e.Op != token.SUB {
			return nil, fmt.Errorf("unsupported unary operator %s", e.Op)
		}
		inner, err := literalValue(e.X)
		if err != nil {
			return nil, err
		}
		switch n := inner.(type) {
		case int64:
			return -n, nil
		case float64:
			return -n, nil
		}
		return nil, fmt.Errorf("unsupported negated literal")

	case *ast.CompositeLit:
		return sliceLiteral(e)

	case *ast.CallExpr:
		sel, ok := e.Fun.(*ast.SelectorExpr)
		if !ok || !isPackageIdent(sel.X, "schema") || sel.Sel.Name != "MustJSONValue" || len(e.Args) != 1 {
			return nil, fmt.Errorf("unsupported call in default value")
		}
		raw, err := stringLit(e.Args[0])
		if err != nil {
			return nil, err
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("invalid JSON default: %w", err)
		}
		return v, nil
	}
	return nil, fmt.Errorf("unsupported default value expression")
}

func sliceLiteral(lit *ast.CompositeLit) (any, error) {
	arr, ok := lit.Type.(*ast.ArrayType)
	if !ok {
		return nil, fmt.Errorf("unsupported composite literal in default value")
	}
	elem, ok := arr.Elt.(*ast.Ident)
	if !ok {
		return nil, fmt.Errorf("unsupported slice element type")
	}
	switch elem.Name {
	case "string":
		out := make([]string, 0, len(lit.Elts))
		for _, e := range lit.Elts {
			s, err := stringLit(e)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	case "float64":
		out := make([]float64, 0, len(lit.Elts))
		for _, e := range lit.Elts {
			v, err := literalValue(e)
			if err != nil {
				return nil, err
			}
			switch n := v.(type) {
			case float64:
				out = append(out, n)
			case int64:
				out = append(out, float64(n))
			default:
				return nil, fmt.Errorf("unsupported slice element")
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported slice element type %q", elem.Name)
}
