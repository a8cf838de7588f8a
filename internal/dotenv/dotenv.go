// Package dotenv implements the directive-annotated .env.example format: a
// dotenv dialect where # @directive comments carry type hints, bucket
// assignment, optionality and redaction for each variable.
package dotenv

import (
	"fmt"
	"strings"

	"github.com/envil-dev/envil/schema"
)

// Document is a parsed directive-annotated dotenv file.
type Document struct {
	Entries []Entry
	// Prefixes maps bucket name to the prefix registered by a section
	// directive argument (e.g. "# @server SRV_"). Only non-empty prefixes
	// are recorded.
	Prefixes map[string]string
}

// Entry is one KEY=value assignment with its source position, the section
// bucket active where it appeared, and its directives.
type Entry struct {
	Key        string
	Value      string
	Line       int
	Section    string
	Directives Directives
}

// Directives holds the per-entry directive record.
type Directives struct {
	Type       schema.Kind
	EnumValues []string
	Bucket     string
	Optional   bool
	Redacted   bool
	NoDefault  bool
}

// ParseError names the offending source line of a malformed document.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// Bucket resolves the entry's bucket: explicit @bucket directive, else the
// active section, else server.
func (e *Entry) Bucket() string {
	if e.Directives.Bucket != "" {
		return e.Directives.Bucket
	}
	if e.Section != "" {
		return e.Section
	}
	return "server"
}

var typeAliases = buildTypeAliases()

func buildTypeAliases() map[string]schema.Kind {
	aliases := map[string]schema.Kind{
		"string":     schema.KindRequiredString,
		"str":        schema.KindRequiredString,
		"bool":       schema.KindBoolean,
		"int":        schema.KindInteger,
		"float":      schema.KindNumber,
		"num":        schema.KindNumber,
		"postgres":   schema.KindPostgresURL,
		"postgresql": schema.KindPostgresURL,
		"redis":      schema.KindRedisURL,
		"mongo":      schema.KindMongoURL,
		"mongodb":    schema.KindMongoURL,
		"mysql":      schema.KindMySQLURL,
		"list":       schema.KindCommaSeparated,
		"csv":        schema.KindCommaSeparated,
		"numberlist": schema.KindCommaSeparatedNumbers,
		"urllist":    schema.KindCommaSeparatedURLs,
	}
	// Every canonical kind name doubles as its own case-insensitive alias,
	// which keeps Encode output re-parseable.
	for _, k := range schema.Kinds() {
		aliases[strings.ToLower(string(k))] = k
	}
	return aliases
}

// Parse decodes a directive-annotated dotenv document.
func Parse(src string) (*Document, error) {
	doc := &Document{Prefixes: make(map[string]string)}

	var (
		section string
		pending Directives
	)
	for i, line := range strings.Split(src, "\n") {
		ln := i + 1
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if strings.HasPrefix(trimmed, "#") {
			// directive comments must be unindented; indented ones are
			// plain comments and never switch the section
			if line[0] != '#' {
				continue
			}
			content := strings.TrimSpace(trimmed[1:])
			if !strings.HasPrefix(content, "@") {
				continue // plain comment
			}
			if err := parseDirectives(content, ln, false, &pending, &section, doc.Prefixes); err != nil {
				return nil, err
			}
			continue
		}

		key, rest, found := strings.Cut(line, "=")
		if !found {
			return nil, &ParseError{Line: ln, Msg: "malformed assignment, expected KEY=value"}
		}
		key = strings.TrimSpace(key)
		if key == "" || strings.ContainsAny(key, " \t") {
			return nil, &ParseError{Line: ln, Msg: fmt.Sprintf("invalid variable name %q", key)}
		}

		valuePart, comment := splitInlineComment(rest)
		entry := Entry{
			Key:        key,
			Value:      unquote(strings.TrimSpace(valuePart)),
			Line:       ln,
			Section:    section,
			Directives: pending,
		}
		pending = Directives{}

		comment = strings.TrimSpace(comment)
		if strings.HasPrefix(comment, "@") {
			if err := parseDirectives(comment, ln, true, &entry.Directives, &section, doc.Prefixes); err != nil {
				return nil, err
			}
		}
		doc.Entries = append(doc.Entries, entry)
	}
	return doc, nil
}

// parseDirectives consumes one space-separated directive list. Section
// directives switch the active section (and may register a prefix) but are
// forbidden inline.
func parseDirectives(content string, ln int, inline bool, d *Directives, section *string, prefixes map[string]string) error {
	tokens := strings.Fields(content)
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if !strings.HasPrefix(tok, "@") {
			return &ParseError{Line: ln, Msg: fmt.Sprintf("unexpected token %q, directives must start with @", tok)}
		}
		name := tok[1:]

		// peek at the next token as a value, if it is not a directive
		value := ""
		if i+1 < len(tokens) && !strings.HasPrefix(tokens[i+1], "@") {
			value = tokens[i+1]
		}

		switch name {
		case "server", "client", "shared":
			if inline {
				return &ParseError{Line: ln, Msg: fmt.Sprintf("section directive @%s is not allowed inline", name)}
			}
			*section = name
			if value != "" {
				prefixes[name] = value
				i++
			}

		case "type":
			if value == "" {
				return &ParseError{Line: ln, Msg: "directive @type requires a value"}
			}
			i++
			if strings.EqualFold(value, "enum") {
				// the rest of the directive text, up to the next @, is the
				// value list; elements are trimmed so "dev, prod" works
				var list []string
				for i+1 < len(tokens) && !strings.HasPrefix(tokens[i+1], "@") {
					i++
					list = append(list, tokens[i])
				}
				if len(list) == 0 {
					return &ParseError{Line: ln, Msg: "directive @type enum requires a comma-separated value list"}
				}
				values := make([]string, 0)
				for _, v := range strings.Split(strings.Join(list, " "), ",") {
					if v = strings.TrimSpace(v); v != "" {
						values = append(values, v)
					}
				}
				if len(values) == 0 {
					return &ParseError{Line: ln, Msg: "directive @type enum requires at least one value"}
				}
				d.Type = schema.KindStringEnum
				d.EnumValues = values
				continue
			}
			kind, ok := typeAliases[strings.ToLower(value)]
			if !ok {
				return &ParseError{Line: ln, Msg: fmt.Sprintf("unknown @type value %q", value)}
			}
			d.Type = kind

		case "optional", "redacted":
			flag := true
			if value != "" {
				i++
				switch value {
				case "true":
					flag = true
				case "false":
					flag = false
				default:
					return &ParseError{Line: ln, Msg: fmt.Sprintf("invalid boolean value %q for @%s", value, name)}
				}
			}
			if name == "optional" {
				d.Optional = flag
			} else {
				d.Redacted = flag
			}

		case "no-default":
			d.NoDefault = true

		case "bucket":
			if value == "" {
				return &ParseError{Line: ln, Msg: "directive @bucket requires a value"}
			}
			i++
			switch value {
			case "server", "client", "shared":
				d.Bucket = value
			default:
				return &ParseError{Line: ln, Msg: fmt.Sprintf("invalid @bucket value %q", value)}
			}

		default:
			return &ParseError{Line: ln, Msg: fmt.Sprintf("unknown directive %q", tok)}
		}
	}
	return nil
}

// splitInlineComment finds the first unquoted, unescaped # in the value part
// of an assignment.
func splitInlineComment(rest string) (value, comment string) {
	var inSingle, inDouble, escaped bool
	for i := 0; i < len(rest); i++ {
		c := rest[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if !inSingle {
				escaped = true
			}
		case '\'':
			if !inDouble {
				inSingle = !inSingle
			}
		case '"':
			if !inSingle {
				inDouble = !inDouble
			}
		case '#':
			if !inSingle && !inDouble {
				return rest[:i], rest[i+1:]
			}
		}
	}
	return rest, ""
}

func unquote(v string) string {
	if len(v) < 2 {
		return v
	}
	if v[0] == '"' && v[len(v)-1] == '"' {
		return unescape(v[1 : len(v)-1])
	}
	if v[0] == '\'' && v[len(v)-1] == '\'' {
		return v[1 : len(v)-1]
	}
	return v
}

func unescape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			b.WriteByte(c)
			escaped = false
			continue
		}
		if c == '\\' {
			escaped = true
			continue
		}
		b.WriteByte(c)
	}
	if escaped {
		b.WriteByte('\\')
	}
	return b.String()
}
