package dotenv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/envil-dev/envil/schema"
)

func TestParseSectionsAndPrefixes(t *testing.T) {
	doc, err := Parse(`# @server
DATABASE_URL=postgres://localhost:5432/app
PORT=8080

# @client NEXT_PUBLIC_
NEXT_PUBLIC_API_URL=https://example.com

# @shared
STAGE=dev
`)
	require.NoError(t, err)
	require.Len(t, doc.Entries, 4)

	assert.Equal(t, "server", doc.Entries[0].Bucket())
	assert.Equal(t, "server", doc.Entries[1].Bucket())
	assert.Equal(t, "client", doc.Entries[2].Bucket())
	assert.Equal(t, "shared", doc.Entries[3].Bucket())
	assert.Equal(t, map[string]string{"client": "NEXT_PUBLIC_"}, doc.Prefixes)
	assert.Equal(t, 2, doc.Entries[0].Line)
	assert.Equal(t, "postgres://localhost:5432/app", doc.Entries[0].Value)
}

func TestParseIndentedDirectivesAreComments(t *testing.T) {
	doc, err := Parse(`# @server
DB=x
    # @client
API=y
	# @type port
PORT=3000
`)
	require.NoError(t, err)
	require.Len(t, doc.Entries, 3)

	// only unindented directives count; the section stays server
	assert.Equal(t, "server", doc.Entries[1].Bucket())
	assert.Empty(t, doc.Entries[2].Directives.Type)
	assert.Empty(t, doc.Prefixes)
}

func TestParseDefaultBucketIsServer(t *testing.T) {
	doc, err := Parse("DATABASE_URL=postgres://localhost/db\n")
	require.NoError(t, err)
	require.Len(t, doc.Entries, 1)
	assert.Equal(t, "server", doc.Entries[0].Bucket())
	assert.Empty(t, doc.Entries[0].Section)
}

func TestParsePendingDirectivesAttachOnce(t *testing.T) {
	doc, err := Parse(`# @type port
# @optional
PORT=3000
HOST=localhost
`)
	require.NoError(t, err)
	require.Len(t, doc.Entries, 2)

	assert.Equal(t, schema.KindPort, doc.Entries[0].Directives.Type)
	assert.True(t, doc.Entries[0].Directives.Optional)

	// directives do not leak into the next entry
	assert.Empty(t, doc.Entries[1].Directives.Type)
	assert.False(t, doc.Entries[1].Directives.Optional)
}

func TestParseInlineDirectives(t *testing.T) {
	doc, err := Parse("PORT=3000 # @type port @optional @redacted\n")
	require.NoError(t, err)
	require.Len(t, doc.Entries, 1)

	e := doc.Entries[0]
	assert.Equal(t, "3000", e.Value)
	assert.Equal(t, schema.KindPort, e.Directives.Type)
	assert.True(t, e.Directives.Optional)
	assert.True(t, e.Directives.Redacted)
}

func TestParseEnumType(t *testing.T) {
	doc, err := Parse(`# @type enum development,staging,production
STAGE=development
`)
	require.NoError(t, err)
	require.Len(t, doc.Entries, 1)
	assert.Equal(t, schema.KindStringEnum, doc.Entries[0].Directives.Type)
	assert.Equal(t, []string{"development", "staging", "production"}, doc.Entries[0].Directives.EnumValues)
}

func TestParseEnumValuesTrimmed(t *testing.T) {
	doc, err := Parse(`# @type enum dev, staging , production
STAGE=dev
`)
	require.NoError(t, err)
	require.Len(t, doc.Entries, 1)
	assert.Equal(t, schema.KindStringEnum, doc.Entries[0].Directives.Type)
	assert.Equal(t, []string{"dev", "staging", "production"}, doc.Entries[0].Directives.EnumValues)

	// an inline list still stops at the next directive
	doc, err = Parse("STAGE=dev # @type enum dev, prod @optional\n")
	require.NoError(t, err)
	require.Len(t, doc.Entries, 1)
	assert.Equal(t, []string{"dev", "prod"}, doc.Entries[0].Directives.EnumValues)
	assert.True(t, doc.Entries[0].Directives.Optional)
}

func TestParseBucketOverridesSection(t *testing.T) {
	doc, err := Parse(`# @client
API_URL=https://example.com
# @bucket server
DB_PASSWORD=hunter2
`)
	require.NoError(t, err)
	require.Len(t, doc.Entries, 2)
	assert.Equal(t, "client", doc.Entries[0].Bucket())
	assert.Equal(t, "server", doc.Entries[1].Bucket())
	assert.Equal(t, "client", doc.Entries[1].Section, "the active section is unchanged")
}

func TestParseTypeAliases(t *testing.T) {
	for alias, want := range map[string]schema.Kind{
		"int":      schema.KindInteger,
		"bool":     schema.KindBoolean,
		"postgres": schema.KindPostgresURL,
		"csv":      schema.KindCommaSeparated,
		"port":     schema.KindPort,
		"URL":      schema.KindURL,
	} {
		doc, err := Parse("# @type " + alias + "\nKEY=v\n")
		require.NoError(t, err, alias)
		assert.Equal(t, want, doc.Entries[0].Directives.Type, alias)
	}
}

func TestParseQuoting(t *testing.T) {
	doc, err := Parse(`A="hello world # not a comment"
B='single # quoted'
C="escaped \" quote"
D=plain # real comment
`)
	require.NoError(t, err)
	require.Len(t, doc.Entries, 4)
	assert.Equal(t, "hello world # not a comment", doc.Entries[0].Value)
	assert.Equal(t, "single # quoted", doc.Entries[1].Value)
	assert.Equal(t, `escaped " quote`, doc.Entries[2].Value)
	assert.Equal(t, "plain", doc.Entries[3].Value)
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		line int
		msg  string
	}{
		{"inline section", "PORT=3000 # @server\n", 1, "not allowed inline"},
		{"unknown directive", "# @mystery\nKEY=v\n", 1, "unknown directive"},
		{"unknown type", "# @type complex128\nKEY=v\n", 1, "unknown @type"},
		{"missing type value", "# @type\nKEY=v\n", 1, "@type requires a value"},
		{"enum without values", "# @type enum\nKEY=v\n", 1, "comma-separated value list"},
		{"bad boolean", "KEY=v # @optional maybe\n", 1, "invalid boolean"},
		{"bad bucket", "# @bucket database\nKEY=v\n", 1, "invalid @bucket"},
		{"malformed assignment", "# @server\nJUSTAWORD\n", 2, "expected KEY=value"},
		{"invalid key", "MY KEY=v\n", 1, "invalid variable name"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.src)
			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tc.line, perr.Line)
			assert.Contains(t, perr.Msg, tc.msg)
		})
	}
}

func TestEncodeGroupsAndOrders(t *testing.T) {
	doc := &Document{
		Prefixes: map[string]string{"client": "NEXT_PUBLIC_"},
		Entries: []Entry{
			{Key: "NEXT_PUBLIC_API_URL", Value: "https://example.com", Line: 5, Section: "client",
				Directives: Directives{Type: schema.KindURL}},
			{Key: "DATABASE_URL", Value: "postgres://localhost/db", Line: 2, Section: "server",
				Directives: Directives{Type: schema.KindPostgresURL, Redacted: true}},
			{Key: "PORT", Value: "3000", Line: 3, Section: "server",
				Directives: Directives{Type: schema.KindPort, Optional: true, NoDefault: true}},
		},
	}

	want := `# @server
# @type postgresUrl
# @redacted
DATABASE_URL=postgres://localhost/db
# @type port
# @optional
# @no-default
PORT=3000

# @client NEXT_PUBLIC_
# @type url
NEXT_PUBLIC_API_URL=https://example.com

# @shared
`
	assert.Equal(t, want, Encode(doc))
}

func TestEncodeQuotesValues(t *testing.T) {
	doc := &Document{Entries: []Entry{
		{Key: "MOTD", Value: "hello world"},
		{Key: "TAG", Value: "v1#beta"},
		{Key: "PLAIN", Value: "simple"},
	}}
	out := Encode(doc)
	assert.Contains(t, out, `MOTD="hello world"`)
	assert.Contains(t, out, `TAG="v1#beta"`)
	assert.Contains(t, out, "PLAIN=simple")
}

func TestEncodeParseRoundTrip(t *testing.T) {
	doc := &Document{
		Prefixes: map[string]string{"client": "VITE_", "server": "SRV_"},
		Entries: []Entry{
			{Key: "SRV_DATABASE_URL", Value: "postgres://localhost/db", Line: 1, Section: "server",
				Directives: Directives{Type: schema.KindPostgresURL, Redacted: true}},
			{Key: "SRV_STAGE", Value: "dev", Line: 2, Section: "server",
				Directives: Directives{Type: schema.KindStringEnum, EnumValues: []string{"dev", "prod"}}},
			{Key: "VITE_API_URL", Value: "https://example.com", Line: 3, Section: "client",
				Directives: Directives{Type: schema.KindURL, Optional: true, NoDefault: true}},
		},
	}

	first := Encode(doc)
	parsed, err := Parse(first)
	require.NoError(t, err)

	require.Len(t, parsed.Entries, len(doc.Entries))
	for i, got := range parsed.Entries {
		want := doc.Entries[i]
		assert.Equal(t, want.Key, got.Key)
		assert.Equal(t, want.Value, got.Value)
		assert.Equal(t, want.Bucket(), got.Bucket())
		assert.Equal(t, want.Directives.Type, got.Directives.Type)
		assert.Equal(t, want.Directives.EnumValues, got.Directives.EnumValues)
		assert.Equal(t, want.Directives.Optional, got.Directives.Optional)
		assert.Equal(t, want.Directives.Redacted, got.Directives.Redacted)
		assert.Equal(t, want.Directives.NoDefault, got.Directives.NoDefault)
	}
	assert.Equal(t, doc.Prefixes, parsed.Prefixes)

	// encoding the re-parsed document is a fixpoint
	assert.Equal(t, first, Encode(parsed))
}
