package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInspectBareKind(t *testing.T) {
	info := Inspect(Port())
	assert.Equal(t, KindPort, info.Kind)
	assert.False(t, info.Optional)
	assert.False(t, info.HasDefault)
	assert.False(t, info.Redacted)
	assert.Equal(t, "3000", info.Placeholder)
}

func TestInspectFullStack(t *testing.T) {
	info := Inspect(Redacted(WithDefault(Optional(Integer()), int64(5))))
	assert.Equal(t, KindInteger, info.Kind)
	assert.True(t, info.Optional)
	assert.True(t, info.HasDefault)
	assert.Equal(t, int64(5), info.DefaultValue)
	assert.True(t, info.Redacted)
}

func TestInspectToleratesAnyWrapperOrder(t *testing.T) {
	// hand-written code may nest combinators in any order
	info := Inspect(Optional(Redacted(URL())))
	assert.Equal(t, KindURL, info.Kind)
	assert.True(t, info.Optional)
	assert.True(t, info.Redacted)
	assert.False(t, info.HasDefault)
}

func TestInspectEnum(t *testing.T) {
	info := Inspect(WithDefault(Enum("dev", "staging", "prod"), "dev"))
	assert.Equal(t, KindStringEnum, info.Kind)
	assert.Equal(t, []string{"dev", "staging", "prod"}, info.EnumValues)
	assert.Equal(t, "dev", info.Placeholder)
	assert.Equal(t, "dev", info.DefaultValue)
}
