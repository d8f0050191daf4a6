// SPDX-License-Identifier: GPL-3.0-or-later

package value_test

import (
	"testing"

	"github.com/bassosimone/probeengine/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsInt64FromString(t *testing.T) {
	n, ok := value.String("42").AsInt64()
	require.True(t, ok)
	assert.Equal(t, int64(42), n)

	n, ok = value.String("0x2A").AsInt64()
	require.True(t, ok)
	assert.Equal(t, int64(42), n)

	_, ok = value.String("nope").AsInt64()
	assert.False(t, ok)
}

func TestAsStringArrayObject(t *testing.T) {
	tbl := value.NewTable()
	tbl.Set("a", value.Int(1))
	obj := value.Object(tbl)
	assert.JSONEq(t, `{"a":1}`, obj.AsString())

	arr := value.Array([]value.Value{value.Int(1), value.Int(2)})
	assert.Equal(t, "[1,2]", arr.AsString())
}

func TestEqualCrossKindNumeric(t *testing.T) {
	assert.True(t, value.Int(5).Equal(value.Float(5)))
	assert.True(t, value.String("5").Equal(value.Int(5)))
	assert.False(t, value.String("x").Equal(value.Int(5)))
}

func TestFromJSONAndResolvePath(t *testing.T) {
	v, err := value.ParseJSON([]byte(`{"server":{"version":"1.20.1"},"players":{"online":42}}`))
	require.NoError(t, err)

	tbl := value.NewTable()
	tbl.Set("payload", v)

	resolved, ok := tbl.ResolvePath([]string{"payload", "server", "version"})
	require.True(t, ok)
	assert.Equal(t, "1.20.1", resolved.AsString())

	resolved, ok = tbl.ResolvePath([]string{"payload", "players", "online"})
	require.True(t, ok)
	n, _ := resolved.AsInt64()
	assert.Equal(t, int64(42), n)
}
