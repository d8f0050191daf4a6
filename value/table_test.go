// SPDX-License-Identifier: GPL-3.0-or-later

package value_test

import (
	"encoding/json"
	"testing"

	"github.com/bassosimone/probeengine/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableInsertionOrderPreservedOnOverwrite(t *testing.T) {
	tbl := value.NewTable()
	tbl.Set("a", value.Int(1))
	tbl.Set("b", value.Int(2))
	tbl.Set("a", value.Int(3))

	assert.Equal(t, []string{"a", "b"}, tbl.Keys())
	v, ok := tbl.Get("a")
	require.True(t, ok)
	n, _ := v.AsInt64()
	assert.Equal(t, int64(3), n)
}

func TestMergeOverwritesKeepingFirstPosition(t *testing.T) {
	t1 := value.NewTable()
	t1.Set("name", value.String("srv1"))
	t1.Set("map", value.String("de_dust2"))

	t2 := value.NewTable()
	t2.Set("map", value.String("de_inferno"))
	t2.Set("players", value.Int(10))

	merged := value.Merge(t1, t2)
	assert.Equal(t, []string{"name", "map", "players"}, merged.Keys())
	v, _ := merged.Get("map")
	assert.Equal(t, "de_inferno", v.AsString())
}

func TestTableMarshalJSONOrder(t *testing.T) {
	tbl := value.NewTable()
	tbl.Set("b", value.Int(2))
	tbl.Set("a", value.Int(1))

	data, err := json.Marshal(tbl)
	require.NoError(t, err)
	assert.Equal(t, `{"b":2,"a":1}`, string(data))
}

func TestTableEqual(t *testing.T) {
	t1 := value.NewTable()
	t1.Set("a", value.Int(1))
	t2 := value.NewTable()
	t2.Set("a", value.Int(1))
	assert.True(t, t1.Equal(t2))

	t2.Set("b", value.Int(2))
	assert.False(t, t1.Equal(t2))
}
