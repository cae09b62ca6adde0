package media

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetaValueJSONScalars(t *testing.T) {
	cases := []struct {
		name  string
		value MetaValue
		json  string
	}{
		{"string", MetaString("camera"), `"camera"`},
		{"number", MetaNumber(3.5), `3.5`},
		{"integer", MetaNumber(42), `42`},
		{"bool", MetaBool(true), `true`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := json.Marshal(tc.value)
			require.NoError(t, err)
			assert.JSONEq(t, tc.json, string(out))

			var back MetaValue
			require.NoError(t, json.Unmarshal(out, &back))
			assert.Equal(t, tc.value, back)
		})
	}
}

func TestMetaValueRejectsNonScalars(t *testing.T) {
	for _, raw := range []string{`{"nested": 1}`, `[1, 2]`, `null`} {
		var v MetaValue
		assert.Error(t, json.Unmarshal([]byte(raw), &v), "input %s must be rejected", raw)
	}
}

func TestMetaValueMapSerialization(t *testing.T) {
	meta := map[string]MetaValue{
		"camera":   MetaString("Canon"),
		"iso":      MetaNumber(800),
		"approved": MetaBool(false),
	}

	out, err := json.Marshal(meta)
	require.NoError(t, err)
	assert.JSONEq(t, `{"camera":"Canon","iso":800,"approved":false}`, string(out))
}

func TestFileStatusIsValid(t *testing.T) {
	for _, s := range []FileStatus{StatusActive, StatusDeleted, StatusHidden, StatusProcessing, StatusQuarantined} {
		assert.True(t, s.IsValid(), "status %s", s)
	}
	assert.False(t, FileStatus("archived").IsValid())
	assert.False(t, FileStatus("").IsValid())
}

func TestMediaFileJSONHidesChunkIDs(t *testing.T) {
	file := MediaFile{Filename: "a.png", ContentType: "image/png"}

	out, err := json.Marshal(file)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "chunk_ids")
}
