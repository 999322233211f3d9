package version

import (
	"encoding/json"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromBuildInfo(t *testing.T) {
	info := Info{Version: "0.0.0", Revision: "unknown", BuiltAt: "unknown"}
	fromBuildInfo(&info, &debug.BuildInfo{
		Main: debug.Module{Version: "v1.4.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
		},
	})

	assert.Equal(t, "v1.4.0", info.Version)
	assert.Equal(t, "0123456", info.Revision)
	assert.Equal(t, "2026-01-02T03:04:05Z", info.BuiltAt)
}

func TestFromBuildInfo_KeepsLinkerValues(t *testing.T) {
	info := Info{Version: "2.0.0", Revision: "feed", BuiltAt: "today"}
	fromBuildInfo(&info, &debug.BuildInfo{
		Main:     debug.Module{Version: "(devel)"},
		Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "abc"}},
	})

	assert.Equal(t, "2.0.0", info.Version)
	assert.Equal(t, "feed", info.Revision)
	assert.Equal(t, "today", info.BuiltAt)
}

func TestInfoJSON(t *testing.T) {
	s, err := GetVersionInfo().JSON()
	require.NoError(t, err)

	var m map[string]string
	require.NoError(t, json.Unmarshal([]byte(s), &m))
	assert.NotEmpty(t, m["goVersion"])
	assert.NotEqual(t, "unknown", m["builtAt"])
}
