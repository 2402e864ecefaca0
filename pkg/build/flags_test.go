// SPDX-License-Identifier: MIT
package build

import (
	"os"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	origName    string
	origTime    string
	origCommit  string
	origVersion string
	origFlags   ldFlags
	origRead    func() (*debug.BuildInfo, bool)
)

func TestMain(m *testing.M) {
	origName = buildName
	origTime = buildTime
	origCommit = buildCommit
	origVersion = buildVersion
	origFlags = *buildFlags
	origRead = readBuildInfo

	exitCode := m.Run()

	buildName = origName
	buildTime = origTime
	buildCommit = origCommit
	buildVersion = origVersion
	*buildFlags = origFlags
	readBuildInfo = origRead

	os.Exit(exitCode)
}

func reset(name, time, commit, version string) {
	buildFlags = &ldFlags{Name: defaultName, Time: unknown, Commit: unknown, Version: devVersion}
	buildName, buildTime, buildCommit, buildVersion = name, time, commit, version
	readBuildInfo = func() (*debug.BuildInfo, bool) { return nil, false }
}

func TestInitializeLdflags(t *testing.T) {
	reset("testapp", "2025-04-13", "abcdef123", "v1.0.0")

	require.NoError(t, Initialize())
	assert.Equal(t, ldFlags{Name: "testapp", Time: "2025-04-13", Commit: "abcdef123", Version: "v1.0.0"}, *GetBuildFlags())
}

func TestInitializePartialLdflags(t *testing.T) {
	tests := []struct {
		name        string
		buildName   string
		buildTime   string
		buildCommit string
		buildVer    string
		wantErrMsg  string
	}{
		{"Missing BuildName", "", "2025-04-13", "abcdef123", "v1.0.0", "BuildName required when building with ldflags"},
		{"Missing BuildTime", "testapp", "", "abcdef123", "v1.0.0", "BuildTime required when building with ldflags"},
		{"Missing commit and version", "testapp", "2025-04-13", "", "", "BuildCommit, BuildVersion required when building with ldflags"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reset(tt.buildName, tt.buildTime, tt.buildCommit, tt.buildVer)
			err := Initialize()
			require.Error(t, err)
			assert.EqualError(t, err, tt.wantErrMsg)
			assert.Equal(t, devVersion, GetBuildFlags().Version, "flags untouched on error")
		})
	}
}

func TestInitializeDevBuild(t *testing.T) {
	reset("", "", "", "")

	require.NoError(t, Initialize())
	assert.Equal(t, ldFlags{Name: defaultName, Time: unknown, Commit: unknown, Version: devVersion}, *GetBuildFlags())
}

func TestInitializeBuildInfo(t *testing.T) {
	reset("", "", "", "")
	readBuildInfo = func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{
			Main: debug.Module{Path: "spectrum", Version: "(devel)"},
			Settings: []debug.BuildSetting{
				{Key: "vcs", Value: "git"},
				{Key: "vcs.revision", Value: "0123abcd"},
				{Key: "vcs.time", Value: "2025-05-01T10:00:00Z"},
			},
		}, true
	}

	require.NoError(t, Initialize())
	flags := GetBuildFlags()
	assert.Equal(t, defaultName, flags.Name)
	assert.Equal(t, devVersion, flags.Version, "(devel) is not a version")
	assert.Equal(t, "0123abcd", flags.Commit)
	assert.Equal(t, "2025-05-01T10:00:00Z", flags.Time)
}
