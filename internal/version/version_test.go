package version

import (
	"runtime"
	"testing"

	"github.com/keshon/buildinfo"
	"github.com/stretchr/testify/assert"
)

func TestInfoDefaults(t *testing.T) {
	bi := Info()
	assert.Equal(t, AppName, bi.Project)
	assert.Equal(t, AppDescription, bi.Description)
	assert.Equal(t, runtime.Version(), bi.GoVersion)
}

func TestStringUsesLinkerValues(t *testing.T) {
	oldVersion, oldCommit := buildinfo.Version, buildinfo.Commit
	t.Cleanup(func() { buildinfo.Version, buildinfo.Commit = oldVersion, oldCommit })

	buildinfo.Version, buildinfo.Commit = "v1.2.0", "abc123"
	want := "Jukebox v1.2.0 (abc123, " + runtime.Version() + " " + runtime.GOOS + "/" + runtime.GOARCH + ")"
	assert.Equal(t, want, String())
}
