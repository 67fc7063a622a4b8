package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionVariables(t *testing.T) {
	// Test that version variables are defined
	if version == "" {
		t.Error("version should not be empty")
	}

	if commit == "" {
		t.Error("commit should not be empty")
	}

	if date == "" {
		t.Error("date should not be empty")
	}

	if version != "dev" {
		t.Logf("version is set to: %s", version)
	}
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := newRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "evaluate")
	assert.Contains(t, names, "stdio")

	evaluate, _, err := root.Find([]string{"evaluate"})
	require.NoError(t, err)
	for _, flag := range []string{"account-name", "access-token-file", "image-name", "image-tag", "custom-flags",
		"fixable", "no-pull", "policy", "save", "scan-library-packages", "tags", "html-file",
		"build-id", "build-plan", "build-root", "workspace", "config"} {
		assert.NotNil(t, evaluate.Flags().Lookup(flag), flag)
	}
}

func TestEvaluate_LaunchFailureExits255(t *testing.T) {
	// No lw-scanner on PATH.
	t.Setenv("PATH", t.TempDir())
	t.Setenv("LW_ACCESS_TOKEN", "from-env")

	code := 0
	orig := exitFunc
	exitFunc = func(c int) { code = c }
	t.Cleanup(func() { exitFunc = orig })

	workspace := t.TempDir()
	root := newRootCmd()
	root.SetArgs([]string{"evaluate",
		"--image-name", "alpine", "--image-tag", "3.19",
		"--build-root", t.TempDir(), "--workspace", workspace,
	})

	require.NoError(t, root.Execute())
	assert.Equal(t, 255, code)
	assert.NoFileExists(t, filepath.Join(workspace, "lw-scanner-report.html"))
}

func TestEvaluate_MissingSettings(t *testing.T) {
	t.Setenv("LW_BUILD_ROOT", "")
	t.Setenv("WORKSPACE", "")

	root := newRootCmd()
	root.SetArgs([]string{"evaluate", "--image-name", "alpine"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build-root")
}
