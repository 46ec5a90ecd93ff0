// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vmconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.Equal(t, 0, cfg.MaxTasks)
	require.False(t, cfg.TraceEnabled)
	require.Equal(t, uint64(0), cfg.RoundRobinSeed)
}

func TestLoadOverridesOnlySpecifiedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vm.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_tasks: 4\ntrace_enabled: true\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 4, cfg.MaxTasks)
	require.True(t, cfg.TraceEnabled)
	require.Equal(t, uint64(0), cfg.RoundRobinSeed)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.Error(t, err)
}

func TestLoadMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vm.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_tasks: [this is not an int\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
