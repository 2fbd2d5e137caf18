package metrics

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCaptureSystemInfo(t *testing.T) {
	info := CaptureSystemInfo()

	assert.Equal(t, runtime.GOOS, info.OS)
	assert.Equal(t, runtime.GOARCH, info.Arch)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Positive(t, info.CPULogical)
	assert.NotEmpty(t, info.Hostname)
}

func TestContainerFromCgroup(t *testing.T) {
	tests := []struct {
		content string
		in      bool
		runtime string
	}{
		{"0::/kubepods/besteffort/pod1234", true, "kubernetes"},
		{"12:cpu:/docker/abcdef", true, "docker"},
		{"0::/system.slice/containerd.service", true, "containerd"},
		{"0::/init.scope", false, ""},
	}

	for _, tt := range tests {
		in, rt := containerFromCgroup(tt.content)
		assert.Equal(t, tt.in, in, tt.content)
		assert.Equal(t, tt.runtime, rt, tt.content)
	}
}

func TestLinuxVersion(t *testing.T) {
	dir := t.TempDir()

	pretty := filepath.Join(dir, "pretty")
	os.WriteFile(pretty, []byte("NAME=\"Debian GNU/Linux\"\nPRETTY_NAME=\"Debian GNU/Linux 12 (bookworm)\"\n"), 0o644)
	assert.Equal(t, "Debian GNU/Linux 12 (bookworm)", linuxVersion(pretty))

	plain := filepath.Join(dir, "plain")
	os.WriteFile(plain, []byte("NAME=Alpine\nVERSION=3.19\n"), 0o644)
	assert.Equal(t, "Alpine 3.19", linuxVersion(plain))

	assert.Equal(t, "", linuxVersion(filepath.Join(dir, "missing")))
}
