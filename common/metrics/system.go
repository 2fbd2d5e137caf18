package metrics

import (
	"os"
	"runtime"
	"strings"
)

// SystemInfo describes the host a service runs on
type SystemInfo struct {
	Hostname         string `json:"hostname"`
	OS               string `json:"os"`
	OSVersion        string `json:"os_version,omitempty"`
	Arch             string `json:"arch"`
	GoVersion        string `json:"go_version"`
	CPULogical       int    `json:"cpu_logical"`
	InContainer      bool   `json:"in_container"`
	ContainerRuntime string `json:"container_runtime,omitempty"`
}

// CaptureSystemInfo gathers host information once at startup
func CaptureSystemInfo() *SystemInfo {
	info := &SystemInfo{
		OS:         runtime.GOOS,
		Arch:       runtime.GOARCH,
		CPULogical: runtime.NumCPU(),
		GoVersion:  runtime.Version(),
		Hostname:   "unknown",
	}

	if hostname, err := os.Hostname(); err == nil {
		info.Hostname = hostname
	}

	info.InContainer, info.ContainerRuntime = detectContainer()
	if runtime.GOOS == "linux" {
		info.OSVersion = linuxVersion("/etc/os-release")
	}

	return info
}

// detectContainer checks if running in a container
func detectContainer() (bool, string) {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true, "docker"
	}

	if _, err := os.Stat("/var/run/secrets/kubernetes.io"); err == nil {
		return true, "kubernetes"
	}

	data, err := os.ReadFile("/proc/1/cgroup")
	if err != nil {
		return false, ""
	}
	return containerFromCgroup(string(data))
}

func containerFromCgroup(content string) (bool, string) {
	switch {
	case strings.Contains(content, "kubepods"):
		return true, "kubernetes"
	case strings.Contains(content, "docker"):
		return true, "docker"
	case strings.Contains(content, "containerd"):
		return true, "containerd"
	}
	return false, ""
}

// linuxVersion reads the distribution name from an os-release file
func linuxVersion(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}

	var name, version string
	for _, line := range strings.Split(string(data), "\n") {
		switch {
		case strings.HasPrefix(line, "PRETTY_NAME="):
			return strings.Trim(strings.TrimPrefix(line, "PRETTY_NAME="), "\"")
		case strings.HasPrefix(line, "NAME="):
			name = strings.Trim(strings.TrimPrefix(line, "NAME="), "\"")
		case strings.HasPrefix(line, "VERSION="):
			version = strings.Trim(strings.TrimPrefix(line, "VERSION="), "\"")
		}
	}

	if version != "" && name != "" {
		return name + " " + version
	}
	return name
}
