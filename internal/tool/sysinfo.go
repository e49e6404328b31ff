package tool

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

var startTime = time.Now()

// RegisterSysInfo adds the system_info tool: host, OS, CPU, memory, and
// process runtime details.
func RegisterSysInfo(reg *Registry) {
	reg.Register(Spec{
		Name:        "system_info",
		Description: "Get system information: hostname, OS version, CPU, RAM, and process uptime.",
		Examples:    []string{"TOOL_CALL: system_info()"},
		Run:         runSysInfo,
	})
}

func runSysInfo(ctx context.Context, _ map[string]string) (string, error) {
	hostname, _ := os.Hostname()
	cwd, _ := os.Getwd()

	info := []string{
		"=== System Information ===",
		fmt.Sprintf("Hostname: %s", hostname),
		fmt.Sprintf("OS: %s/%s", runtime.GOOS, runtime.GOARCH),
	}
	if ver := osVersion(ctx); ver != "" {
		info = append(info, fmt.Sprintf("OS Version: %s", ver))
	}

	info = append(info, "", "=== CPU ===")
	if name := cpuName(ctx); name != "" {
		info = append(info, fmt.Sprintf("Model: %s", name))
	}
	info = append(info, fmt.Sprintf("Logical Cores: %d", runtime.NumCPU()))

	info = append(info, "", "=== Memory ===")
	if ram := ramInfo(); ram != "" {
		info = append(info, ram)
	} else {
		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)
		info = append(info, fmt.Sprintf("Process Alloc: %.1f MB", float64(mem.Alloc)/1024/1024))
	}

	info = append(info, "", "=== Runtime ===")
	info = append(info,
		fmt.Sprintf("Working Dir: %s", cwd),
		fmt.Sprintf("Go: %s", runtime.Version()),
		fmt.Sprintf("Goroutines: %d", runtime.NumGoroutine()),
		fmt.Sprintf("Uptime: %.0f seconds", time.Since(startTime).Seconds()),
	)

	return strings.Join(info, "\n"), nil
}

func runCmd(ctx context.Context, name string, args ...string) string {
	cmd := exec.CommandContext(ctx, name, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return ""
	}
	return strings.TrimSpace(out.String())
}

func osVersion(ctx context.Context) string {
	switch runtime.GOOS {
	case "darwin":
		return runCmd(ctx, "sw_vers", "-productVersion")
	case "linux":
		data, err := os.ReadFile("/etc/os-release")
		if err == nil {
			for _, line := range strings.Split(string(data), "\n") {
				if strings.HasPrefix(line, "PRETTY_NAME=") {
					return strings.Trim(strings.TrimPrefix(line, "PRETTY_NAME="), "\"")
				}
			}
		}
		return runCmd(ctx, "uname", "-r")
	}
	return ""
}

func cpuName(ctx context.Context) string {
	switch runtime.GOOS {
	case "darwin":
		return runCmd(ctx, "sysctl", "-n", "machdep.cpu.brand_string")
	case "linux":
		data, err := os.ReadFile("/proc/cpuinfo")
		if err == nil {
			for _, line := range strings.Split(string(data), "\n") {
				if strings.HasPrefix(line, "model name") {
					parts := strings.SplitN(line, ":", 2)
					if len(parts) == 2 {
						return strings.TrimSpace(parts[1])
					}
				}
			}
		}
	}
	return ""
}

func ramInfo() string {
	if runtime.GOOS != "linux" {
		return ""
	}
	data, err := os.ReadFile("/proc/meminfo")
	if err != nil {
		return ""
	}
	var total, available float64
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "MemTotal:") {
			fmt.Sscanf(line, "MemTotal: %f kB", &total)
		}
		if strings.HasPrefix(line, "MemAvailable:") {
			fmt.Sscanf(line, "MemAvailable: %f kB", &available)
		}
	}
	if total == 0 {
		return ""
	}
	parts := []string{fmt.Sprintf("Total: %.1f GB", total/1024/1024)}
	if available > 0 {
		parts = append(parts, fmt.Sprintf("Used: %.1f GB", (total-available)/1024/1024))
	}
	return strings.Join(parts, "\n")
}
