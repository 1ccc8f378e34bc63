// Package system provides OS-level health probes (disk, thermal,
// throttling) plus checks of the player's own stores and endpoints.
package system

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// thermalZone is where the Raspberry Pi reports its CPU temperature.
var thermalZone = "/sys/class/thermal/thermal_zone0/temp"

// Probe is a named health check.
type Probe struct {
	Name string
	Run  func(ctx context.Context) error
}

// CheckResult is the outcome of one probe.
type CheckResult struct {
	Name string `json:"name"`
	Err  string `json:"error,omitempty"`
}

func (c CheckResult) OK() bool { return c.Err == "" }

// HealthStatus represents the current system health snapshot.
type HealthStatus struct {
	DiskUsedPct   float64       `json:"disk_used_pct"`
	DiskFreeBytes uint64        `json:"disk_free_bytes"`
	CPUTempC      float64       `json:"cpu_temp_c"`
	Throttled     bool          `json:"throttled"`
	Checks        []CheckResult `json:"checks"`
	Timestamp     time.Time     `json:"timestamp"`
}

// Healthy reports whether every probe passed.
func (s HealthStatus) Healthy() bool {
	for _, c := range s.Checks {
		if !c.OK() {
			return false
		}
	}
	return true
}

// GetCPUTemp reads the thermal zone and returns the temperature in
// degrees Celsius.
func GetCPUTemp() (float64, error) {
	data, err := os.ReadFile(thermalZone)
	if err != nil {
		return 0, fmt.Errorf("read cpu temp: %w", err)
	}

	milliC, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse cpu temp: %w", err)
	}
	return milliC / 1000.0, nil
}

// GetDiskUsage returns the usage percentage and free bytes for
// the filesystem holding path (default "/").
func GetDiskUsage(path string) (usedPct float64, freeBytes uint64, err error) {
	if path == "" {
		path = "/"
	}

	out, err := exec.Command("df", "--output=pcent,avail", "-B1", path).Output()
	if err != nil {
		return 0, 0, fmt.Errorf("df command failed: %w", err)
	}
	return parseDF(string(out))
}

func parseDF(out string) (float64, uint64, error) {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) < 2 {
		return 0, 0, fmt.Errorf("unexpected df output")
	}

	fields := strings.Fields(lines[1])
	if len(fields) < 2 {
		return 0, 0, fmt.Errorf("unexpected df fields")
	}

	pct, err := strconv.ParseFloat(strings.TrimSuffix(fields[0], "%"), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse disk pct: %w", err)
	}

	free, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse disk free: %w", err)
	}
	return pct, free, nil
}

// IsThrottled asks vcgencmd whether the CPU is throttled for
// temperature or power supply reasons.
func IsThrottled() (bool, error) {
	out, err := exec.Command("vcgencmd", "get_throttled").Output()
	if err != nil {
		return false, fmt.Errorf("vcgencmd failed: %w", err)
	}
	return parseThrottled(string(out))
}

// parseThrottled reads "throttled=0x0".
func parseThrottled(out string) (bool, error) {
	parts := strings.SplitN(strings.TrimSpace(out), "=", 2)
	if len(parts) < 2 {
		return false, fmt.Errorf("unexpected vcgencmd output")
	}

	val, err := strconv.ParseUint(strings.TrimPrefix(parts[1], "0x"), 16, 64)
	if err != nil {
		return false, fmt.Errorf("parse throttle value: %w", err)
	}
	return val != 0, nil
}

// RunHealthCheck takes a system snapshot for the filesystem holding
// dataDir and runs every probe with a per-probe timeout.
func RunHealthCheck(ctx context.Context, dataDir string, log *zap.Logger, probes ...Probe) HealthStatus {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("system")

	status := HealthStatus{Timestamp: time.Now()}

	if temp, err := GetCPUTemp(); err == nil {
		status.CPUTempC = temp
	} else {
		log.Debug("temp read error", zap.Error(err))
	}

	if pct, free, err := GetDiskUsage(dataDir); err == nil {
		status.DiskUsedPct = pct
		status.DiskFreeBytes = free
	} else {
		log.Debug("disk read error", zap.Error(err))
	}

	if throttled, err := IsThrottled(); err == nil {
		status.Throttled = throttled
	} else {
		log.Debug("throttle check error", zap.Error(err))
	}

	for _, p := range probes {
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := p.Run(pctx)
		cancel()

		res := CheckResult{Name: p.Name}
		if err != nil {
			res.Err = err.Error()
			log.Warn("probe failed", zap.String("probe", p.Name), zap.Error(err))
		}
		status.Checks = append(status.Checks, res)
	}

	log.Info("health",
		zap.Float64("temp_c", status.CPUTempC),
		zap.Float64("disk_pct", status.DiskUsedPct),
		zap.Bool("throttled", status.Throttled),
		zap.Bool("healthy", status.Healthy()))
	return status
}

// EnsureDir creates a directory and all parents if it does not exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
