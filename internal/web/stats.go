package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"calassist/internal/logging"
)

// handleStats reports process uptime and host resource usage.
func (s *Server) handleStats(c *gin.Context) {
	stats := gin.H{
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
	}

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		stats["cpu_percent"] = percents[0]
	} else if err != nil {
		logging.Debug("web", "cpu stats: %v", err)
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		stats["memory_percent"] = vm.UsedPercent
		stats["memory_used_mb"] = vm.Used / 1024 / 1024
	} else {
		logging.Debug("web", "memory stats: %v", err)
	}

	if uptime, err := host.Uptime(); err == nil {
		stats["host_uptime_seconds"] = uptime
	}

	c.JSON(http.StatusOK, stats)
}
