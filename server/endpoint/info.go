package endpoint

import (
	"maps"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/scribe/util"
	"github.com/kbukum/scribe/version"
)

var startTime = time.Now()

// Info reports build metadata and uptime, merged with whatever extra
// returns (configured providers, storage backend).
func Info(serviceName string, extra func() map[string]any) gin.HandlerFunc {
	return func(c *gin.Context) {
		v := version.Get()
		body := stamp(serviceName, "ok")
		body["version"] = v.Version
		body["git_commit"] = v.GitCommit
		body["build_time"] = v.BuildTime
		body["go_version"] = v.GoVersion
		body["is_release"] = v.IsRelease()
		body["uptime"] = time.Since(startTime).Round(time.Second).String()
		if extra != nil {
			maps.Copy(body, extra())
		}
		c.JSON(http.StatusOK, body)
	}
}

func Version() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, version.Get())
	}
}

// Metrics is a runtime snapshot for humans. Transcription counters and
// histograms go out over OTLP instead.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		c.JSON(http.StatusOK, gin.H{
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"goroutines": runtime.NumGoroutine(),
			"memory": gin.H{
				"heap":        util.FormatSize(int64(m.HeapAlloc)),
				"total_alloc": util.FormatSize(int64(m.TotalAlloc)),
				"sys":         util.FormatSize(int64(m.Sys)),
				"gc_runs":     m.NumGC,
			},
		})
	}
}
