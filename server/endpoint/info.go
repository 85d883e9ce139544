package endpoint

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

// BuildInfo is what the binary knows about its own build.
type BuildInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	GoVersion string `json:"go_version"`
	IsDirty   bool   `json:"is_dirty"`
}

// ReadBuildInfo fills BuildInfo from the embedded module and VCS data.
// version overrides the module version when non-empty.
func ReadBuildInfo(version string) BuildInfo {
	info := BuildInfo{Version: version}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.GoVersion = bi.GoVersion
	if info.Version == "" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.GitCommit = s.Value
			if len(info.GitCommit) > 7 {
				info.GitCommit = info.GitCommit[:7]
			}
		case "vcs.modified":
			info.IsDirty = s.Value == "true"
		}
	}
	return info
}

// Info reports build information and uptime.
func Info(serviceName, version string) gin.HandlerFunc {
	bi := ReadBuildInfo(version)
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":    serviceName,
			"version":    bi.Version,
			"git_commit": bi.GitCommit,
			"go_version": bi.GoVersion,
			"is_dirty":   bi.IsDirty,
			"uptime":     time.Since(startTime).String(),
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
		})
	}
}
