// Package version holds build information injected with -ldflags.
package version

import (
	"fmt"

	"github.com/Sayam753/SendToS3/internal/constants"
)

var (
	Version   = constants.DefaultVersion
	BuildTime = constants.DefaultBuildTime
	GitCommit = constants.DefaultGitCommit
	GoVersion = constants.DefaultGoVersion
)

func SetInfo(v, bt, gc, gv string) {
	if v != "" {
		Version = v
	}
	if bt != "" {
		BuildTime = bt
	}
	if gc != "" {
		GitCommit = gc
	}
	if gv != "" {
		GoVersion = gv
	}
}

// String возвращает однострочное описание сборки для `sendtos3 version`
func String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s, %s)", constants.AppName, Version, GitCommit, BuildTime, GoVersion)
}

// UserAgent возвращает суффикс User-Agent для запросов к S3
func UserAgent() string {
	return constants.AppName + "/" + Version
}
