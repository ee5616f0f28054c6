package main

import (
	"os"

	"github.com/Sayam753/SendToS3/internal/constants"
	"github.com/Sayam753/SendToS3/internal/version"
)

var (
	Version   string = constants.DefaultVersion
	BuildTime string = constants.DefaultBuildTime
	GitCommit string = constants.DefaultGitCommit
	GoVersion string = constants.DefaultGoVersion
)

func init() {
	version.SetInfo(Version, BuildTime, GitCommit, GoVersion)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
