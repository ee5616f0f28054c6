package constants

// AppName is the binary name used in help output and metric names
const AppName = "sendtos3"

// DefaultVersion is the default version of the application
const DefaultVersion = "0.1.0-dev"

// DefaultBuildTime is the default build time when not provided at build time
const DefaultBuildTime = "unknown"

// DefaultGitCommit is the default git commit hash when not provided at build time
const DefaultGitCommit = "unknown"

// DefaultGoVersion is the default Go version when not provided at build time
const DefaultGoVersion = "unknown"
