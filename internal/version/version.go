package version

// Version is the current tikget version, overridden at build time via
// -ldflags "-X github.com/guiyumin/tikget/internal/version.Version=..."
var Version = "0.3.1"
