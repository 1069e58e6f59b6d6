package version

// Version is the release version of this server.
var Version = "0.1.0"

// GitRevision is injected at build time:
//
//	go build -ldflags "-X .../internal/version.GitRevision=$(git rev-parse --short HEAD)"
var GitRevision = "unknown"
