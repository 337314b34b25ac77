package schem

// Version and BuildDate are overridden at link time:
//
//	go build -ldflags "-X github.com/karl-rathmanner/golem-sub000.Version=v1.2.3"
var (
	Version   = "v0.1.0-dev"
	BuildDate = "unknown"
)
