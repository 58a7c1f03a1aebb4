package config

import (
	"net"
	"strconv"
	"time"
)

type HttpServer struct {
	Host              string        `default:""`
	Port              uint16        `default:"8080"`
	ReadHeaderTimeout time.Duration `default:"10s" split_words:"true"`
	ShutdownTimeout   time.Duration `default:"30s" split_words:"true"`
}

func (s *HttpServer) Address() string {
	return hostPort(s.Host, s.Port)
}

// DebugServer serves pprof, loopback only unless configured otherwise.
type DebugServer struct {
	Enabled bool   `default:"false"`
	Host    string `default:"127.0.0.1"`
	Port    uint16 `default:"6060"`
}

func (s *DebugServer) Address() string {
	return hostPort(s.Host, s.Port)
}

func hostPort(host string, port uint16) string {
	return net.JoinHostPort(host, strconv.FormatUint(uint64(port), 10))
}
