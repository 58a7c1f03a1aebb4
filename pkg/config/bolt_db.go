package config

import (
	"time"
)

type BoltDB struct {
	Path    string        `default:"/var/lib/ipconfd/ipconfd.db"`
	Timeout time.Duration `default:"5s"`
}
