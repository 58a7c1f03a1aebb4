package config

import (
	"slices"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	conf, err := Load("ipconfd-test")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if conf.BoltDB.Path != "/var/lib/ipconfd/ipconfd.db" || conf.BoltDB.Timeout != 5*time.Second {
		t.Fatalf("unexpected bolt db config %+v", conf.BoltDB)
	}
	if conf.HttpServer.Address() != ":8080" {
		t.Fatalf("unexpected http address %s", conf.HttpServer.Address())
	}
	if conf.DebugServer.Enabled || conf.DebugServer.Address() != "127.0.0.1:6060" {
		t.Fatalf("unexpected debug server config %+v", conf.DebugServer)
	}
	if conf.Sysctl.Root != "/proc/sys" {
		t.Fatalf("unexpected sysctl root %s", conf.Sysctl.Root)
	}
	if conf.AutomaticStatsUpdateInterval != 30*time.Second || !conf.AutomaticStatsUpdateOnlyWithSubscribers {
		t.Fatalf("unexpected stats update config %s %v", conf.AutomaticStatsUpdateInterval, conf.AutomaticStatsUpdateOnlyWithSubscribers)
	}
	if !conf.AutoConfigure {
		t.Fatalf("expected auto configure by default")
	}
	if !slices.Equal(conf.CorsAllowedOrigins, []string{"*"}) {
		t.Fatalf("unexpected cors origins %v", conf.CorsAllowedOrigins)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("IPCONFD_TEST_BOLT_DB_PATH", "/tmp/ipconfd.db")
	t.Setenv("IPCONFD_TEST_HTTP_SERVER_PORT", "9090")
	t.Setenv("IPCONFD_TEST_SYSCTL_ROOT", "/tmp/sys")
	t.Setenv("IPCONFD_TEST_AUTO_CONFIGURE", "false")
	t.Setenv("IPCONFD_TEST_SUBSCRIPTION_ALLOWED_ORIGINS", "a.example,b.example")
	t.Setenv("IPCONFD_TEST_DEBUG_SERVER_HOST", "::1")
	t.Setenv("IPCONFD_TEST_AUTOMATIC_STATS_UPDATE_INTERVAL", "0")

	conf, err := Load("ipconfd test")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if conf.BoltDB.Path != "/tmp/ipconfd.db" {
		t.Fatalf("unexpected bolt db path %s", conf.BoltDB.Path)
	}
	if conf.HttpServer.Port != 9090 {
		t.Fatalf("unexpected http port %d", conf.HttpServer.Port)
	}
	if conf.Sysctl.Root != "/tmp/sys" {
		t.Fatalf("unexpected sysctl root %s", conf.Sysctl.Root)
	}
	if conf.AutoConfigure {
		t.Fatalf("expected auto configure to be disabled")
	}
	if conf.DebugServer.Address() != "[::1]:6060" {
		t.Fatalf("unexpected debug server address %s", conf.DebugServer.Address())
	}
	if conf.AutomaticStatsUpdateInterval != 0 {
		t.Fatalf("expected stats polling to be disabled, got %s", conf.AutomaticStatsUpdateInterval)
	}
	if !slices.Equal(conf.SubscriptionAllowedOrigins, []string{"a.example", "b.example"}) {
		t.Fatalf("unexpected subscription origins %v", conf.SubscriptionAllowedOrigins)
	}

	t.Setenv("IPCONFD_TEST_HTTP_SERVER_PORT", "http")
	if _, err := Load("ipconfd-test"); err == nil {
		t.Fatalf("expected invalid port to fail")
	}
}
