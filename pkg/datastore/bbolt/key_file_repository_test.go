package bbolt

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"go.etcd.io/bbolt"

	"github.com/UnAfraid/ipconfd/pkg/datastore"
	"github.com/UnAfraid/ipconfd/pkg/dbx"
	"github.com/UnAfraid/ipconfd/pkg/ipconfig"
)

func openTestDB(t *testing.T) *bbolt.DB {
	t.Helper()

	db, err := datastore.NewBBoltDB(filepath.Join(t.TempDir(), "data", "ipconfd.db"), time.Second)
	if err != nil {
		t.Fatalf("NewBBoltDB failed: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close db: %v", err)
		}
	})
	return db
}

func TestKeyFileRepositoryValues(t *testing.T) {
	ctx := context.Background()
	store := NewKeyFileRepository(openTestDB(t))

	if value, err := store.GetString(ctx, "eth0", "IPv4.method"); err != nil || value != nil {
		t.Fatalf("expected absent value from empty store, got %v %v", value, err)
	}

	if err := store.SetString(ctx, "eth0", "IPv4.method", "manual"); err != nil {
		t.Fatalf("SetString failed: %v", err)
	}
	if err := store.SetInt(ctx, "eth0", "IPv4.netmask_prefixlen", 24); err != nil {
		t.Fatalf("SetInt failed: %v", err)
	}
	if err := store.SetStringList(ctx, "eth0", "IPv6.DHCP.LastPrefixes", []string{"2001:db8::/56"}); err != nil {
		t.Fatalf("SetStringList failed: %v", err)
	}

	method, err := store.GetString(ctx, "eth0", "IPv4.method")
	if err != nil || method == nil || *method != "manual" {
		t.Fatalf("unexpected method %v %v", method, err)
	}
	prefixLength, err := store.GetInt(ctx, "eth0", "IPv4.netmask_prefixlen")
	if err != nil || prefixLength == nil || *prefixLength != 24 {
		t.Fatalf("unexpected prefix length %v %v", prefixLength, err)
	}
	prefixes, err := store.GetStringList(ctx, "eth0", "IPv6.DHCP.LastPrefixes")
	if err != nil || !slices.Equal(prefixes, []string{"2001:db8::/56"}) {
		t.Fatalf("unexpected prefixes %v %v", prefixes, err)
	}

	if value, err := store.GetString(ctx, "eth1", "IPv4.method"); err != nil || value != nil {
		t.Fatalf("expected identifiers to be isolated, got %v %v", value, err)
	}

	if err := store.RemoveKey(ctx, "eth0", "IPv4.method"); err != nil {
		t.Fatalf("RemoveKey failed: %v", err)
	}
	if value, err := store.GetString(ctx, "eth0", "IPv4.method"); err != nil || value != nil {
		t.Fatalf("expected removed value, got %v %v", value, err)
	}
	if err := store.RemoveKey(ctx, "eth0", "IPv4.missing"); err != nil {
		t.Fatalf("RemoveKey of missing key failed: %v", err)
	}

	if _, err := store.GetInt(ctx, "eth0", "IPv6.DHCP.LastPrefixes"); err == nil {
		t.Fatalf("expected type mismatch to fail")
	}
}

func TestKeyFileRepositoryConfigRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	store := NewKeyFileRepository(db)
	transactionScoper := dbx.NewBBoltTransactionScoper(db)
	registry := ipconfig.NewRegistry(ipconfig.Options{IPv6Supported: true})

	saved := registry.NewIPv4Config(ipconfig.DetachedIndex)
	if err := saved.SetMethod(ipconfig.MethodFixed); err != nil {
		t.Fatalf("SetMethod failed: %v", err)
	}
	saved.SetLocal("10.1.2.3", 16)
	saved.SetPeer("10.1.2.4")
	saved.SetBroadcast("10.1.255.255")
	saved.SetGateway("10.1.0.1")

	err := transactionScoper.InTransactionScope(ctx, func(ctx context.Context) error {
		return saved.Save(ctx, store, "eth0", "IPv4.")
	})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded := registry.NewIPv4Config(ipconfig.DetachedIndex)
	err = transactionScoper.InReadScope(ctx, func(ctx context.Context) error {
		return loaded.Load(ctx, store, "eth0", "IPv4.")
	})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Method() != ipconfig.MethodFixed {
		t.Fatalf("expected fixed, got %s", loaded.Method())
	}
	if wanted, expected := loaded.Wanted(), saved.Wanted(); !wanted.Equal(&expected) {
		t.Fatalf("expected %+v, got %+v", expected, wanted)
	}
}

func TestTransactionScopeRollsBack(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	store := NewKeyFileRepository(db)
	transactionScoper := dbx.NewBBoltTransactionScoper(db)

	failure := errors.New("failure")
	err := transactionScoper.InTransactionScope(ctx, func(ctx context.Context) error {
		if err := store.SetString(ctx, "eth0", "IPv4.method", "off"); err != nil {
			return err
		}
		return failure
	})
	if !errors.Is(err, failure) {
		t.Fatalf("expected failure, got %v", err)
	}

	if value, err := store.GetString(ctx, "eth0", "IPv4.method"); err != nil || value != nil {
		t.Fatalf("expected rolled back write, got %v %v", value, err)
	}

	err = transactionScoper.InReadScope(ctx, func(ctx context.Context) error {
		return store.SetString(ctx, "eth0", "IPv4.method", "off")
	})
	if !errors.Is(err, dbx.ErrReadOnlyTransaction) {
		t.Fatalf("expected ErrReadOnlyTransaction, got %v", err)
	}
}
