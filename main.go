package main

import (
	"context"
	"errors"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/UnAfraid/ipconfd/pkg/api"
	"github.com/UnAfraid/ipconfd/pkg/config"
	"github.com/UnAfraid/ipconfd/pkg/datastore"
	"github.com/UnAfraid/ipconfd/pkg/datastore/bbolt"
	"github.com/UnAfraid/ipconfd/pkg/dbx"
	"github.com/UnAfraid/ipconfd/pkg/ipconfig"
	"github.com/UnAfraid/ipconfd/pkg/ippool"
	"github.com/UnAfraid/ipconfd/pkg/kernel"
	"github.com/UnAfraid/ipconfd/pkg/manage"
	"github.com/UnAfraid/ipconfd/pkg/subscription"
	"github.com/UnAfraid/ipconfd/pkg/sysctl"
)

const (
	appName = "ipconfd"
)

func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "severity",
			logrus.FieldKeyMsg:   "message",
		},
		TimestampFormat: time.RFC3339,
	})

	conf, err := config.Load(appName)
	if err != nil {
		logrus.
			WithError(err).
			Fatal("failed to initialize config")
		return
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGTERM, syscall.SIGINT)

	if _, err := maxprocs.Set(maxprocs.Logger(logrus.Printf)); err != nil {
		logrus.
			WithError(err).
			Error("failed to set maxprocs")
		return
	}

	debugServer := &http.Server{
		Addr:              conf.DebugServer.Address(),
		ReadHeaderTimeout: conf.HttpServer.ReadHeaderTimeout,
	}

	if conf.DebugServer.Enabled {
		go func() {
			logrus.WithField("address", conf.DebugServer.Address()).Info("Starting serving debug server")
			if err := debugServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logrus.
					WithError(err).
					Fatal("Failed to serve debug")
				return
			}
		}()
	}

	logrus.Info("initializing database..")
	db, err := datastore.NewBBoltDB(conf.BoltDB.Path, conf.BoltDB.Timeout)
	if err != nil {
		logrus.
			WithError(err).
			Fatal("failed initialize datastore")
		return
	}
	defer func() {
		if err := db.Close(); err != nil {
			logrus.
				WithError(err).
				Error("failed to close datastore")
		}
	}()

	transactionScoper := dbx.NewBBoltTransactionScoper(db)
	subscriptionImpl := subscription.NewInMemorySubscription()
	keyFileRepository := bbolt.NewKeyFileRepository(db)

	sysctlImpl := sysctl.New(afero.NewOsFs(), conf.Sysctl.Root)
	ipPool := ippool.New()
	addressManager := kernel.NewAddressManager()

	registry := ipconfig.NewRegistry(ipconfig.Options{
		IPv6Supported:  sysctlImpl.IPv6Supported(),
		Sysctl:         sysctlImpl,
		AddressManager: addressManager,
		IPPool:         ipPool,
		StatsNotifier:  manage.NewStatsNotifier(subscriptionImpl),
	})

	manageService := manage.NewService(
		registry,
		keyFileRepository,
		transactionScoper,
		subscriptionImpl,
		ipPool,
		addressManager,
		manage.Options{
			AutoConfigure: conf.AutoConfigure,
		},
	)
	defer func() {
		if err := manageService.Close(); err != nil {
			logrus.
				WithError(err).
				Error("failed to close manage service")
		}
	}()

	monitorCtx, monitorCancel := context.WithCancel(context.Background())
	defer monitorCancel()

	monitorDone := make(chan struct{})
	go func() {
		defer close(monitorDone)

		if err := kernel.NewMonitor(manageService).Run(monitorCtx); err != nil {
			logrus.
				WithError(err).
				Error("kernel monitor stopped")
			select {
			case shutdownChan <- syscall.SIGTERM:
			default:
			}
		}
	}()

	statsUpdater := manage.NewStatsUpdater(
		manageService,
		kernel.ListLinks,
		conf.AutomaticStatsUpdateInterval,
		conf.AutomaticStatsUpdateOnlyWithSubscribers,
	)
	defer statsUpdater.Close()

	router := api.NewRouter(conf, manageService)

	httpServer := http.Server{
		Addr:              conf.HttpServer.Address(),
		Handler:           router,
		ReadHeaderTimeout: conf.HttpServer.ReadHeaderTimeout,
	}

	go func() {
		logrus.WithField("address", conf.HttpServer.Address()).Info("Starting serving http server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.
				WithError(err).
				Fatal("failed to listen and serve http server")
		}
	}()

	<-shutdownChan
	logrus.Info("Shutting down")

	logrus.Info("Shutting down kernel monitor")
	monitorCancel()
	<-monitorDone

	logrus.Info("Shutting down http server")
	httpServerShutdownTimeoutCtx, cancel := context.WithTimeout(context.Background(), conf.HttpServer.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(httpServerShutdownTimeoutCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logrus.
			WithError(err).
			Error("failed to shutdown http server")
	}

	if conf.DebugServer.Enabled {
		logrus.Info("Shutting down debug http server")
		debugHttpServerShutdownTimeoutCtx, cancel := context.WithTimeout(context.Background(), conf.HttpServer.ShutdownTimeout)
		defer cancel()
		if err := debugServer.Shutdown(debugHttpServerShutdownTimeoutCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.
				WithError(err).
				Error("failed to shutdown debug server")
		}
	}
}
