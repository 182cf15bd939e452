// Package daemon serves battery snapshots over HTTP on a unix socket and
// streams state changes to subscribers.
package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/battinfo/pkg/battery"
	"github.com/charlie0129/battinfo/pkg/config"
	"github.com/charlie0129/battinfo/pkg/events"
	"github.com/charlie0129/battinfo/pkg/powerinfo"
)

// Daemon keeps the latest battery snapshots of a Manager.
type Daemon struct {
	conf    config.Config
	manager *battery.Manager
	hub     *events.EventHub

	// pollMu serializes polls, so every poll sees the result of the
	// previous one.
	pollMu sync.Mutex

	mu        sync.RWMutex
	batteries []*powerinfo.Battery
	lastErr   error

	recorder *PollRecorder
}

// New returns a Daemon polling m. It does not start polling.
func New(conf config.Config, m *battery.Manager) *Daemon {
	return &Daemon{
		conf:     conf,
		manager:  m,
		hub:      events.NewEventHub(),
		recorder: NewPollRecorder(60),
	}
}

// Hub returns the hub battery events are published on.
func (d *Daemon) Hub() *events.EventHub {
	return d.hub
}

func (d *Daemon) setupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logrus.WithField("component", "http")))
	router.GET("/batteries", d.getBatteries)
	router.GET("/batteries/:index", d.getBattery)
	router.GET("/events", d.getEvents)
	router.GET("/status", d.getStatus)
	router.GET("/config", d.getConfig)
	router.GET("/version", getVersion)

	return router
}

// Run starts the daemon on the configured socket and blocks until ctx is
// done or SIGINT/SIGTERM is received. SIGHUP reloads conf from its file.
func Run(ctx context.Context, conf *config.File, allowNonRoot bool) error {
	logrus.WithFields(conf.LogrusFields()).Infof("config loaded")
	unixSocketPath := conf.DaemonSocket()

	src, err := battery.NewSource(conf.Source(), conf.SysfsRoot())
	if err != nil {
		return err
	}
	m, err := battery.NewManager(battery.WithSource(src))
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to create battery manager")
	}
	defer m.Close()

	d := New(conf, m)
	router := d.setupRoutes()

	// Receive SIGHUP to reload config
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for range hup {
			err := conf.Load()
			if err != nil {
				logrus.Errorf("failed to reload config: %v", err)
				continue
			}
			logrus.WithFields(conf.LogrusFields()).Infof("config reloaded")
		}
	}()

	srv := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// A stale socket from a previous run makes Listen fail.
	if err := os.Remove(unixSocketPath); err != nil && !os.IsNotExist(err) {
		return pkgerrors.Wrapf(err, "failed to remove stale socket %s", unixSocketPath)
	}
	l, err := net.Listen("unix", unixSocketPath)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to listen on %s", unixSocketPath)
	}

	if conf.AllowNonRootAccess() || allowNonRoot {
		logrus.Infof("non-root access is allowed, changing permissions of %s to 0777", unixSocketPath)
		err = os.Chmod(unixSocketPath, 0777)
		if err != nil {
			_ = l.Close()
			return pkgerrors.Wrapf(err, "failed to change permissions of %s", unixSocketPath)
		}
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logrus.Infof("http server listening on %s", l.Addr().String())
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		logrus.Debugln("poll loop starts")
		d.pollLoop(ctx)
	}()

	select {
	case <-ctx.Done():
		logrus.Info("shutting down")
	case err = <-serveErr:
		logrus.Errorf("http server failed: %v", err)
		stop()
	}

	logrus.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("failed to shutdown http server: %v", err)
	}
	cancel()
	<-loopDone

	logrus.Info("exiting")
	return err
}
