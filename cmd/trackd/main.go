// Command trackd runs the tracker daemon: it reads Mode S frames from an
// rtl_adsb-style subprocess, decodes them, feeds them to the tracking
// core, and optionally fans aircraft snapshots out over AMQP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"go1090track/internal/config"
	"go1090track/internal/frame"
	"go1090track/internal/message"
	"go1090track/internal/output"
	"go1090track/internal/rtlsdr"
	"go1090track/internal/track"
)

// application bundles everything one run of the daemon needs, in the
// shape saviobatista/go1090's main.go uses for its own Application type.
type application struct {
	cfg    config.Daemon
	log    *logrus.Logger
	tracker *track.Tracker

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newApplication(cfg config.Daemon) *application {
	log := logrus.New()
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &application{
		cfg:     cfg,
		log:     log,
		tracker: track.New(cfg.Track, log),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (app *application) start() error {
	app.log.WithFields(logrus.Fields{
		"lat":      app.cfg.Track.Latitude,
		"lon":      app.cfg.Track.Longitude,
		"mode_ac":  app.cfg.Track.ModeAC,
		"rtl_adsb": app.cfg.RTLADSBPath,
	}).Info("starting go1090track")

	dec := frame.NewDecoder()

	stop, err := rtlsdr.StartReceive(app.cfg.RTLADSBPath, func(f rtlsdr.Frame) {
		msg, err := dec.Decode(f[:], time.Now().UnixMilli(), message.SourceADSB)
		if err != nil {
			app.log.WithError(err).Debug("frame decode error")
			return
		}
		app.tracker.Update(msg)
	})
	if err != nil {
		return fmt.Errorf("trackd: %w", err)
	}

	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		<-app.ctx.Done()
		stop()
	}()

	if app.cfg.AMQPURL != "" {
		pub, err := output.Dial(app.cfg.AMQPURL, app.cfg.AMQPExchange, app.log)
		if err != nil {
			app.log.WithError(err).Error("amqp publisher disabled")
		} else {
			app.wg.Add(1)
			go func() {
				defer app.wg.Done()
				pub.Run(app.ctx, app.tracker, time.Second)
			}()
		}
	}

	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-app.ctx.Done():
				return
			case <-ticker.C:
				app.tracker.PeriodicUpdate(time.Now().UnixMilli())
			}
		}
	}()

	return nil
}

func (app *application) shutdown() {
	app.cancel()
	done := make(chan struct{})
	go func() {
		app.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		app.log.Warn("trackd: shutdown timed out, exiting anyway")
	}
}

func main() {
	v := config.NewViper()
	_ = v.ReadInConfig()

	root := &cobra.Command{
		Use:   "trackd",
		Short: "go1090track aircraft tracking daemon",
		Long:  "trackd ingests Mode S / ADS-B frames from an rtl_adsb-style demodulator and maintains a live aircraft registry.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.New(v)
			app := newApplication(cfg)
			if err := app.start(); err != nil {
				return err
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh

			app.shutdown()
			return nil
		},
	}
	config.BindFlags(root, v)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
