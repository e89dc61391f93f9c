package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/gops/agent"
	"github.com/nicolagi/notes/server"
	"github.com/nicolagi/notes/storage"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	var (
		configFile string
		flags      config
	)
	cmd := &cobra.Command{
		Use:          "notesserver",
		Short:        "Serve a directory of notes over HTTP",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := new(config)
			if configFile != "" {
				var err error
				if c, err = loadConfig(configFile); err != nil {
					return err
				}
			}
			changed := cmd.Flags().Changed
			if changed("host") {
				c.Host = flags.Host
			}
			if changed("port") {
				c.Port = flags.Port
			}
			if changed("cache") {
				c.Cache = flags.Cache
			}
			if changed("debug") {
				c.Debug = flags.Debug
			}
			c.applyDefaultsForMissingProperties()
			if err := c.validate(); err != nil {
				return err
			}
			run(c)
			return nil
		},
	}
	f := cmd.Flags()
	// -h is for the host, so help only gets the long form.
	f.Bool("help", false, "help for notesserver")
	f.StringVarP(&flags.Host, "host", "h", "", "server host")
	f.IntVarP(&flags.Port, "port", "p", 0, "server port")
	f.StringVarP(&flags.Cache, "cache", "c", "", "cache directory")
	f.BoolVar(&flags.Debug, "debug", false, "log at debug level")
	f.StringVar(&configFile, "config", "", "location of configuration file")
	return cmd
}

func run(c *config) {
	if c.Debug {
		log.SetLevel(log.DebugLevel)
	}

	if err := agent.Listen(agent.Options{}); err != nil {
		log.WithField("err", err).Warn("Could not start gops agent")
	} else {
		defer agent.Close()
	}

	if err := os.MkdirAll(c.Cache, 0700); err != nil {
		log.Fatalf("Could not ensure directory %q exists: %v", c.Cache, err)
	}
	disk, err := storage.NewDiskStore(c.Cache)
	if err != nil {
		log.WithFields(log.Fields{
			"err":  err,
			"path": c.Cache,
		}).Fatal("Could not open note directory")
	}
	var store storage.Store = disk
	if c.SerializeWrites {
		store = storage.NewSerialized(disk)
	}
	log.WithFields(log.Fields{
		"dir":        disk.Dir(),
		"serialized": c.SerializeWrites,
	}).Info("Will use a disk-based backend")

	srv := server.New(
		server.WithAddress(net.JoinHostPort(c.Host, strconv.Itoa(c.Port))),
		server.WithStore(store),
		server.WithMaxNoteSize(c.MaxNoteSize),
		server.WithRateLimit(c.limit(), c.RateBurst),
		server.WithTimeouts(c.readTimeout, c.writeTimeout),
	)
	addr, err := srv.Listen()
	if err != nil {
		log.WithField("err", err).Fatal("Could not listen")
	}
	log.Infof("Server running at http://%s", addr)

	// Serve only returns after Shutdown, so shut down on signals.
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		defer close(done)
		sig := <-sigc
		log.WithField("signal", sig).Info("Shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	if err := srv.Serve(); err != nil {
		log.WithField("err", err).Error("Could not serve")
		return
	}
	// Let in-flight requests complete.
	<-done
}
