// Command fancyd runs the static-file HTTP/1.1 origin server: a single
// reactor loop servicing every accepted connection in one goroutine, no
// per-connection threads or worker pool.
package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/yourusername/fancyd/pkg/fancyd/httpd"
)

func main() {
	logger := log.New(os.Stderr, "fancyd: ", log.LstdFlags)

	app := cli.NewApp()
	app.Name = "fancyd"
	app.Usage = "single-threaded, edge-triggered static HTTP origin server"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "root",
			Value: ".",
			Usage: "document root to serve static files from",
		},
		cli.IntFlag{
			Name:  "port",
			Value: 9877,
			Usage: "TCP port to listen on",
		},
		cli.IntFlag{
			Name:  "max-conns",
			Value: 128,
			Usage: "fixed cardinality of the connection pool",
		},
		cli.IntFlag{
			Name:  "max-events",
			Value: 128,
			Usage: "max ready descriptors requested from epoll_wait per tick",
		},
		cli.IntFlag{
			Name:  "request-timeout",
			Value: 5000,
			Usage: "idle read timeout in milliseconds before a connection is closed",
		},
		cli.StringFlag{
			Name:  "metrics-addr",
			Value: "",
			Usage: "address to expose /metrics on (built with -tags prometheus); empty disables it",
		},
	}

	app.Action = func(c *cli.Context) error {
		cfg := httpd.DefaultConfig()
		cfg.DocRoot = c.String("root")
		cfg.Port = c.Int("port")
		cfg.MaxConnections = c.Int("max-conns")
		cfg.MaxEvents = c.Int("max-events")
		cfg.RequestTimeoutMs = int64(c.Int("request-timeout"))

		if _, err := os.Stat(cfg.DocRoot); err != nil {
			return errors.Wrapf(err, "document root %q", cfg.DocRoot)
		}

		srv, err := httpd.New(cfg, logger)
		if err != nil {
			return errors.Wrap(err, "constructing server")
		}
		defer srv.Close()

		serveMetrics(c.String("metrics-addr"), srv, logger)

		stop := make(chan struct{})
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		signal.Ignore(syscall.SIGPIPE)
		go func() {
			<-sig
			logger.Printf("received shutdown signal")
			close(stop)
		}()

		logger.Printf("listening on :%d, root=%s, max-conns=%d", cfg.Port, cfg.DocRoot, cfg.MaxConnections)
		if err := srv.Run(stop); err != nil {
			return errors.Wrap(err, "server run")
		}
		return nil
	}

	if err := app.Run(os.Args); err != nil {
		logger.Fatalf("%v", err)
	}
}
