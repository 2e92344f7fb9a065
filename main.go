// Command bingo-rooms starts the multiplayer bingo server.
//
// It supports two modes:
//  1. "serve" (default) – runs the HTTP server exposing the REST API, the player WebSocket and an /mcp endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Every flag can also be set from the environment or a .env file, and an
// optional ngrok tunnel exposes the server publicly during development.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/bingo-rooms/api"
	"github.com/wricardo/bingo-rooms/config"
	"github.com/wricardo/bingo-rooms/game/code"
	"github.com/wricardo/bingo-rooms/game/registry"
	"github.com/wricardo/bingo-rooms/game/room"
	"github.com/wricardo/bingo-rooms/game/service"
	"github.com/wricardo/bingo-rooms/transport/mcp"
	"github.com/wricardo/bingo-rooms/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
	"golang.org/x/sync/errgroup"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Bingo Rooms Server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load .env file if it exists
	envErr := godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		logrus.WithError(envErr).Warn("failed to load .env file")
	}

	if err := newCommand().Run(ctx, os.Args); err != nil {
		logrus.WithError(err).Fatal("server exited")
	}
}

// newCommand builds the CLI. Flags live on the root so both modes share them.
func newCommand() *cli.Command {
	defaults := config.Default()

	return &cli.Command{
		Name:    "bingo-rooms",
		Usage:   "Multiplayer bingo rooms over WebSocket",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "app-name",
				Value:   defaults.AppName,
				Usage:   "name reported in logs",
				Sources: cli.EnvVars("APP_NAME"),
			},
			&cli.StringFlag{
				Name:    "host",
				Value:   defaults.Host,
				Usage:   "HTTP listen host",
				Sources: cli.EnvVars("APP_HOST"),
			},
			&cli.IntFlag{
				Name:    "port",
				Value:   defaults.Port,
				Usage:   "HTTP listen port",
				Sources: cli.EnvVars("APP_PORT"),
			},
			&cli.IntFlag{
				Name:    "code-length",
				Value:   code.DefaultLength,
				Usage:   "room code length",
				Sources: cli.EnvVars("ROOM_CODE_LENGTH"),
			},
			&cli.StringFlag{
				Name:    "origins",
				Value:   strings.Join(defaults.Origins, ","),
				Usage:   "comma-separated allowed origins, * for any",
				Sources: cli.EnvVars("ORIGINS"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   defaults.LogLevel,
				Usage:   "log level (debug, info, warn, error)",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Value:   defaults.LogFormat,
				Usage:   "log format (text, json)",
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
			&cli.BoolFlag{
				Name:    "ngrok",
				Usage:   "expose the server through an ngrok tunnel",
				Sources: cli.EnvVars("NGROK_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "ngrok-auth",
				Usage:   "ngrok auth token",
				Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "ngrok-domain",
				Usage:   "custom ngrok domain",
				Sources: cli.EnvVars("NGROK_DOMAIN"),
			},
		},
		Action: runHTTPServer,
		Commands: []*cli.Command{
			{
				Name:    "serve",
				Aliases: []string{"server", "http"},
				Usage:   "run the HTTP server with REST API, WebSocket and MCP endpoint (default)",
				Action:  runHTTPServer,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "run an MCP stdio server backed by an external or internal HTTP server",
				Action:  runStdioMCP,
			},
		},
	}
}

// loadConfig reads and validates the settings from the command's flags.
func loadConfig(cmd *cli.Command) (config.Config, error) {
	cfg := config.Config{
		AppName:    cmd.String("app-name"),
		Host:       cmd.String("host"),
		Port:       int(cmd.Int("port")),
		CodeLength: int(cmd.Int("code-length")),
		Origins:    config.ParseOrigins(cmd.String("origins")),
		LogLevel:   cmd.String("log-level"),
		LogFormat:  cmd.String("log-format"),
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// app is the wired server: room registry, gateway hub and HTTP router.
type app struct {
	rooms   *registry.Registry
	hub     *websocket.Hub
	handler *api.Server
}

// newApp wires the server components. mcpBaseURL, when set, mounts the MCP
// endpoint proxying to that address.
func newApp(cfg config.Config, logger logrus.FieldLogger, mcpBaseURL string) *app {
	rooms := registry.New(
		registry.WithCodeLength(cfg.CodeLength),
		registry.WithLogger(logger),
		registry.WithRoomOptions(room.WithLogger(logger)),
	)

	hub := websocket.NewHub(rooms, logger, websocket.WithOriginCheck(func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || cfg.OriginAllowed(origin)
	}))

	handler := api.NewServer(service.NewRoomService(rooms), hub,
		api.WithLogger(logger),
		api.WithOriginPolicy(cfg),
	)
	if mcpBaseURL != "" {
		handler.Mount("/mcp", mcp.NewClient(mcpBaseURL).HTTPHandler(), "POST")
	}

	return &app{rooms: rooms, hub: hub, handler: handler}
}

// localURL is the address this process can reach its own server on.
func localURL(cfg config.Config) string {
	host := cfg.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, fmt.Sprint(cfg.Port))
}

// runHTTPServer serves the REST API, the WebSocket gateway and /mcp until ctx
// is cancelled. If ngrok is enabled it also provisions a public tunnel.
func runHTTPServer(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := cfg.NewLogger(os.Stderr)
	if err != nil {
		return err
	}
	log := logger.WithField("app", cfg.AppName)

	a := newApp(cfg, log, localURL(cfg))

	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      a.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		log.WithFields(logrus.Fields{
			"addr":    cfg.Addr(),
			"version": Version,
		}).Infof("%s listening", AppName)
		log.Infof("REST API: %s/room", localURL(cfg))
		log.Infof("WebSocket: ws://%s/ws?room_id=<room_id>&player_name=<name>", cfg.Addr())
		log.Infof("MCP endpoint: %s/mcp", localURL(cfg))

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("http server shutdown")
		}
		return nil
	})

	if cmd.Bool("ngrok") {
		g.Go(func() error {
			serveNgrok(gctx, cmd, a.handler, log)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}

// serveNgrok serves handler through an ngrok tunnel until ctx is cancelled.
// Tunnel failures are logged and never stop the main server.
func serveNgrok(ctx context.Context, cmd *cli.Command, handler http.Handler, log logrus.FieldLogger) {
	authToken := cmd.String("ngrok-auth")
	if authToken == "" {
		log.Warn("ngrok enabled but no auth token provided (use --ngrok-auth or NGROK_AUTHTOKEN)")
		return
	}

	log.Info("starting ngrok tunnel")

	var tunnel ngrokConfig.Tunnel
	if domain := cmd.String("ngrok-domain"); domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		log.WithField("domain", domain).Info("using custom ngrok domain")
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		log.WithError(err).Error("failed to start ngrok tunnel")
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.WithError(err).Warn("failed to close ngrok tunnel")
		}
	}()

	log.WithField("url", tun.URL()).Info("ngrok tunnel established")

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		log.WithError(err).Error("ngrok server error")
	}
	log.Info("ngrok tunnel closed")
}

// runStdioMCP runs an MCP stdio server. It reuses a server already answering
// on the configured port; otherwise it starts an internal HTTP API on a
// random loopback port and targets that. Logs go to stderr, stdout carries
// the protocol.
func runStdioMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := cfg.NewLogger(os.Stderr)
	if err != nil {
		return err
	}
	log := logger.WithField("app", cfg.AppName)

	baseURL := localURL(cfg)
	log.WithField("url", baseURL).Info("checking for external API server")

	if !serverAvailable(ctx, baseURL) {
		log.Info("no external API server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		baseURL = "http://" + listener.Addr().String()

		a := newApp(cfg, log, "")
		internal := &http.Server{Handler: a.handler}

		hubCtx, cancelHub := context.WithCancel(ctx)
		defer cancelHub()
		go a.hub.Run(hubCtx)

		go func() {
			if err := internal.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("internal HTTP server error")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			internal.Shutdown(shutdownCtx)
		}()

		log.WithField("url", baseURL).Info("internal HTTP server started")
	}

	mcpClient := mcp.NewClient(baseURL)
	log.WithField("url", baseURL).Info("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("mcp stdio server: %w", err)
	}
	return nil
}

// serverAvailable reports whether a bingo server answers its health check at
// baseURL.
func serverAvailable(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}
