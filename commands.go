package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Subhasishpanda1777/Cipher7/internal/config"
	"github.com/Subhasishpanda1777/Cipher7/internal/database"
	"github.com/Subhasishpanda1777/Cipher7/internal/handlers"
	logger "github.com/Subhasishpanda1777/Cipher7/internal/logging"
	"github.com/Subhasishpanda1777/Cipher7/internal/router"
	"github.com/Subhasishpanda1777/Cipher7/internal/screening"
	"github.com/Subhasishpanda1777/Cipher7/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"

	serverShutdownWait = 5 * time.Second
)

var (
	serveCmd = &cli.Command{
		Name:   "serve",
		Usage:  "Run the screening API",
		Action: serve,
	}

	migrateCmd = &cli.Command{
		Name:   "migrate",
		Usage:  "Create or update the database schema",
		Action: migrate,
	}

	scoreCmd = &cli.Command{
		Name:    "score",
		Aliases: []string{"s"},
		Usage:   "Score a recorded capture file offline",
		Action:  score,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "Path to the capture JSON file",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "protocol",
				Usage: "Path to a protocol YAML file (default protocol when empty)",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Output format [json, yaml]",
				Value: formatJSON,
			},
		},
	}
)

// bootstrap loads configuration and builds the logger it describes.
func bootstrap(root string) (*zap.Logger, error) {
	conf, _, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	log, err := logger.Init(root, conf.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := config.Init(root, log); err != nil {
		return nil, err
	}
	return log, nil
}

func serve(c *cli.Context) error {
	root := c.String(rootFlag.Name)
	log, err := bootstrap(root)
	if err != nil {
		return err
	}
	defer log.Sync()

	conf := config.Conf
	gin.SetMode(conf.Server.Mode)

	if err := database.Init(log); err != nil {
		return err
	}

	protocolFile := conf.Screening.ProtocolFile
	if protocolFile != "" && !filepath.IsAbs(protocolFile) {
		protocolFile = filepath.Join(root, protocolFile)
	}
	protocol, err := screening.LoadProtocol(protocolFile)
	if err != nil {
		return fmt.Errorf("failed to load protocol: %w", err)
	}
	log.Info("Screening protocol loaded",
		zap.Int("waypoints", len(protocol.Tracking.Waypoints)),
		zap.Int("contrast_trials", len(protocol.Contrast.Trials)))

	sessions := screening.NewManager(protocol)
	svc := services.NewScreeningService(log, sessions, services.NewReminderService(log),
		conf.Screening.SessionTTL, conf.Screening.FollowUpAfter)

	if conf.Scheduler.Enabled {
		scheduler, err := services.NewScheduler(log, svc, conf.Scheduler.FollowUpTime)
		if err != nil {
			return err
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	r := router.Setup(log, conf.Server,
		handlers.NewScreeningHandler(log, svc),
		handlers.NewRecordsHandler(log))

	s := &http.Server{
		Addr:              ":" + conf.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Failed to run server", zap.Error(err))
			done <- syscall.SIGTERM
		}
	}()

	log.Info("Server listening", zap.String("address", "http://localhost"+s.Addr))

	<-done

	ctx, cancel := context.WithTimeout(context.Background(), serverShutdownWait)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("Error shutting down server", zap.Error(err))
	}
	log.Info("Server stopped")
	return nil
}

func migrate(c *cli.Context) error {
	root := c.String(rootFlag.Name)
	log, err := bootstrap(root)
	if err != nil {
		return err
	}
	defer log.Sync()

	db, err := database.Open(config.Conf.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	return database.Migrate(db, log)
}

func score(c *cli.Context) error {
	format := c.String("format")
	if format != formatJSON && format != formatYAML {
		return fmt.Errorf("unsupported output format %q", format)
	}

	protocol, err := screening.LoadProtocol(c.String("protocol"))
	if err != nil {
		return fmt.Errorf("failed to load protocol: %w", err)
	}

	capture, err := screening.LoadCapture(c.String("file"))
	if err != nil {
		return err
	}

	report, err := screening.ScoreCapture(capture, protocol)
	if err != nil {
		return fmt.Errorf("failed to score capture: %w", err)
	}

	w := c.App.Writer
	if format == formatYAML {
		out, err := yaml.Marshal(report)
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		_, err = w.Write(out)
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
