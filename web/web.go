// Package web assembles the HTTP server: the JSON API, the single-page app
// and the maintenance jobs.
package web

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cardtracker/cardtracker/config"
	"github.com/cardtracker/cardtracker/logger"
	"github.com/cardtracker/cardtracker/util/random"
	"github.com/cardtracker/cardtracker/web/cache"
	"github.com/cardtracker/cardtracker/web/controller"
	"github.com/cardtracker/cardtracker/web/entity"
	"github.com/cardtracker/cardtracker/web/job"
	"github.com/cardtracker/cardtracker/web/network"
	"github.com/cardtracker/cardtracker/web/service"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
)

const shutdownTimeout = 10 * time.Second

// Server is the card tracker HTTP server with its scheduled jobs.
type Server struct {
	httpServer *http.Server
	listener   net.Listener

	api *controller.APIController
	tcg *service.TCGClient

	cron *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc
}

func NewServer() *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{ctx: ctx, cancel: cancel}
}

// newAuthService makes sure a signing secret exists. A generated secret
// invalidates all tokens on restart.
func newAuthService() *service.AuthService {
	if config.GetJWTSecret() == "" {
		if !config.IsDebug() {
			logger.Warning("jwt_secret is not set, using a random secret; tokens will not survive a restart")
		}
		config.SetJWTSecret(random.Seq(32))
	}
	return service.NewAuthService()
}

func (s *Server) initRouter() (*gin.Engine, error) {
	if config.IsDebug() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.DefaultWriter = io.Discard
		gin.DefaultErrorWriter = io.Discard
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.Default()
	if err := engine.SetTrustedProxies(config.GetTrustedProxies()); err != nil {
		return nil, fmt.Errorf("trusted_proxies: %w", err)
	}
	// compress the app's static files; API responses are small
	engine.Use(gzip.Gzip(
		gzip.DefaultCompression,
		gzip.WithExcludedPaths([]string{"/api/"}),
	))

	g := engine.Group("/")
	s.api = controller.NewAPIController(g, newAuthService(), s.tcg, config.GetRateLimit())

	webDir := config.GetWebDir()
	if webDir != "" {
		if info, err := os.Stat(webDir); err != nil || !info.IsDir() {
			return nil, fmt.Errorf("web_dir %q is not a directory", webDir)
		}
	}
	engine.NoRoute(spaHandler(webDir))

	return engine, nil
}

// spaHandler serves files from webDir and falls back to index.html so the
// app can handle its own routes. Unknown /api paths are JSON 404s.
func spaHandler(webDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := c.Request.URL.Path
		if webDir == "" || p == "/api" || strings.HasPrefix(p, "/api/") ||
			(c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead) {
			c.JSON(http.StatusNotFound, entity.Msg{Message: "Not found"})
			return
		}

		file := filepath.Join(webDir, filepath.FromSlash(path.Clean("/"+p)))
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			c.File(file)
			return
		}
		index := filepath.Join(webDir, "index.html")
		if _, err := os.Stat(index); err != nil {
			c.JSON(http.StatusNotFound, entity.Msg{Message: "Not found"})
			return
		}
		c.File(index)
	}
}

// cronLogger routes cron's own messages to the application logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	logger.Debug("cron: ", msg, " ", keysAndValues)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	logger.Error("cron: ", msg, " ", keysAndValues, ": ", err)
}

func (s *Server) startTask() {
	purge := job.NewPurgeDeletedJob(config.GetPurgeAfterDays())
	if _, err := s.cron.AddJob("@daily", purge); err != nil {
		logger.Warning("Add PurgeDeletedJob error", err)
	}
	refresh := job.NewRefreshPricesJob(s.ctx, s.tcg)
	if _, err := s.cron.AddJob("0 4 * * *", refresh); err != nil {
		logger.Warning("Add RefreshPricesJob error", err)
	}
}

func (s *Server) Start() (err error) {
	defer func() {
		if err != nil {
			_ = s.Stop()
		}
	}()

	if err := cache.InitRedis(config.GetRedisAddr()); err != nil {
		// the app works without Redis: no rate limiting, no list cache
		logger.Warning("Redis unavailable:", err)
	}
	s.tcg = service.NewTCGClientFromConfig()

	log := cronLogger{}
	s.cron = cron.New(
		cron.WithLocation(time.Local),
		cron.WithLogger(log),
		cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)),
	)
	s.cron.Start()

	engine, err := s.initRouter()
	if err != nil {
		return err
	}

	listenAddr := net.JoinHostPort(config.GetListen(), strconv.Itoa(config.GetPort()))
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}

	certFile, keyFile := config.GetCertFile(), config.GetKeyFile()
	if certFile != "" || keyFile != "" {
		if cert, err := tls.LoadX509KeyPair(certFile, keyFile); err == nil {
			cfg := &tls.Config{Certificates: []tls.Certificate{cert}}
			listener = network.NewRedirectListener(listener)
			listener = tls.NewListener(listener, cfg)
			logger.Info("Web server running HTTPS on ", listener.Addr())
		} else {
			logger.Error("Error loading certificates:", err)
			logger.Info("Web server running HTTP on ", listener.Addr())
		}
	} else {
		logger.Info("Web server running HTTP on ", listener.Addr())
	}

	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Web server stopped:", err)
		}
	}()

	s.startTask()
	return nil
}

// Stop shuts the server down, waiting for in-flight requests and jobs.
func (s *Server) Stop() error {
	s.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if s.cron != nil {
		select {
		case <-s.cron.Stop().Done():
		case <-ctx.Done():
			logger.Warning("Timed out waiting for running jobs")
		}
	}
	var errs []error
	if s.httpServer != nil {
		errs = append(errs, s.httpServer.Shutdown(ctx))
	} else if s.listener != nil {
		errs = append(errs, s.listener.Close())
	}
	if s.tcg != nil {
		s.tcg.Close()
	}
	errs = append(errs, cache.Close())
	return errors.Join(errs...)
}

func (s *Server) GetCtx() context.Context { return s.ctx }

func (s *Server) GetCron() *cron.Cron { return s.cron }
