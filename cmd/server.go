package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"talent-pipeline/internal/api"
	"talent-pipeline/internal/notifier"
	"talent-pipeline/internal/pipeline"
	"talent-pipeline/internal/storage"
	"talent-pipeline/internal/watcher"
)

// AppConfig 应用配置。
type AppConfig struct {
	Database   storage.Config       `yaml:"database"`
	Email      notifier.EmailConfig `yaml:"email"`
	Server     ServerConfig         `yaml:"server"`
	Watcher    watcher.Config       `yaml:"watcher"`
	Recruiters []string             `yaml:"recruiters"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Printf("load config error: %v", err)
		return
	}

	store, err := storage.NewStore(cfg.Database)
	if err != nil {
		log.Printf("init store error: %v", err)
		return
	}
	defer store.Close()

	disp, err := pipeline.NewDispatcher(store, buildOfferNotifier(cfg.Email))
	if err != nil {
		log.Printf("init dispatcher error: %v", err)
		return
	}

	center := notifier.NewCenter(store, cfg.Recruiters, notifier.NewLogNotifier(nil))
	watch := watcher.NewWatcher(store, center, cfg.Watcher)

	handler := api.NewHandler(store, disp, watch)

	addr := cfg.Server.Addr
	if addr == "" {
		addr = ":8080"
	}

	srv := &http.Server{Addr: addr, Handler: handler}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("listening on %s", addr)
	if err := runServer(ctx, srv, watch, 5*time.Second); err != nil {
		log.Printf("server error: %v", err)
	}
}

// server 抽象 HTTP 服务器，便于测试替换。
type server interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// backgroundWatcher 抽象巡检循环。
type backgroundWatcher interface {
	Start(ctx context.Context) error
}

// runServer 同时运行 HTTP 服务与巡检循环，上下文取消时优雅关闭。
func runServer(ctx context.Context, srv server, watch backgroundWatcher, shutdownTimeout time.Duration) error {
	go func() {
		if err := watch.Start(ctx); err != nil && err != context.Canceled {
			log.Printf("watcher stopped: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// loadConfig 读取 yaml 配置，敏感项允许用 .env 或环境变量覆盖。
func loadConfig() (AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = "config.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return AppConfig{}, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return AppConfig{}, err
	}

	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		cfg.Database.DSN = dsn
	}
	if pass := os.Getenv("EMAIL_PASSWORD"); pass != "" {
		cfg.Email.Password = pass
	}
	return cfg, nil
}

// buildOfferNotifier 在邮件配置完整时使用 SMTP，否则回退到日志通知。
func buildOfferNotifier(cfg notifier.EmailConfig) pipeline.OfferNotifier {
	if cfg.Host == "" || cfg.Port == 0 || cfg.From == "" {
		log.Printf("offer email disabled: missing host/port/from")
		return notifier.NewLogNotifier(nil)
	}
	return notifier.NewOfferNotifier(cfg, nil)
}
