// LunBan 排班求解服务
// 主程序入口

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/lunban/lunban/internal/config"
	"github.com/lunban/lunban/internal/database"
	"github.com/lunban/lunban/internal/handler"
	"github.com/lunban/lunban/internal/metrics"
	"github.com/lunban/lunban/internal/middleware"
	"github.com/lunban/lunban/internal/repository"
	"github.com/lunban/lunban/pkg/logger"
	"github.com/lunban/lunban/pkg/scheduler/optimizer"
)

// 构建信息（通过 ldflags 注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// 子进程模式：父进程通过 stdin/stdout 下发任务并回收结果
	if len(os.Args) > 1 && os.Args[1] == optimizer.WorkerCommand {
		runWorker()
		return
	}

	// .env 文件可选，缺失时静默跳过
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Log)

	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Str("env", cfg.App.Env).
		Msg("LunBan 排班求解服务启动中")

	// 数据库可选：连接失败时降级为纯计算服务，不存档
	var db *database.DB
	var trialRepo *repository.TrialRepository
	if db, err = database.New(&cfg.Database); err != nil {
		logger.Warn().Err(err).Msg("数据库不可用，试验存档功能关闭")
		db = nil
	} else {
		defer db.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := db.Migrate(ctx); err != nil {
			cancel()
			logger.Error().Err(err).Msg("数据库迁移失败")
			os.Exit(1)
		}
		cancel()
		trialRepo = repository.NewTrialRepository(db)
		go pollDBStats(db)
	}

	// 默认子进程隔离，单个种子崩溃不影响其余尝试
	var launcher optimizer.Launcher
	if cfg.Optimize.InProcess {
		launcher = &optimizer.InprocLauncher{}
	} else {
		launcher = &optimizer.ProcessLauncher{}
	}

	var store handler.TrialStore
	if trialRepo != nil {
		store = trialRepo
	}
	rosterHandler := handler.NewRosterHandler(launcher, store, cfg.Optimize.Attempts, cfg.Optimize.Parallelism)

	mux := http.NewServeMux()

	// 系统端点
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		status := "ok"
		dbStatus := "disabled"
		if db != nil {
			dbStatus = "ok"
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.Health(ctx); err != nil {
				dbStatus = "error"
			}
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"%s","service":"lunban","database":"%s"}`, status, dbStatus)
	})

	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"version":"%s","build_time":"%s","git_commit":"%s"}`, Version, BuildTime, GitCommit)
	})

	// API 根路由
	mux.HandleFunc("/api/v1/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{
			"message": "LunBan 排班求解 API v1",
			"endpoints": {
				"roster": {
					"solve": "POST /api/v1/roster/solve",
					"validate": "POST /api/v1/roster/validate"
				},
				"stats": {
					"fairness": "POST /api/v1/stats/fairness"
				},
				"trials": {
					"list": "GET /api/v1/trials",
					"get": "GET /api/v1/trials/{id}",
					"attempts": "GET /api/v1/trials/{id}/attempts"
				}
			}
		}`))
	})

	// 排班求解与校验 API
	mux.HandleFunc("/api/v1/roster/solve", rosterHandler.Solve)
	mux.HandleFunc("/api/v1/roster/validate", rosterHandler.Validate)
	mux.HandleFunc("/api/v1/stats/fairness", rosterHandler.Fairness)

	// 试验存档 API（数据库可用时）
	if trialRepo != nil {
		trialHandler := handler.NewTrialHandler(trialRepo)
		mux.HandleFunc("/api/v1/trials", trialHandler.List)
		mux.HandleFunc("/api/v1/trials/", trialHandler.Get)
	}

	// Prometheus 指标端点
	metricsPath := cfg.Metrics.Path
	if cfg.Metrics.Enabled {
		mux.Handle(metricsPath, metrics.Handler())
	}

	// 中间件执行顺序：requestID -> recovery -> auth -> logging -> handler
	skipAuth := []string{"/health", "/version", metricsPath}
	h := middleware.RequestIDMiddleware(
		middleware.RecoveryMiddleware(
			middleware.APIKeyMiddleware(cfg.API.APIKey, skipAuth)(
				middleware.LoggingMiddleware(mux))))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      h,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute, // 求解可能长时间运行
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info().
			Int("port", cfg.App.Port).
			Str("url", fmt.Sprintf("http://localhost:%d", cfg.App.Port)).
			Msg("服务器启动")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("服务器启动失败")
			os.Exit(1)
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("服务器关闭失败")
		os.Exit(1)
	}

	logger.Info().Msg("服务器已关闭")
}

// runWorker 子进程求解模式
// 日志走 stderr，stdout 只输出结果 JSON
func runWorker() {
	logger.Init(logger.Config{
		Level:  os.Getenv("APP_LOG_LEVEL"),
		Format: "json",
		Output: "stderr",
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := optimizer.RunWorker(ctx, os.Stdin, os.Stdout); err != nil {
		logger.Error().Err(err).Msg("子进程求解失败")
		os.Exit(1)
	}
}

// pollDBStats 周期性上报连接池指标
func pollDBStats(db *database.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		s := db.Stats()
		metrics.SetDBConnections(s.OpenConnections, s.InUse, s.Idle)
	}
}
