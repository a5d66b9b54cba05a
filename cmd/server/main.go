package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Akash00404/Ayush-Textbook-Assesment/config"
	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/api/handler"
	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/api/router"
	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/repository"
	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/service"
	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/worker"
	"github.com/Akash00404/Ayush-Textbook-Assesment/pkg/ai"
	"github.com/Akash00404/Ayush-Textbook-Assesment/pkg/database"
	"github.com/Akash00404/Ayush-Textbook-Assesment/pkg/jwt"
	applogger "github.com/Akash00404/Ayush-Textbook-Assesment/pkg/logger"
	"github.com/Akash00404/Ayush-Textbook-Assesment/pkg/mailer"
	"github.com/Akash00404/Ayush-Textbook-Assesment/pkg/queue"
	"github.com/Akash00404/Ayush-Textbook-Assesment/pkg/redis"
	"github.com/Akash00404/Ayush-Textbook-Assesment/pkg/storage"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load(os.Getenv("TBR_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. 连接数据库并执行迁移
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 可选依赖：连接失败时降级运行
	deps := service.Deps{JWT: jwt.NewManager(&cfg.Auth)}
	var opts worker.Options

	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，Token 黑名单、限流与后台队列不可用", zap.Error(err))
		rdb = nil
	}
	if rdb != nil {
		deps.Tokens = rdb
		opts.Guard = rdb
	}

	if store, err := storage.NewMinioStore(&cfg.Storage); err != nil {
		logger.Warn("对象存储不可用，教材上传将被拒绝", zap.Error(err))
	} else {
		deps.Store = store
		opts.Store = store
	}

	var jobQueue *queue.RedisJobQueue
	if rdb != nil && cfg.Queue.Enabled {
		jobQueue, err = queue.NewRedisJobQueue(rdb.Raw(), queue.Config{
			Stream:      cfg.Queue.Stream,
			Group:       cfg.Queue.Group,
			MaxAttempts: cfg.Queue.MaxRetries + 1,
			BaseBackoff: cfg.Queue.BaseBackoff,
		}, logger)
		if err != nil {
			logger.Warn("任务队列初始化失败", zap.Error(err))
			jobQueue = nil
		}
	}
	if jobQueue != nil {
		deps.Queue = jobQueue
		opts.Queue = jobQueue
	}

	if cfg.AI.Enabled {
		deps.Generator = ai.NewOpenAICompatGenerator(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model)
	}

	if cfg.Mail.Enabled() {
		opts.Mailer = mailer.NewSMTPSender(cfg.Mail)
	} else {
		logger.Info("未配置 SMTP，截止提醒仅写入站内通知")
	}

	// 5. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, deps, logger)
	h := handler.NewHandler(cfg, svc)
	w := worker.New(cfg, repo, opts, logger)

	// 6. 初始化路由
	engine := router.Setup(cfg, h, deps.JWT, rdb, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 7. HTTP 服务、队列消费者与提醒扫描共用一个生命周期
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP 服务器异常: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("开始优雅关闭...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if jobQueue != nil {
		g.Go(func() error {
			jobQueue.Run(gctx, cfg.Queue.Concurrency, w.Handle)
			return nil
		})
	}

	g.Go(func() error {
		w.RunReminderScanner(gctx)
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("服务异常退出", zap.Error(err))
	}

	// 关闭数据库与 Redis 连接
	_ = sqlDB.Close()
	if rdb != nil {
		_ = rdb.Close()
	}

	logger.Info("服务器已关闭")
}
