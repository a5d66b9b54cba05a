package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Akash00404/Ayush-Textbook-Assesment/config"
	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/api/handler"
	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/api/middleware"
	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/model"
	"github.com/Akash00404/Ayush-Textbook-Assesment/pkg/jwt"
	"github.com/Akash00404/Ayush-Textbook-Assesment/pkg/redis"
)

const (
	admin       = model.RoleAdmin
	secretariat = model.RoleSecretariat
	reviewer    = model.RoleReviewer
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时 Token 黑名单与登录限流降级
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	if cfg.Server.BodyLimitBytes > 0 {
		r.Use(middleware.BodyLimit(cfg.Server.BodyLimitBytes))
	}

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	var checker middleware.TokenChecker
	if rdb != nil {
		checker = rdb
	}
	loginLimit := cfg.Auth.LoginRateLimit
	if loginLimit <= 0 {
		loginLimit = 10
	}

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", middleware.RateLimit(rdb, "login", loginLimit, time.Minute, middleware.LoginKey), h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, checker))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)

			// 用户模块
			users := authorized.Group("/users")
			{
				users.POST("", middleware.RoleAuth(admin), h.User.CreateUser)
				users.GET("", middleware.RoleAuth(admin, secretariat), h.User.ListUsers)
				users.GET("/:id", middleware.RoleAuth(admin, secretariat), h.User.GetUser)
			}

			// 评审指标
			criteria := authorized.Group("/criteria")
			{
				criteria.GET("", h.Criterion.ListCriteria)
				criteria.GET("/:id", h.Criterion.GetCriterion)
				criteria.POST("", middleware.RoleAuth(admin, secretariat), h.Criterion.CreateCriterion)
				criteria.PUT("/:id", middleware.RoleAuth(admin, secretariat), h.Criterion.UpdateCriterion)
				criteria.DELETE("/:id", middleware.RoleAuth(admin, secretariat), h.Criterion.DeleteCriterion)
			}

			// 教材（角色细分由 Service 层策略判断）
			books := authorized.Group("/books")
			{
				books.POST("", h.Book.UploadBook)
				books.GET("", h.Book.ListBooks)
				books.GET("/search", h.Book.SearchBooks)
				books.GET("/:id", h.Book.GetBook)
				books.GET("/:id/file", h.Book.GetBookFile)

				books.POST("/:id/assign", h.Assignment.AssignReviewers)
				books.GET("/:id/assignments", h.Assignment.ListByBook)
				books.GET("/:id/conflicts", h.Assignment.ListConflicts)

				books.GET("/:id/aggregate", h.Aggregate.ComputeAggregate)
				books.GET("/:id/aggregates", h.Aggregate.ListAggregates)
				books.GET("/:id/aggregate/export", h.Export.ExportAggregate)
				books.POST("/:id/summary", h.Aggregate.GenerateSummary)

				books.POST("/:id/decision", h.Decision.RecordDecision)
				books.GET("/:id/decision", h.Decision.GetDecision)
			}

			// 评审分配
			assignments := authorized.Group("/assignments")
			{
				assignments.GET("/me", middleware.RoleAuth(reviewer), h.Assignment.ListMine)
				assignments.GET("/me/calendar.ics", middleware.RoleAuth(reviewer), h.Assignment.Calendar)
				assignments.GET("/overdue", h.Assignment.ListOverdue)
				assignments.PATCH("/:id", h.Assignment.UpdateAssignment)
				assignments.POST("/:id/conflict", h.Assignment.DeclareConflict)
			}

			// 评审意见
			reviews := authorized.Group("/reviews")
			{
				reviews.POST("/:assignmentId/review", h.Review.SubmitReview)
				reviews.GET("/:assignmentId/review", h.Review.GetReview)
			}

			// 通知
			notifications := authorized.Group("/notifications")
			{
				notifications.GET("", h.Notification.ListNotifications)
				notifications.PUT("/:id/read", h.Notification.MarkRead)
			}

			authorized.GET("/audit-logs", middleware.RoleAuth(admin), h.Notification.ListAuditLogs)
		}
	}

	return r
}

