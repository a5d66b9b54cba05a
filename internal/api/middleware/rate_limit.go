package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Akash00404/Ayush-Textbook-Assesment/pkg/redis"
	"github.com/Akash00404/Ayush-Textbook-Assesment/pkg/response"
)

const (
	codeTooManyRequests = 10004
	rateLimitPrefix     = "tbr:ratelimit:"
	loginBodyPeekLimit  = 4 << 10
)

// RateKeyFunc 从请求中提取限流维度
type RateKeyFunc func(c *gin.Context) string

// ClientIPKey 仅按客户端 IP 限流
func ClientIPKey(c *gin.Context) string {
	return c.ClientIP()
}

// LoginKey 按客户端 IP + 提交的邮箱限流
// 读取后还原请求体，Handler 仍可正常绑定
func LoginKey(c *gin.Context) string {
	ip := c.ClientIP()
	if c.Request.Body == nil {
		return ip
	}

	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, loginBodyPeekLimit))
	rest := c.Request.Body
	c.Request.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(raw), rest), rest}
	if err != nil {
		return ip
	}

	var body struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(raw, &body) != nil {
		return ip
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	if email == "" {
		return ip
	}
	return ip + ":" + email
}

// RateLimit Redis 滑动窗口限流
// scope 区分不同接口的计数；rdb 为 nil 或 Redis 出错时放行
func RateLimit(rdb *redis.Client, scope string, limit int, window time.Duration, keyFn RateKeyFunc) gin.HandlerFunc {
	if keyFn == nil {
		keyFn = ClientIPKey
	}
	retryAfter := strconv.Itoa(int(window.Seconds()))

	return func(c *gin.Context) {
		if rdb == nil {
			c.Next()
			return
		}

		key := rateLimitPrefix + scope + ":" + keyFn(c)
		allowed, err := rdb.CheckRateLimit(c.Request.Context(), key, limit, window)
		if err != nil || allowed {
			c.Next()
			return
		}

		c.Header("Retry-After", retryAfter)
		response.Error(c, http.StatusTooManyRequests, codeTooManyRequests, "尝试次数过多，请稍后再试")
		c.Abort()
	}
}
