package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ── 任务状态 ──

const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusDone       = "done"
	StatusFailed     = "failed"
)

// ── 任务类型 ──

const (
	JobExtractText  = "extract_text"  // TargetID = book_id
	JobSendReminder = "send_reminder" // TargetID = assignment_id
)

// Job 后台任务（状态保存在 Redis Hash，消息走 Stream）
type Job struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	TargetID     string    `json:"target_id"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Attempts     int       `json:"attempts"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Handler 任务处理函数，返回 error 触发重试
type Handler func(ctx context.Context, job Job) error

// Enqueuer 投递任务（服务层只依赖此接口）
type Enqueuer interface {
	Enqueue(ctx context.Context, jobType, targetID string) (Job, error)
}

// Config 队列配置
type Config struct {
	Stream      string
	Group       string
	Consumer    string
	MaxAttempts int           // 最大尝试次数（含首次）
	BaseBackoff time.Duration // 第 n 次失败后等待 base·2^(n-1)
	JobTTL      time.Duration
	Block       time.Duration
	ClaimIdle   time.Duration
	MaxLen      int64
	ReadCount   int64
}

// RedisJobQueue 基于 Redis Stream + Consumer Group 的至少一次投递队列
type RedisJobQueue struct {
	client       *goredis.Client
	logger       *zap.Logger
	stream       string
	group        string
	consumerBase string
	maxAttempts  int
	baseBackoff  time.Duration
	jobTTL       time.Duration
	block        time.Duration
	claimIdle    time.Duration
	maxLen       int64
	readCount    int64
	once         sync.Once
}

// NewRedisJobQueue 创建队列，复用已有 Redis 连接
func NewRedisJobQueue(client *goredis.Client, cfg Config, logger *zap.Logger) (*RedisJobQueue, error) {
	if client == nil {
		return nil, errors.New("redis client required")
	}
	stream := strings.TrimSpace(cfg.Stream)
	if stream == "" {
		return nil, errors.New("queue stream required")
	}
	group := strings.TrimSpace(cfg.Group)
	if group == "" {
		group = "default"
	}
	consumer := strings.TrimSpace(cfg.Consumer)
	if consumer == "" {
		consumer = uuid.NewString()
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	baseBackoff := cfg.BaseBackoff
	if baseBackoff <= 0 {
		baseBackoff = 2 * time.Second
	}
	jobTTL := cfg.JobTTL
	if jobTTL <= 0 {
		jobTTL = 24 * time.Hour
	}
	block := cfg.Block
	if block <= 0 {
		block = 5 * time.Second
	}
	claimIdle := cfg.ClaimIdle
	if claimIdle <= 0 {
		claimIdle = 30 * time.Second
	}
	maxLen := cfg.MaxLen
	if maxLen <= 0 {
		maxLen = 10000
	}
	readCount := cfg.ReadCount
	if readCount <= 0 {
		readCount = 10
	}

	return &RedisJobQueue{
		client:       client,
		logger:       logger,
		stream:       stream,
		group:        group,
		consumerBase: consumer,
		maxAttempts:  maxAttempts,
		baseBackoff:  baseBackoff,
		jobTTL:       jobTTL,
		block:        block,
		claimIdle:    claimIdle,
		maxLen:       maxLen,
		readCount:    readCount,
	}, nil
}

// Backoff 第 attempt 次失败后的等待时长
func Backoff(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return base * time.Duration(1<<(attempt-1))
}

// Enqueue 投递任务
func (q *RedisJobQueue) Enqueue(ctx context.Context, jobType, targetID string) (Job, error) {
	jobType = strings.TrimSpace(jobType)
	targetID = strings.TrimSpace(targetID)
	if jobType == "" || targetID == "" {
		return Job{}, errors.New("job type and target required")
	}
	now := time.Now().UTC()
	job := Job{
		ID:        uuid.NewString(),
		Type:      jobType,
		TargetID:  targetID,
		Status:    StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := q.writeStatus(ctx, job); err != nil {
		return Job{}, err
	}
	if err := q.client.XAdd(ctx, &goredis.XAddArgs{
		Stream: q.stream,
		MaxLen: q.maxLen,
		Approx: true,
		Values: q.messageValues(job.ID, job.Type, job.TargetID),
	}).Err(); err != nil {
		return Job{}, err
	}
	return job, nil
}

// GetJob 查询任务状态
func (q *RedisJobQueue) GetJob(ctx context.Context, jobID string) (Job, bool, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return Job{}, false, nil
	}
	data, err := q.client.HGetAll(ctx, q.jobKey(jobID)).Result()
	if err != nil {
		return Job{}, false, err
	}
	if len(data) == 0 {
		return Job{}, false, nil
	}
	return decodeJob(jobID, data), true, nil
}

// Run 启动 concurrency 个消费者，阻塞直到 ctx 取消
func (q *RedisJobQueue) Run(ctx context.Context, concurrency int, handler Handler) {
	if concurrency <= 0 {
		concurrency = 1
	}
	q.ensureGroup(ctx)

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		consumer := fmt.Sprintf("%s-%d", q.consumerBase, i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.consumeLoop(ctx, consumer, handler)
		}()
	}
	wg.Wait()
}

func (q *RedisJobQueue) ensureGroup(ctx context.Context) {
	q.once.Do(func() {
		err := q.client.XGroupCreateMkStream(ctx, q.stream, q.group, "0").Err()
		if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
			q.logger.Warn("创建消费组失败", zap.String("stream", q.stream), zap.Error(err))
		}
	})
}

func (q *RedisJobQueue) consumeLoop(ctx context.Context, consumer string, handler Handler) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if msgs, err := q.claimPending(ctx, consumer); err == nil {
			for _, msg := range msgs {
				q.handleMessage(ctx, msg, handler)
			}
		}

		streams, err := q.client.XReadGroup(ctx, &goredis.XReadGroupArgs{
			Group:    q.group,
			Consumer: consumer,
			Streams:  []string{q.stream, ">"},
			Count:    q.readCount,
			Block:    q.block,
		}).Result()
		if err != nil {
			if !errors.Is(err, goredis.Nil) && ctx.Err() == nil {
				q.logger.Warn("读取任务失败", zap.String("consumer", consumer), zap.Error(err))
				time.Sleep(time.Second)
			}
			continue
		}
		for _, stream := range streams {
			for _, msg := range stream.Messages {
				q.handleMessage(ctx, msg, handler)
			}
		}
	}
}

func (q *RedisJobQueue) claimPending(ctx context.Context, consumer string) ([]goredis.XMessage, error) {
	res, _, err := q.client.XAutoClaim(ctx, &goredis.XAutoClaimArgs{
		Stream:   q.stream,
		Group:    q.group,
		Consumer: consumer,
		MinIdle:  q.claimIdle,
		Start:    "0-0",
		Count:    q.readCount,
	}).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	return res, err
}

func (q *RedisJobQueue) handleMessage(ctx context.Context, msg goredis.XMessage, handler Handler) {
	jobID, _ := msg.Values["job_id"].(string)
	jobType, _ := msg.Values["type"].(string)
	targetID, _ := msg.Values["target_id"].(string)
	if jobID == "" || jobType == "" || targetID == "" {
		q.ackAndDel(ctx, msg.ID)
		return
	}

	job, err := q.markProcessing(ctx, jobID, jobType, targetID)
	if err != nil {
		q.logger.Error("更新任务状态失败", zap.String("job_id", jobID), zap.Error(err))
		q.ackAndDel(ctx, msg.ID)
		return
	}

	herr := handler(ctx, job)
	if herr == nil {
		_ = q.setStatus(ctx, jobID, StatusDone, "")
		q.ackAndDel(ctx, msg.ID)
		return
	}

	if job.Attempts >= q.maxAttempts {
		q.logger.Error("任务重试耗尽",
			zap.String("job_id", jobID),
			zap.String("type", jobType),
			zap.String("target_id", targetID),
			zap.Int("attempts", job.Attempts),
			zap.Error(herr),
		)
		_ = q.setStatus(ctx, jobID, StatusFailed, herr.Error())
		q.ackAndDel(ctx, msg.ID)
		return
	}

	wait := Backoff(q.baseBackoff, job.Attempts)
	q.logger.Warn("任务失败，准备重试",
		zap.String("job_id", jobID),
		zap.String("type", jobType),
		zap.Int("attempt", job.Attempts),
		zap.Duration("backoff", wait),
		zap.Error(herr),
	)
	_ = q.setStatus(ctx, jobID, StatusQueued, herr.Error())

	select {
	case <-ctx.Done():
		return
	case <-time.After(wait):
	}
	if err := q.requeueAndAck(ctx, msg.ID, jobID, jobType, targetID); err != nil {
		q.logger.Error("任务重新入队失败", zap.String("job_id", jobID), zap.Error(err))
	}
}

func (q *RedisJobQueue) ackAndDel(ctx context.Context, msgID string) {
	_, _ = q.client.XAck(ctx, q.stream, q.group, msgID).Result()
	_, _ = q.client.XDel(ctx, q.stream, msgID).Result()
}

// requeueAndAck 原子地重新投递并确认旧消息；失败时旧消息保留在 PEL 中等待认领
func (q *RedisJobQueue) requeueAndAck(ctx context.Context, msgID, jobID, jobType, targetID string) error {
	pipe := q.client.TxPipeline()
	pipe.XAdd(ctx, &goredis.XAddArgs{
		Stream: q.stream,
		MaxLen: q.maxLen,
		Approx: true,
		Values: q.messageValues(jobID, jobType, targetID),
	})
	pipe.XAck(ctx, q.stream, q.group, msgID)
	pipe.XDel(ctx, q.stream, msgID)
	_, err := pipe.Exec(ctx)
	return err
}

func (q *RedisJobQueue) messageValues(jobID, jobType, targetID string) map[string]any {
	return map[string]any{
		"job_id":    jobID,
		"type":      jobType,
		"target_id": targetID,
	}
}

func (q *RedisJobQueue) markProcessing(ctx context.Context, jobID, jobType, targetID string) (Job, error) {
	job, _, err := q.GetJob(ctx, jobID)
	if err != nil {
		return Job{}, err
	}
	if job.ID == "" {
		job = Job{ID: jobID}
	}
	job.Type = jobType
	job.TargetID = targetID
	job.Attempts++
	job.Status = StatusProcessing
	job.UpdatedAt = time.Now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = job.UpdatedAt
	}
	if err := q.writeStatus(ctx, job); err != nil {
		return Job{}, err
	}
	return job, nil
}

func (q *RedisJobQueue) setStatus(ctx context.Context, jobID, status, errMsg string) error {
	job, _, err := q.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	job.Status = status
	job.ErrorMessage = errMsg
	job.UpdatedAt = time.Now().UTC()
	return q.writeStatus(ctx, job)
}

func (q *RedisJobQueue) writeStatus(ctx context.Context, job Job) error {
	key := q.jobKey(job.ID)
	payload := map[string]any{
		"type":       job.Type,
		"target_id":  job.TargetID,
		"status":     job.Status,
		"error":      job.ErrorMessage,
		"attempts":   strconv.Itoa(job.Attempts),
		"created_at": job.CreatedAt.Format(time.RFC3339Nano),
		"updated_at": job.UpdatedAt.Format(time.RFC3339Nano),
	}
	if err := q.client.HSet(ctx, key, payload).Err(); err != nil {
		return err
	}
	return q.client.Expire(ctx, key, q.jobTTL).Err()
}

func (q *RedisJobQueue) jobKey(jobID string) string {
	return fmt.Sprintf("job:%s:%s", q.stream, jobID)
}

func decodeJob(jobID string, data map[string]string) Job {
	job := Job{
		ID:           jobID,
		Type:         data["type"],
		TargetID:     data["target_id"],
		Status:       data["status"],
		ErrorMessage: data["error"],
	}
	if n, err := strconv.Atoi(data["attempts"]); err == nil {
		job.Attempts = n
	}
	if t, err := time.Parse(time.RFC3339Nano, data["created_at"]); err == nil {
		job.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, data["updated_at"]); err == nil {
		job.UpdatedAt = t
	}
	return job
}
