package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"hr-dashboard/backend/internal/model"
	"hr-dashboard/backend/pkg/redis"
)

// SyncTask 本地缓存 → 多维表格 的待同步任务
type SyncTask struct {
	ID         string          `json:"id"`
	Candidate  model.Candidate `json:"candidate"`
	Attempts   int             `json:"attempts"`
	NotBefore  time.Time       `json:"not_before"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
	LastError  string          `json:"last_error,omitempty"`
}

// SyncBacklogRepository 同步积压队列（FIFO）
type SyncBacklogRepository interface {
	Push(ctx context.Context, task *SyncTask) error
	// Pop 取出队首任务；队列为空时返回 nil, nil
	Pop(ctx context.Context) (*SyncTask, error)
	Len(ctx context.Context) (int64, error)
}

// ── Redis 实现（进程重启后积压不丢失） ──

const syncBacklogKey = "talent:sync:backlog"

// queueClient pkg/redis.Client 中的列表队列能力
type queueClient interface {
	PushQueue(ctx context.Context, key string, payload []byte) error
	PopQueue(ctx context.Context, key string) ([]byte, error)
	QueueLen(ctx context.Context, key string) (int64, error)
}

var _ queueClient = (*redis.Client)(nil)

type redisSyncBacklog struct {
	q queueClient
}

// NewRedisSyncBacklog 基于 Redis 列表的积压队列
func NewRedisSyncBacklog(q queueClient) SyncBacklogRepository {
	return &redisSyncBacklog{q: q}
}

func (r *redisSyncBacklog) Push(ctx context.Context, task *SyncTask) error {
	b, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("序列化同步任务失败: %w", err)
	}
	return r.q.PushQueue(ctx, syncBacklogKey, b)
}

func (r *redisSyncBacklog) Pop(ctx context.Context) (*SyncTask, error) {
	b, err := r.q.PopQueue(ctx, syncBacklogKey)
	if err != nil || b == nil {
		return nil, err
	}
	var task SyncTask
	if err := json.Unmarshal(b, &task); err != nil {
		return nil, fmt.Errorf("解析同步任务失败: %w", err)
	}
	return &task, nil
}

func (r *redisSyncBacklog) Len(ctx context.Context) (int64, error) {
	return r.q.QueueLen(ctx, syncBacklogKey)
}

// ── 内存实现（未启用 Redis 时使用） ──

type memorySyncBacklog struct {
	mu    sync.Mutex
	tasks []*SyncTask
}

// NewMemorySyncBacklog 进程内积压队列
func NewMemorySyncBacklog() SyncBacklogRepository {
	return &memorySyncBacklog{}
}

func (m *memorySyncBacklog) Push(_ context.Context, task *SyncTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *task
	m.tasks = append(m.tasks, &cp)
	return nil
}

func (m *memorySyncBacklog) Pop(_ context.Context) (*SyncTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.tasks) == 0 {
		return nil, nil
	}
	t := m.tasks[0]
	m.tasks = m.tasks[1:]
	return t, nil
}

func (m *memorySyncBacklog) Len(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.tasks)), nil
}
