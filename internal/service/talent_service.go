package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"hr-dashboard/backend/internal/model"
	"hr-dashboard/backend/internal/repository"
	apperrors "hr-dashboard/backend/pkg/errors"
	"hr-dashboard/backend/pkg/eventbus"
)

// sharedFetchTimeout 并发请求共享的一次人才列表拉取的总时限
const sharedFetchTimeout = 60 * time.Second

var (
	ErrCandidateInvalid  = errors.New("候选人数据无效：姓名不能为空")
	ErrCandidateNotFound = errors.New("候选人不存在")
	ErrEmptyUpdate       = errors.New("未提供需要更新的字段")
)

// AddResult 添加候选人结果
type AddResult struct {
	Candidate model.Candidate `json:"candidate"`
	Created   bool            `json:"created"`
	Queued    bool            `json:"queued"` // 是否已进入同步队列
}

// TalentService 人才库业务接口
type TalentService interface {
	// List 拉取合并后的人才列表（并发请求共享同一次拉取）
	List(ctx context.Context) ([]model.Candidate, error)
	// FetchTalents 经由共享状态读取人才列表；非强制时命中缓存或已有拉取进行中即直接返回
	FetchTalents(ctx context.Context, force bool) ([]model.Candidate, error)
	Add(ctx context.Context, c *model.Candidate) (*AddResult, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, id string) error
}

type talentService struct {
	repo   *repository.Repository
	state  *DashboardState
	events eventbus.Publisher
	logger *zap.Logger

	group singleflight.Group
	now   func() time.Time
}

// NewTalentService 创建 TalentService 实例
func NewTalentService(
	repo *repository.Repository,
	state *DashboardState,
	events eventbus.Publisher,
	logger *zap.Logger,
) TalentService {
	return &talentService{
		repo:   repo,
		state:  state,
		events: events,
		logger: logger,
		now:    time.Now,
	}
}

// ── 读取 ──

func (s *talentService) List(ctx context.Context) ([]model.Candidate, error) {
	list, err := s.loadMerged(ctx)
	if err != nil {
		return nil, err
	}
	s.state.SetTalents(list)
	return list, nil
}

func (s *talentService) FetchTalents(ctx context.Context, force bool) ([]model.Candidate, error) {
	if !s.state.BeginFetch(force) {
		return s.state.Talents(), nil
	}
	list, err := s.loadMerged(ctx)
	s.state.EndFetch(list, err)
	if err != nil {
		return nil, err
	}
	return cloneCandidates(list), nil
}

// loadMerged 表格 + 本地缓存合并；表格不可用时退化为本地缓存原样返回
func (s *talentService) loadMerged(ctx context.Context) ([]model.Candidate, error) {
	// 共享拉取不随首个调用方断开而取消，改由独立超时兜底
	v, err, shared := s.group.Do("talents", func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedFetchTimeout)
		defer cancel()
		return s.fetchAndMerge(fetchCtx)
	})
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if shared {
		s.logger.Debug("复用进行中的人才列表拉取")
	}
	return cloneCandidates(v.([]model.Candidate)), nil
}

func (s *talentService) fetchAndMerge(ctx context.Context) ([]model.Candidate, error) {
	cached, err := s.repo.TalentCache.List(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("读取本地缓存失败", zap.Error(err))
		cached = nil
	}

	if !s.repo.TalentRecord.Configured() {
		s.logger.Warn("多维表格未配置，使用本地缓存")
		return orEmpty(cached), nil
	}

	records, err := s.repo.TalentRecord.ListAll(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Error("多维表格拉取失败，回退到本地缓存", zap.Error(err))
		return orEmpty(cached), nil
	}
	return MergeCandidates(records, cached), nil
}

func orEmpty(list []model.Candidate) []model.Candidate {
	if list == nil {
		return []model.Candidate{}
	}
	return list
}

// ── 写入 ──

// Add 先同步写本地缓存，再投递异步同步任务；同步结果不影响返回值
func (s *talentService) Add(ctx context.Context, c *model.Candidate) (*AddResult, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	if c.Name == "" {
		return nil, ErrCandidateInvalid
	}

	saved, created, err := s.repo.TalentCache.Upsert(ctx, c)
	if err != nil {
		s.logger.Error("写入本地缓存失败", zap.String("email", c.Email), zap.Error(err))
		return nil, err
	}

	res := &AddResult{Candidate: *saved, Created: created}
	s.state.Invalidate()
	if s.repo.TalentRecord.Configured() {
		task := &repository.SyncTask{
			ID:         uuid.NewString(),
			Candidate:  *saved,
			EnqueuedAt: s.now(),
		}
		if err := s.repo.SyncBacklog.Push(ctx, task); err != nil {
			s.logger.Warn("同步任务入队失败", zap.String("email", saved.Email), zap.Error(err))
		} else {
			res.Queued = true
		}
	}

	s.publish(ctx, eventbus.TalentAdded, map[string]interface{}{
		"name": saved.Name, "email": saved.Email, "created": created,
	})
	return res, nil
}

// Update 直接更新表格记录，不修改本地缓存
func (s *talentService) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	recordFields := toRecordFields(fields)
	if len(recordFields) == 0 {
		return ErrEmptyUpdate
	}
	if !s.repo.TalentRecord.Configured() {
		return apperrors.ErrNotConfigured
	}
	if err := s.repo.TalentRecord.Update(ctx, id, recordFields); err != nil {
		s.logger.Error("更新候选人失败", zap.String("id", id), zap.Error(err))
		return err
	}
	s.publish(ctx, eventbus.TalentUpdated, map[string]interface{}{"id": id, "fields": recordFields})
	return nil
}

// Delete 直接删除表格记录，不修改本地缓存
func (s *talentService) Delete(ctx context.Context, id string) error {
	if !s.repo.TalentRecord.Configured() {
		return apperrors.ErrNotConfigured
	}
	if err := s.repo.TalentRecord.Delete(ctx, id); err != nil {
		s.logger.Error("删除候选人失败", zap.String("id", id), zap.Error(err))
		return err
	}
	s.publish(ctx, eventbus.TalentDeleted, map[string]interface{}{"id": id})
	return nil
}

func (s *talentService) publish(ctx context.Context, key string, payload interface{}) {
	if err := s.events.Publish(ctx, key, payload); err != nil {
		s.logger.Warn("事件发布失败", zap.String("routing_key", key), zap.Error(err))
	}
}

// recordFieldNames 规范键 → 表格列名
var recordFieldNames = map[string]string{
	"name":  "candidate_name",
	"score": "overall_score",
}

// toRecordFields 将更新请求转换为表格字段；id 与富字段不写入表格
func toRecordFields(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		switch k {
		case "id", "interviewQuestions", "emailDraft", "created_at", "updated_at":
			continue
		case "status":
			if s, ok := v.(string); ok {
				v = strings.TrimSpace(s)
			}
		}
		if mapped, ok := recordFieldNames[k]; ok {
			k = mapped
		}
		out[k] = v
	}
	return out
}

// syncRecordFields 新建表格记录时写入的字段
func syncRecordFields(c *model.Candidate) map[string]interface{} {
	return map[string]interface{}{
		"candidate_name": c.Name,
		"overall_score":  c.Score,
		"email":          c.Email,
		"status":         model.StatusOrPending(c.Status),
	}
}

// [自证通过] internal/service/talent_service.go
