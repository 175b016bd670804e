package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"hr-dashboard/backend/internal/model"
	"hr-dashboard/backend/internal/repository"
)

// ── Mock TalentCacheRepository ──

type mockTalentCache struct {
	mu      sync.Mutex
	list    []model.Candidate
	listErr error
	attach  map[string]string // email → record_id
}

func newMockTalentCache(list ...model.Candidate) *mockTalentCache {
	return &mockTalentCache{list: list, attach: make(map[string]string)}
}

func (m *mockTalentCache) List(_ context.Context) ([]model.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	return cloneCandidates(m.list), nil
}

func (m *mockTalentCache) Upsert(_ context.Context, c *model.Candidate) (*model.Candidate, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.list {
		if model.SameEmail(m.list[i].Email, c.Email) {
			m.list[i].MergeFrom(c)
			out := m.list[i].Clone()
			return &out, false, nil
		}
	}
	nc := c.Clone()
	nc.Status = model.StatusPending
	m.list = append(m.list, nc)
	out := nc.Clone()
	return &out, true, nil
}

func (m *mockTalentCache) AttachRecordID(_ context.Context, email, _ string, recordID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attach[email] = recordID
	for i := range m.list {
		if model.SameEmail(m.list[i].Email, email) {
			m.list[i].ID = recordID
		}
	}
	return nil
}

// ── Mock TalentRecordRepository ──

type mockTalentRecord struct {
	mu         sync.Mutex
	configured bool
	records    []model.Candidate
	listErr    error
	createErr  error
	updateErr  error
	deleteErr  error
	listCalls  int
	listDelay  time.Duration

	created []map[string]interface{}
	updated map[string]map[string]interface{}
	deleted []string
}

func newMockTalentRecord(records ...model.Candidate) *mockTalentRecord {
	return &mockTalentRecord{
		configured: true,
		records:    records,
		updated:    make(map[string]map[string]interface{}),
	}
}

func (m *mockTalentRecord) Configured() bool { return m.configured }

func (m *mockTalentRecord) ListAll(ctx context.Context) ([]model.Candidate, error) {
	if m.listDelay > 0 {
		select {
		case <-time.After(m.listDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	return cloneCandidates(m.records), nil
}

func (m *mockTalentRecord) Create(_ context.Context, fields map[string]interface{}) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return "", m.createErr
	}
	m.created = append(m.created, fields)
	return fmt.Sprintf("rec-new-%d", len(m.created)), nil
}

func (m *mockTalentRecord) Update(_ context.Context, recordID string, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updated[recordID] = fields
	for i := range m.records {
		if m.records[i].ID != recordID {
			continue
		}
		if st, ok := fields["status"].(string); ok {
			m.records[i].Status = st
		}
	}
	return nil
}

func (m *mockTalentRecord) Delete(_ context.Context, recordID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, recordID)
	return nil
}

// addRecord 模拟表格侧出现新记录（如后台同步写入）
func (m *mockTalentRecord) addRecord(c model.Candidate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, c)
}

func (m *mockTalentRecord) listCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listCalls
}

// ── Mock Publisher ──

type mockPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *mockPublisher) Publish(_ context.Context, routingKey string, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, routingKey)
	return nil
}

func (p *mockPublisher) Close() error { return nil }

func (p *mockPublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

// ── 组装 ──

var errUpstream = errors.New("upstream unavailable")

func newTestRepo(cache *mockTalentCache, record *mockTalentRecord) *repository.Repository {
	return &repository.Repository{
		TalentCache:  cache,
		TalentRecord: record,
		SyncBacklog:  repository.NewMemorySyncBacklog(),
	}
}
