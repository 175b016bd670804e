package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"hr-dashboard/backend/internal/model"
	"hr-dashboard/backend/internal/repository"
	"hr-dashboard/backend/pkg/bitable"
	apperrors "hr-dashboard/backend/pkg/errors"
	"hr-dashboard/backend/pkg/eventbus"
)

// ── 测试辅助 ──

type talentFixture struct {
	svc    TalentService
	repo   *repository.Repository
	cache  *mockTalentCache
	record *mockTalentRecord
	state  *DashboardState
	events *mockPublisher
}

func setupTestTalentService(records ...model.Candidate) *talentFixture {
	f := &talentFixture{
		cache:  newMockTalentCache(),
		record: newMockTalentRecord(records...),
		state:  NewDashboardState(),
		events: &mockPublisher{},
	}
	f.repo = newTestRepo(f.cache, f.record)
	f.svc = NewTalentService(f.repo, f.state, f.events, zap.NewNop())
	return f
}

// ── List 测试 ──

func TestTalentService_List_MergesCache(t *testing.T) {
	f := setupTestTalentService(cand("r1", "张三", "a@x.com", model.StatusPending))
	local := cand("", "张三", "a@x.com", "")
	local.InterviewQuestions = questions("Q1", "Q2")
	f.cache.list = []model.Candidate{local}

	list, err := f.svc.List(context.Background())
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if len(list) != 1 || len(list[0].InterviewQuestions) != 2 {
		t.Errorf("期望合并本地面试题，实际 %+v", list)
	}
	if !f.state.Loaded() {
		t.Error("List 后共享状态应已加载")
	}
}

func TestTalentService_List_FallbackToCache(t *testing.T) {
	f := setupTestTalentService()
	f.record.listErr = errUpstream
	f.cache.list = []model.Candidate{cand("", "本地", "local@x.com", "")}

	list, err := f.svc.List(context.Background())
	if err != nil {
		t.Fatalf("表格失败时应回退而非报错: %v", err)
	}
	if len(list) != 1 || list[0].Name != "本地" {
		t.Errorf("期望返回本地缓存，实际 %+v", list)
	}
}

func TestTalentService_List_NotConfigured(t *testing.T) {
	f := setupTestTalentService(cand("r1", "张三", "a@x.com", ""))
	f.record.configured = false

	list, err := f.svc.List(context.Background())
	if err != nil {
		t.Fatalf("未配置时应回退而非报错: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Errorf("期望空列表（非 nil），实际 %+v", list)
	}
	if f.record.listCount() != 0 {
		t.Error("未配置时不应请求表格")
	}
}

func TestTalentService_List_SharesInflightFetch(t *testing.T) {
	f := setupTestTalentService(cand("r1", "张三", "a@x.com", ""))
	f.record.listDelay = 200 * time.Millisecond

	const n = 5
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.List(context.Background()); err != nil {
				t.Errorf("List 应成功: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := f.record.listCount(); got >= n {
		t.Errorf("期望并发请求共享同一次拉取，实际拉取 %d 次", got)
	}
}

func TestTalentService_FetchTalents_Cached(t *testing.T) {
	f := setupTestTalentService(cand("r1", "张三", "a@x.com", ""))
	ctx := context.Background()

	if _, err := f.svc.FetchTalents(ctx, false); err != nil {
		t.Fatalf("FetchTalents 应成功: %v", err)
	}
	if _, err := f.svc.FetchTalents(ctx, false); err != nil {
		t.Fatalf("FetchTalents 应成功: %v", err)
	}
	if got := f.record.listCount(); got != 1 {
		t.Errorf("非强制拉取应命中缓存，期望 1 次，实际 %d", got)
	}

	if _, err := f.svc.FetchTalents(ctx, true); err != nil {
		t.Fatalf("FetchTalents 应成功: %v", err)
	}
	if got := f.record.listCount(); got != 2 {
		t.Errorf("强制拉取应重新请求，期望 2 次，实际 %d", got)
	}
}

func TestTalentService_List_CallerCancelDoesNotFailSharedFetch(t *testing.T) {
	f := setupTestTalentService(cand("r1", "张三", "a@x.com", ""))
	f.record.listDelay = 200 * time.Millisecond

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := f.svc.List(first)
		firstErr <- err
	}()

	time.Sleep(50 * time.Millisecond)
	secondDone := make(chan error, 1)
	var second []model.Candidate
	go func() {
		var err error
		second, err = f.svc.List(context.Background())
		secondDone <- err
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Errorf("断开的调用方应得到 context.Canceled，实际: %v", err)
	}
	if err := <-secondDone; err != nil {
		t.Fatalf("共享拉取不应因其他调用方断开而失败: %v", err)
	}
	if len(second) != 1 {
		t.Errorf("期望 1 条，实际 %+v", second)
	}
}

// ── Add 测试 ──

func TestTalentService_Add_QueuesSync(t *testing.T) {
	f := setupTestTalentService()
	ctx := context.Background()

	res, err := f.svc.Add(ctx, &model.Candidate{Name: " 张三 ", Email: "a@x.com", Score: 90})
	if err != nil {
		t.Fatalf("Add 应成功: %v", err)
	}
	if !res.Created || !res.Queued {
		t.Errorf("期望 Created=true Queued=true，实际 %+v", res)
	}
	if res.Candidate.Name != "张三" || res.Candidate.Status != model.StatusPending {
		t.Errorf("期望姓名去空白、状态为待面试，实际 %+v", res.Candidate)
	}
	if n, _ := f.repo.SyncBacklog.Len(ctx); n != 1 {
		t.Errorf("期望同步队列 1 个任务，实际 %d", n)
	}
	if keys := f.events.keys(); len(keys) != 1 || keys[0] != eventbus.TalentAdded {
		t.Errorf("期望发布 talent.added，实际 %v", keys)
	}
}

func TestTalentService_Add_InvalidatesSharedList(t *testing.T) {
	f := setupTestTalentService(cand("r1", "张三", "a@x.com", ""))
	ctx := context.Background()

	if _, err := f.svc.FetchTalents(ctx, false); err != nil {
		t.Fatalf("FetchTalents 应成功: %v", err)
	}
	if _, err := f.svc.Add(ctx, &model.Candidate{Name: "李四", Email: "b@x.com"}); err != nil {
		t.Fatalf("Add 应成功: %v", err)
	}

	list, err := f.svc.FetchTalents(ctx, false)
	if err != nil {
		t.Fatalf("FetchTalents 应成功: %v", err)
	}
	if got := f.record.listCount(); got != 2 {
		t.Errorf("添加后非强制拉取应重新加载，期望 2 次，实际 %d", got)
	}
	if len(list) != 2 {
		t.Errorf("期望合并后 2 人，实际 %+v", list)
	}
}

func TestTalentService_Add_Idempotent(t *testing.T) {
	f := setupTestTalentService()
	ctx := context.Background()

	if _, err := f.svc.Add(ctx, &model.Candidate{Name: "张三", Email: "a@x.com"}); err != nil {
		t.Fatalf("Add 应成功: %v", err)
	}
	res, err := f.svc.Add(ctx, &model.Candidate{Name: "张三", Email: "a@x.com", Summary: "更新"})
	if err != nil {
		t.Fatalf("重复 Add 应成功: %v", err)
	}
	if res.Created {
		t.Error("同邮箱重复添加不应新建")
	}
	if len(f.cache.list) != 1 || f.cache.list[0].Summary != "更新" {
		t.Errorf("期望缓存 1 条且已合并，实际 %+v", f.cache.list)
	}
}

func TestTalentService_Add_NotConfiguredSkipsQueue(t *testing.T) {
	f := setupTestTalentService()
	f.record.configured = false

	res, err := f.svc.Add(context.Background(), &model.Candidate{Name: "张三", Email: "a@x.com"})
	if err != nil {
		t.Fatalf("Add 应成功: %v", err)
	}
	if res.Queued {
		t.Error("表格未配置时不应入队")
	}
}

func TestTalentService_Add_InvalidName(t *testing.T) {
	f := setupTestTalentService()

	_, err := f.svc.Add(context.Background(), &model.Candidate{Name: "  ", Email: "a@x.com"})
	if !errors.Is(err, ErrCandidateInvalid) {
		t.Errorf("期望 ErrCandidateInvalid，实际: %v", err)
	}
}

// ── Update / Delete 测试 ──

func TestTalentService_Update_MapsFields(t *testing.T) {
	f := setupTestTalentService(cand("r1", "张三", "a@x.com", ""))

	err := f.svc.Update(context.Background(), "r1", map[string]interface{}{
		"id":                 "ignored",
		"name":               "张三丰",
		"score":              95,
		"status":             " 已通过 ",
		"interviewQuestions": []string{"x"},
	})
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}

	got := f.record.updated["r1"]
	if got["candidate_name"] != "张三丰" || got["overall_score"] != 95 || got["status"] != "已通过" {
		t.Errorf("字段映射错误: %v", got)
	}
	for _, k := range []string{"id", "name", "interviewQuestions"} {
		if _, ok := got[k]; ok {
			t.Errorf("字段 %s 不应写入表格", k)
		}
	}
}

func TestTalentService_Update_Errors(t *testing.T) {
	f := setupTestTalentService()
	ctx := context.Background()

	if err := f.svc.Update(ctx, "r1", map[string]interface{}{"id": "x"}); !errors.Is(err, ErrEmptyUpdate) {
		t.Errorf("期望 ErrEmptyUpdate，实际: %v", err)
	}

	f.record.configured = false
	if err := f.svc.Update(ctx, "r1", map[string]interface{}{"status": "面试中"}); !errors.Is(err, apperrors.ErrNotConfigured) {
		t.Errorf("期望 ErrNotConfigured，实际: %v", err)
	}
}

func TestTalentService_Delete_PermissionDenied(t *testing.T) {
	f := setupTestTalentService()
	f.record.deleteErr = &bitable.APIError{Status: 200, Code: bitable.CodePermissionDenied, Msg: "no permission"}

	err := f.svc.Delete(context.Background(), "r1")
	if !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Errorf("期望权限错误，实际: %v", err)
	}
	if len(f.events.keys()) != 0 {
		t.Error("删除失败不应发布事件")
	}
}

func TestTalentService_Delete_Success(t *testing.T) {
	f := setupTestTalentService()

	if err := f.svc.Delete(context.Background(), "r1"); err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}
	if len(f.record.deleted) != 1 || f.record.deleted[0] != "r1" {
		t.Errorf("期望删除 r1，实际 %v", f.record.deleted)
	}
}
