package repository

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"hr-dashboard/backend/internal/model"
	"hr-dashboard/backend/pkg/bitable"
)

type fakeBitable struct {
	views    []bitable.View
	viewsErr error
	records  []bitable.Record
	gotView  string
}

func (f *fakeBitable) Configured() bool { return true }
func (f *fakeBitable) ListViews(context.Context) ([]bitable.View, error) {
	return f.views, f.viewsErr
}
func (f *fakeBitable) ListAllRecords(_ context.Context, viewID string) ([]bitable.Record, error) {
	f.gotView = viewID
	return f.records, nil
}
func (f *fakeBitable) CreateRecord(_ context.Context, fields map[string]interface{}) (*bitable.Record, error) {
	return &bitable.Record{RecordID: "new", Fields: fields}, nil
}
func (f *fakeBitable) UpdateRecord(_ context.Context, id string, _ map[string]interface{}) (*bitable.Record, error) {
	return &bitable.Record{RecordID: id}, nil
}
func (f *fakeBitable) DeleteRecord(context.Context, string) error { return nil }

func sampleRecords() []bitable.Record {
	return []bitable.Record{
		{RecordID: "old", CreatedTime: 1000, Fields: map[string]interface{}{"candidate_name": "旧"}},
		{RecordID: "new", CreatedTime: 3000, Fields: map[string]interface{}{"candidate_name": "新"}},
		{RecordID: "mid", CreatedTime: 2000, Fields: map[string]interface{}{"candidate_name": "中"}},
	}
}

func TestTalentRecordRepo_ListAll_ViewOrder(t *testing.T) {
	api := &fakeBitable{views: []bitable.View{{ViewID: "v1"}, {ViewID: "v2"}}, records: sampleRecords()}
	repo := NewTalentRecordRepo(api, zap.NewNop())

	list, err := repo.ListAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if api.gotView != "v1" {
		t.Errorf("应使用首个视图，实际 %q", api.gotView)
	}
	if list[0].ID != "old" || list[2].ID != "mid" {
		t.Errorf("有视图时应保持服务端顺序: %v %v %v", list[0].ID, list[1].ID, list[2].ID)
	}
	if list[0].Status != model.StatusPending {
		t.Errorf("状态缺失应回落待面试，实际 %s", list[0].Status)
	}
}

func TestTalentRecordRepo_ListAll_CreatedDescFallback(t *testing.T) {
	api := &fakeBitable{viewsErr: errors.New("boom"), records: sampleRecords()}
	repo := NewTalentRecordRepo(api, zap.NewNop())

	list, err := repo.ListAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"new", "mid", "old"}
	for i, id := range want {
		if list[i].ID != id {
			t.Errorf("位置 %d 期望 %s，实际 %s", i, id, list[i].ID)
		}
	}
}
