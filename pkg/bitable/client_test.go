package bitable

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"hr-dashboard/backend/config"
	apperrors "hr-dashboard/backend/pkg/errors"
)

// fakeServer 模拟多维表格 OpenAPI
type fakeServer struct {
	tokenCalls int32
	deleteCode int
	deleteHTTP int
	pages      map[string]RecordPage // page_token → page
	lastViewID string
	lastFields map[string]interface{}
}

func (f *fakeServer) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v3/tenant_access_token/internal", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.tokenCalls, 1)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"code": 0, "tenant_access_token": "t-123", "expire": 7200,
		})
	})
	mux.HandleFunc("/bitable/v1/apps/app1/tables/tbl1/views", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer t-123", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"code": 0,
			"data": map[string]interface{}{"items": []View{{ViewID: "vew1", ViewName: "表格"}}},
		})
	})
	mux.HandleFunc("/bitable/v1/apps/app1/tables/tbl1/records", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			f.lastViewID = r.URL.Query().Get("view_id")
			page := f.pages[r.URL.Query().Get("page_token")]
			writeJSON(w, http.StatusOK, map[string]interface{}{"code": 0, "data": page})
		case http.MethodPost:
			var body struct {
				Fields map[string]interface{} `json:"fields"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			f.lastFields = body.Fields
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"code": 0,
				"data": map[string]interface{}{"record": Record{RecordID: "recNew", Fields: body.Fields}},
			})
		}
	})
	mux.HandleFunc("/bitable/v1/apps/app1/tables/tbl1/records/rec1", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodDelete:
			status := f.deleteHTTP
			if status == 0 {
				status = http.StatusOK
			}
			writeJSON(w, status, map[string]interface{}{"code": f.deleteCode, "msg": "denied"})
		case http.MethodPut:
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"code": 0,
				"data": map[string]interface{}{"record": Record{RecordID: "rec1"}},
			})
		}
	})
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, f *fakeServer) *Client {
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	cfg := &config.BitableConfig{
		BaseURL: srv.URL, AppID: "id", AppSecret: "secret",
		AppToken: "app1", TableID: "tbl1", PageSize: 100,
	}
	return NewClient(cfg, srv.Client(), zap.NewNop())
}

func TestClient_ListAllRecords_Paginates(t *testing.T) {
	f := &fakeServer{pages: map[string]RecordPage{
		"":   {Items: []Record{{RecordID: "r1"}, {RecordID: "r2"}}, HasMore: true, PageToken: "p2"},
		"p2": {Items: []Record{{RecordID: "r3"}}, HasMore: false},
	}}
	c := newTestClient(t, f)

	views, err := c.ListViews(testContext(t))
	require.NoError(t, err)
	require.Len(t, views, 1)

	records, err := c.ListAllRecords(testContext(t), views[0].ViewID)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "r3", records[2].RecordID)
	assert.Equal(t, "vew1", f.lastViewID)
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.tokenCalls), "租户 Token 应被缓存复用")
}

func TestClient_CreateRecord(t *testing.T) {
	f := &fakeServer{}
	c := newTestClient(t, f)

	rec, err := c.CreateRecord(testContext(t), map[string]interface{}{"candidate_name": "张三", "status": "待面试"})
	require.NoError(t, err)
	assert.Equal(t, "recNew", rec.RecordID)
	assert.Equal(t, "张三", f.lastFields["candidate_name"])
}

func TestClient_DeleteRecord_PermissionDenied(t *testing.T) {
	tests := []struct {
		name       string
		httpStatus int
		code       int
	}{
		{"HTTP 403", http.StatusForbidden, 99991672},
		{"业务码 1254302", http.StatusOK, CodePermissionDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeServer{deleteHTTP: tt.httpStatus, deleteCode: tt.code}
			c := newTestClient(t, f)

			err := c.DeleteRecord(testContext(t), "rec1")
			require.Error(t, err)
			assert.True(t, IsPermissionDenied(err))
			assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
		})
	}
}

func TestClient_DeleteRecord_OtherError(t *testing.T) {
	f := &fakeServer{deleteCode: CodeRecordNotFound}
	c := newTestClient(t, f)

	err := c.DeleteRecord(testContext(t), "rec1")
	require.Error(t, err)
	assert.False(t, IsPermissionDenied(err))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, CodeRecordNotFound, apiErr.Code)
	assert.True(t, strings.Contains(err.Error(), "delete_record"))
}

func TestClient_NotConfigured(t *testing.T) {
	c := NewClient(&config.BitableConfig{BaseURL: "http://127.0.0.1:1"}, nil, zap.NewNop())
	_, err := c.ListViews(testContext(t))
	assert.ErrorIs(t, err, apperrors.ErrNotConfigured)
}
