package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	gochi "github.com/go-chi/chi/v5"
	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ftquery/internal/db"
	"github.com/kailas-cloud/ftquery/internal/domain"
	healthuc "github.com/kailas-cloud/ftquery/internal/usecase/health"
	searchuc "github.com/kailas-cloud/ftquery/internal/usecase/search"
	"github.com/kailas-cloud/ftquery/internal/wire"
)

// --- Mocks ---

type fakeEngine struct {
	reply   rueidis.RedisMessage
	err     error
	pingErr error
	calls   []string
}

func (f *fakeEngine) Execute(_ context.Context, args wire.Args) (rueidis.RedisMessage, error) {
	f.calls = append(f.calls, args.String())
	return f.reply, f.err
}

func (f *fakeEngine) Ping(_ context.Context) error { return f.pingErr }

func newTestRouter(engine *fakeEngine) http.Handler {
	search := searchuc.New(engine, searchuc.Config{DefaultDialect: 2})
	srv := NewServer(search, healthuc.New(engine), "test", zap.NewNop())
	r := gochi.NewRouter()
	srv.Routes(r)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp
}

// --- Search ---

func TestSearch_OK(t *testing.T) {
	engine := &fakeEngine{reply: mock.RedisArray(
		mock.RedisInt64(1),
		mock.RedisString("doc:1"),
		mock.RedisArray(mock.RedisString("title"), mock.RedisString("hello")),
	)}
	h := newTestRouter(engine)

	rr := do(t, h, http.MethodPost, "/indexes/products/search",
		`{"query":"hello","limit":{"offset":0,"count":5},"filters":[{"type":"numeric","property":"price","max":100}]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	want := "FT.SEARCH products hello LIMIT 0 5 FILTER price -inf 100 DIALECT 2"
	if len(engine.calls) != 1 || engine.calls[0] != want {
		t.Errorf("calls = %v, want %q", engine.calls, want)
	}

	var body struct {
		Total int64 `json:"total"`
		Docs  []struct {
			ID     string            `json:"id"`
			Fields map[string]string `json:"fields"`
		} `json:"docs"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Total != 1 || body.Docs[0].ID != "doc:1" || body.Docs[0].Fields["title"] != "hello" {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestSearch_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code errorCode
	}{
		{"malformed json", `{"query":`, codeBadRequest},
		{"dialect zero", `{"query":"x","dialect":0}`, codeValidationFailed},
		{"unknown geo unit", `{"filters":[{"type":"geo","property":"loc","radius":1,"unit":"yd"}]}`, codeValidationFailed},
		{"unknown filter type", `{"filters":[{"type":"tag","property":"t"}]}`, codeValidationFailed},
		{"bad sort direction", `{"sort_by":{"field":"price","direction":"up"}}`, codeValidationFailed},
		{"bool param", `{"params":[{"name":"p","value":true}]}`, codeValidationFailed},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			engine := &fakeEngine{}
			rr := do(t, newTestRouter(engine), http.MethodPost, "/indexes/idx/search", tc.body)

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rr.Code)
			}
			if got := decodeError(t, rr).Code; got != tc.code {
				t.Errorf("code = %s, want %s", got, tc.code)
			}
			if len(engine.calls) != 0 {
				t.Errorf("engine must not be called, got %v", engine.calls)
			}
		})
	}
}

func TestSearch_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		reply  rueidis.RedisMessage
		status int
		code   errorCode
	}{
		{
			"index not found",
			&db.Error{Op: db.OpSearch, Err: fmt.Errorf("%w: Unknown Index name", domain.ErrIndexNotFound)},
			rueidis.RedisMessage{}, http.StatusNotFound, codeIndexNotFound,
		},
		{"protocol error", nil, mock.RedisString("OK"), http.StatusBadGateway, codeProtocolError},
		{"transport failure", errors.New("connection reset"), rueidis.RedisMessage{}, http.StatusInternalServerError, codeInternalError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			engine := &fakeEngine{reply: tc.reply, err: tc.err}
			rr := do(t, newTestRouter(engine), http.MethodPost, "/indexes/idx/search", `{"query":"x"}`)

			if rr.Code != tc.status {
				t.Fatalf("status = %d, want %d", rr.Code, tc.status)
			}
			resp := decodeError(t, rr)
			if resp.Code != tc.code {
				t.Errorf("code = %s, want %s", resp.Code, tc.code)
			}
			if strings.Contains(resp.Message, "connection reset") {
				t.Errorf("internal details leaked: %q", resp.Message)
			}
		})
	}
}

// --- Aggregate / cursors ---

func TestAggregate_WithCursor(t *testing.T) {
	engine := &fakeEngine{reply: mock.RedisArray(
		mock.RedisArray(
			mock.RedisInt64(2),
			mock.RedisArray(mock.RedisString("brand"), mock.RedisString("acme"), mock.RedisString("n"), mock.RedisString("3")),
		),
		mock.RedisInt64(55),
	)}
	h := newTestRouter(engine)

	body := `{
		"query": "*",
		"steps": [
			{"type": "groupby", "fields": ["@brand"], "reducers": [{"func": "count", "as": "n"}]},
			{"type": "sortby", "keys": [{"property": "@n", "direction": "desc"}], "max": 10}
		],
		"cursor": {"count": 100, "max_idle_ms": 5000}
	}`
	rr := do(t, h, http.MethodPost, "/indexes/products/aggregate", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	want := "FT.AGGREGATE products * WITHCURSOR COUNT 100 MAXIDLE 5000 " +
		"GROUPBY 1 @brand REDUCE COUNT 0 AS n SORTBY 2 @n DESC MAX 10 DIALECT 2"
	if engine.calls[0] != want {
		t.Errorf("command = %q, want %q", engine.calls[0], want)
	}

	var resp aggregateResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Cursor == nil || *resp.Cursor != 55 {
		t.Errorf("cursor = %v, want 55", resp.Cursor)
	}
	if len(resp.Rows) != 1 || resp.Rows[0]["brand"] != "acme" {
		t.Errorf("rows = %v", resp.Rows)
	}
}

func TestAggregate_UnknownReducer(t *testing.T) {
	engine := &fakeEngine{}
	rr := do(t, newTestRouter(engine), http.MethodPost, "/indexes/idx/aggregate",
		`{"steps":[{"type":"groupby","fields":["@a"],"reducers":[{"func":"median","property":"@b"}]}]}`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestReadCursor(t *testing.T) {
	engine := &fakeEngine{reply: mock.RedisArray(
		mock.RedisArray(mock.RedisInt64(2)),
		mock.RedisInt64(0),
	)}
	rr := do(t, newTestRouter(engine), http.MethodGet, "/indexes/idx/cursors/55?count=20", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if want := "FT.CURSOR READ idx 55 COUNT 20"; engine.calls[0] != want {
		t.Errorf("command = %q, want %q", engine.calls[0], want)
	}
}

func TestReadCursor_BadParams(t *testing.T) {
	for _, path := range []string{"/indexes/idx/cursors/abc", "/indexes/idx/cursors/0", "/indexes/idx/cursors/5?count=x"} {
		engine := &fakeEngine{}
		rr := do(t, newTestRouter(engine), http.MethodGet, path, "")
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, rr.Code)
		}
		if len(engine.calls) != 0 {
			t.Errorf("%s: engine must not be called", path)
		}
	}
}

func TestDeleteCursor(t *testing.T) {
	engine := &fakeEngine{reply: mock.RedisString("OK")}
	rr := do(t, newTestRouter(engine), http.MethodDelete, "/indexes/idx/cursors/55", "")

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rr.Code)
	}
	if want := "FT.CURSOR DEL idx 55"; engine.calls[0] != want {
		t.Errorf("command = %q, want %q", engine.calls[0], want)
	}
}

func TestDeleteCursor_NotFound(t *testing.T) {
	engine := &fakeEngine{err: &db.Error{Op: db.OpCursor, Err: domain.ErrCursorNotFound}}
	rr := do(t, newTestRouter(engine), http.MethodDelete, "/indexes/idx/cursors/55", "")

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
	if got := decodeError(t, rr).Code; got != codeCursorNotFound {
		t.Errorf("code = %s, want %s", got, codeCursorNotFound)
	}
}

// --- Info / health ---

func TestInfo(t *testing.T) {
	engine := &fakeEngine{reply: mock.RedisArray(
		mock.RedisString("index_name"), mock.RedisString("idx"),
		mock.RedisString("num_docs"), mock.RedisInt64(7),
	)}
	rr := do(t, newTestRouter(engine), http.MethodGet, "/indexes/idx/info", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var info map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info["index_name"] != "idx" || info["num_docs"] != float64(7) {
		t.Errorf("info = %v", info)
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name    string
		pingErr error
		want    int
	}{
		{"healthy", nil, http.StatusOK},
		{"engine down", errors.New("dial tcp: refused"), http.StatusServiceUnavailable},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := do(t, newTestRouter(&fakeEngine{pingErr: tc.pingErr}), http.MethodGet, "/health", "")
			if rr.Code != tc.want {
				t.Fatalf("status = %d, want %d", rr.Code, tc.want)
			}
			var resp healthResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Version != "test" {
				t.Errorf("version = %q", resp.Version)
			}
		})
	}
}
