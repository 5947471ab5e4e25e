package search

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"

	"github.com/kailas-cloud/ftquery/internal/domain"
	"github.com/kailas-cloud/ftquery/internal/domain/search/aggregate"
	"github.com/kailas-cloud/ftquery/internal/domain/search/query"
	"github.com/kailas-cloud/ftquery/internal/domain/search/result"
	"github.com/kailas-cloud/ftquery/internal/wire"
)

// --- Mocks ---

type reply struct {
	msg rueidis.RedisMessage
	err error
}

// scriptedExecutor returns replies in order and records every command.
type scriptedExecutor struct {
	replies []reply
	calls   []string
}

func (e *scriptedExecutor) Execute(_ context.Context, args wire.Args) (rueidis.RedisMessage, error) {
	e.calls = append(e.calls, args.String())
	if len(e.replies) == 0 {
		return rueidis.RedisMessage{}, errors.New("unexpected command: " + args.String())
	}
	r := e.replies[0]
	e.replies = e.replies[1:]
	return r.msg, r.err
}

func ok(msg rueidis.RedisMessage) reply { return reply{msg: msg} }

func row(kv ...string) rueidis.RedisMessage {
	msgs := make([]rueidis.RedisMessage, len(kv))
	for i, s := range kv {
		msgs[i] = mock.RedisString(s)
	}
	return mock.RedisArray(msgs...)
}

// cursorBatch builds [[total, rows...], cursor].
func cursorBatch(total, cursor int64, rows ...rueidis.RedisMessage) rueidis.RedisMessage {
	body := append([]rueidis.RedisMessage{mock.RedisInt64(total)}, rows...)
	return mock.RedisArray(mock.RedisArray(body...), mock.RedisInt64(cursor))
}

// --- Search ---

func TestSearch_AppliesDefaultDialect(t *testing.T) {
	exec := &scriptedExecutor{replies: []reply{
		ok(mock.RedisArray(mock.RedisInt64(1), mock.RedisString("doc:1"), row("title", "hello"))),
	}}
	svc := New(exec, Config{DefaultDialect: 2})

	res, err := svc.Search(context.Background(), "idx", query.New("hello").Limit(5, 10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "FT.SEARCH idx hello LIMIT 5 10 DIALECT 2"
	if exec.calls[0] != want {
		t.Errorf("command = %q, want %q", exec.calls[0], want)
	}
	if res.Total != 1 || len(res.Docs) != 1 || res.Docs[0].Fields["title"] != "hello" {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestSearch_ExplicitDialectWins(t *testing.T) {
	exec := &scriptedExecutor{replies: []reply{ok(mock.RedisArray(mock.RedisInt64(0)))}}
	svc := New(exec, Config{DefaultDialect: 2})

	q := query.New("*").NoContent().MustDialect(3)
	if _, err := svc.Search(context.Background(), "idx", q); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "FT.SEARCH idx * NOCONTENT DIALECT 3"; exec.calls[0] != want {
		t.Errorf("command = %q, want %q", exec.calls[0], want)
	}
}

func TestSearch_DecodesWithQueryShape(t *testing.T) {
	exec := &scriptedExecutor{replies: []reply{
		ok(mock.RedisArray(mock.RedisInt64(1), mock.RedisString("doc:1"), mock.RedisString("0.5"))),
	}}
	svc := New(exec, Config{})

	res, err := svc.Search(context.Background(), "idx", query.New("x").NoContent().WithScores())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Docs[0].Score == nil || *res.Docs[0].Score != 0.5 {
		t.Errorf("expected score 0.5, got %+v", res.Docs[0])
	}
}

func TestSearch_ExecutorError(t *testing.T) {
	exec := &scriptedExecutor{replies: []reply{{err: domain.ErrIndexNotFound}}}
	svc := New(exec, Config{})

	_, err := svc.Search(context.Background(), "missing", query.New("x"))
	if !errors.Is(err, domain.ErrIndexNotFound) {
		t.Fatalf("expected ErrIndexNotFound, got %v", err)
	}
}

func TestSearch_ProtocolError(t *testing.T) {
	exec := &scriptedExecutor{replies: []reply{ok(mock.RedisString("OK"))}}
	svc := New(exec, Config{})

	_, err := svc.Search(context.Background(), "idx", query.New("x"))
	if !errors.Is(err, domain.ErrProtocol) {
		t.Fatalf("expected ErrProtocol, got %v", err)
	}
}

// --- Aggregate / cursors ---

func TestAggregate_WithCursor(t *testing.T) {
	exec := &scriptedExecutor{replies: []reply{ok(cursorBatch(3, 77, row("brand", "a")))}}
	svc := New(exec, Config{})

	agg := aggregate.New("*").
		GroupBy([]string{"@brand"}, aggregate.Count().As("n")).
		WithCursor(aggregate.Cursor{Count: 1, MaxIdle: time.Second})

	res, err := svc.Aggregate(context.Background(), "idx", agg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "FT.AGGREGATE idx * WITHCURSOR COUNT 1 MAXIDLE 1000 GROUPBY 1 @brand REDUCE COUNT 0 AS n"
	if exec.calls[0] != want {
		t.Errorf("command = %q, want %q", exec.calls[0], want)
	}
	if res.Cursor == nil || *res.Cursor != 77 {
		t.Errorf("expected cursor 77, got %v", res.Cursor)
	}
}

func TestReadAndDeleteCursor(t *testing.T) {
	exec := &scriptedExecutor{replies: []reply{
		ok(cursorBatch(3, 0, row("brand", "c"))),
		ok(mock.RedisString("OK")),
	}}
	svc := New(exec, Config{})

	res, err := svc.ReadCursor(context.Background(), "idx", 77, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Exhausted() {
		t.Error("expected exhausted cursor")
	}
	if err = svc.DeleteCursor(context.Background(), "idx", 77); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"FT.CURSOR READ idx 77 COUNT 50", "FT.CURSOR DEL idx 77"}
	for i, w := range want {
		if exec.calls[i] != w {
			t.Errorf("call %d = %q, want %q", i, exec.calls[i], w)
		}
	}
}

func TestAggregateEach_FollowsCursorToExhaustion(t *testing.T) {
	exec := &scriptedExecutor{replies: []reply{
		ok(cursorBatch(3, 9, row("n", "1"))),
		ok(cursorBatch(3, 9, row("n", "2"))),
		ok(cursorBatch(3, 0, row("n", "3"))),
	}}
	svc := New(exec, Config{CursorReadCount: 100})

	var seen []any
	err := svc.AggregateEach(context.Background(), "idx",
		aggregate.New("*").WithCursor(aggregate.Cursor{Count: 1}),
		func(batch *result.AggregationResult) (bool, error) {
			for _, r := range batch.Rows {
				v, _ := r.Get("n")
				seen = append(seen, v)
			}
			return true, nil
		})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seen) != 3 {
		t.Errorf("expected 3 rows, got %v", seen)
	}
	if len(exec.calls) != 3 || exec.calls[1] != "FT.CURSOR READ idx 9 COUNT 100" {
		t.Errorf("unexpected calls: %v", exec.calls)
	}
}

func TestAggregateEach_EarlyStopDeletesCursor(t *testing.T) {
	exec := &scriptedExecutor{replies: []reply{
		ok(cursorBatch(10, 9, row("n", "1"))),
		ok(mock.RedisString("OK")),
	}}
	svc := New(exec, Config{})

	err := svc.AggregateEach(context.Background(), "idx",
		aggregate.New("*").WithCursor(aggregate.Cursor{}),
		func(*result.AggregationResult) (bool, error) { return false, nil })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(exec.calls) != 2 || exec.calls[1] != "FT.CURSOR DEL idx 9" {
		t.Errorf("expected cursor delete, got %v", exec.calls)
	}
}

func TestAggregateEach_CallbackErrorDeletesCursor(t *testing.T) {
	exec := &scriptedExecutor{replies: []reply{
		ok(cursorBatch(10, 9, row("n", "1"))),
		ok(mock.RedisString("OK")),
	}}
	svc := New(exec, Config{})
	boom := errors.New("boom")

	err := svc.AggregateEach(context.Background(), "idx",
		aggregate.New("*").WithCursor(aggregate.Cursor{}),
		func(*result.AggregationResult) (bool, error) { return true, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if exec.calls[len(exec.calls)-1] != "FT.CURSOR DEL idx 9" {
		t.Errorf("expected cursor delete, got %v", exec.calls)
	}
}

func TestAggregateEach_CancelledContextDeletesCursor(t *testing.T) {
	exec := &scriptedExecutor{replies: []reply{
		ok(cursorBatch(10, 9, row("n", "1"))),
		ok(mock.RedisString("OK")),
	}}
	svc := New(exec, Config{})
	ctx, cancel := context.WithCancel(context.Background())

	err := svc.AggregateEach(ctx, "idx",
		aggregate.New("*").WithCursor(aggregate.Cursor{}),
		func(*result.AggregationResult) (bool, error) {
			cancel()
			return true, nil
		})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if exec.calls[len(exec.calls)-1] != "FT.CURSOR DEL idx 9" {
		t.Errorf("expected cursor delete, got %v", exec.calls)
	}
}

func TestAggregateEach_FailedReadDeletesCursor(t *testing.T) {
	tests := []struct {
		name    string
		read    reply
		wantErr error
	}{
		{"cancelled mid read", reply{err: context.Canceled}, context.Canceled},
		{"transport failure", reply{err: errors.New("connection reset")}, nil},
		{"malformed reply", ok(mock.RedisArray(mock.RedisArray(mock.RedisInt64(10)))), domain.ErrProtocol},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			exec := &scriptedExecutor{replies: []reply{
				ok(cursorBatch(10, 9, row("n", "1"))),
				tc.read,
				ok(mock.RedisString("OK")),
			}}
			svc := New(exec, Config{})

			err := svc.AggregateEach(context.Background(), "idx",
				aggregate.New("*").WithCursor(aggregate.Cursor{}),
				func(*result.AggregationResult) (bool, error) { return true, nil })
			if err == nil {
				t.Fatal("expected error")
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if len(exec.calls) != 3 || exec.calls[1] != "FT.CURSOR READ idx 9" {
				t.Fatalf("unexpected calls: %v", exec.calls)
			}
			if exec.calls[2] != "FT.CURSOR DEL idx 9" {
				t.Errorf("expected cursor delete, got %v", exec.calls)
			}
		})
	}
}

func TestAggregateEach_CursorGoneIsNotDeleted(t *testing.T) {
	exec := &scriptedExecutor{replies: []reply{
		ok(cursorBatch(10, 9, row("n", "1"))),
		{err: fmt.Errorf("%w: Cursor not found", domain.ErrCursorNotFound)},
	}}
	svc := New(exec, Config{})

	err := svc.AggregateEach(context.Background(), "idx",
		aggregate.New("*").WithCursor(aggregate.Cursor{}),
		func(*result.AggregationResult) (bool, error) { return true, nil })
	if !errors.Is(err, domain.ErrCursorNotFound) {
		t.Fatalf("expected ErrCursorNotFound, got %v", err)
	}
	if len(exec.calls) != 2 {
		t.Errorf("expected no delete after cursor gone, got %v", exec.calls)
	}
}

func TestAggregateEach_NoCursorSingleBatch(t *testing.T) {
	exec := &scriptedExecutor{replies: []reply{
		ok(mock.RedisArray(mock.RedisInt64(1), row("n", "1"))),
	}}
	svc := New(exec, Config{})

	batches := 0
	err := svc.AggregateEach(context.Background(), "idx", aggregate.New("*"),
		func(*result.AggregationResult) (bool, error) {
			batches++
			return true, nil
		})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if batches != 1 || len(exec.calls) != 1 {
		t.Errorf("expected one batch and one call, got %d batches, calls %v", batches, exec.calls)
	}
}

// --- Info ---

func TestInfo_Cached(t *testing.T) {
	exec := &scriptedExecutor{replies: []reply{
		ok(mock.RedisArray(mock.RedisString("index_name"), mock.RedisString("idx"),
			mock.RedisString("num_docs"), mock.RedisInt64(42))),
	}}
	svc := New(exec, Config{InfoCacheSize: 8, InfoCacheTTL: time.Minute})

	for i := 0; i < 3; i++ {
		info, err := svc.Info(context.Background(), "idx")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if info["num_docs"] != int64(42) {
			t.Errorf("num_docs = %v", info["num_docs"])
		}
	}
	if len(exec.calls) != 1 || exec.calls[0] != "FT.INFO idx" {
		t.Errorf("expected a single FT.INFO call, got %v", exec.calls)
	}
}

func TestInfo_NoCache(t *testing.T) {
	infoReply := ok(mock.RedisArray(mock.RedisString("index_name"), mock.RedisString("idx")))
	exec := &scriptedExecutor{replies: []reply{infoReply, infoReply}}
	svc := New(exec, Config{})

	for i := 0; i < 2; i++ {
		if _, err := svc.Info(context.Background(), "idx"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if len(exec.calls) != 2 {
		t.Errorf("expected 2 calls without cache, got %d", len(exec.calls))
	}
}

func TestInfo_ErrorNotCached(t *testing.T) {
	exec := &scriptedExecutor{replies: []reply{
		{err: domain.ErrIndexNotFound},
		ok(mock.RedisArray(mock.RedisString("index_name"), mock.RedisString("idx"))),
	}}
	svc := New(exec, Config{InfoCacheSize: 8, InfoCacheTTL: time.Minute})

	if _, err := svc.Info(context.Background(), "idx"); !errors.Is(err, domain.ErrIndexNotFound) {
		t.Fatalf("expected ErrIndexNotFound, got %v", err)
	}
	if _, err := svc.Info(context.Background(), "idx"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
