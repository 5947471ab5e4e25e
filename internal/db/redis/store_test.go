package redis

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/ftquery/internal/db"
	"github.com/kailas-cloud/ftquery/internal/domain"
	"github.com/kailas-cloud/ftquery/internal/wire"
)

func TestPing_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPing_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestExecute_RendersArgs(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.SEARCH", "idx", "hello", "FILTER", "price", "(0", "+inf", "LIMIT", "5", "10")).
		Return(mock.Result(mock.RedisArray(mock.RedisInt64(0))))

	s := NewStoreForTest(c)
	args := wire.Args{"FT.SEARCH", "idx", "hello", "FILTER", "price", "(0", math.Inf(1), "LIMIT", 5, 10}
	msg, err := s.Execute(context.Background(), args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	items, err := msg.ToArray()
	if err != nil || len(items) != 1 {
		t.Fatalf("reply = %v, %v", items, err)
	}
}

func TestExecute_TransportError(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), gomock.Any()).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	_, err := s.Execute(context.Background(), wire.Args{"FT.INFO", "idx"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected wrapped DeadlineExceeded, got %v", err)
	}
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpInfo {
		t.Errorf("expected db.Error with op FT.INFO, got %v", err)
	}
}

func TestExecute_ServerErrors(t *testing.T) {
	tests := []struct {
		name   string
		msg    string
		target error
	}{
		{"unknown index", "Unknown Index name", domain.ErrIndexNotFound},
		{"no such index", "idx: no such index", domain.ErrIndexNotFound},
		{"cursor", "Cursor not found, id: 42", domain.ErrCursorNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			c := mock.NewClient(ctrl)

			c.EXPECT().
				Do(gomock.Any(), gomock.Any()).
				Return(mock.Result(mock.RedisError(tt.msg)))

			s := NewStoreForTest(c)
			_, err := s.Execute(context.Background(), wire.Args{"FT.CURSOR", "READ", "idx", int64(42)})
			if !errors.Is(err, tt.target) {
				t.Fatalf("expected %v, got %v", tt.target, err)
			}
		})
	}
}

func TestExecute_OtherServerErrorUnchanged(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), gomock.Any()).
		Return(mock.Result(mock.RedisError("Syntax error at offset 3")))

	s := NewStoreForTest(c)
	_, err := s.Execute(context.Background(), wire.Args{"FT.SEARCH", "idx", "(("})
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, domain.ErrIndexNotFound) || errors.Is(err, domain.ErrCursorNotFound) {
		t.Errorf("unexpected classification: %v", err)
	}
}

func TestExecute_Empty(t *testing.T) {
	s := NewStoreForTest(mock.NewClient(gomock.NewController(t)))
	if _, err := s.Execute(context.Background(), nil); err == nil {
		t.Fatal("expected error")
	}
}
