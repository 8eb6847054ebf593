package ingest

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"github.com/nao1215/gymnotify/internal/pipeline"
	"github.com/nao1215/gymnotify/pkg/event"
)

// fakeProcessor はテスト用のProcessor実装。
type fakeProcessor struct {
	events []*event.ChangeEvent
	result *pipeline.Result
	err    error
}

func (f *fakeProcessor) Process(_ context.Context, ev *event.ChangeEvent) (*pipeline.Result, error) {
	f.events = append(f.events, ev)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// newTestSubscriber はNATS接続なしでhandleMessageを試験するためのSubscriberを生成する。
func newTestSubscriber(processor Processor) *Subscriber {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return &Subscriber{
		subject:        "gym.events",
		processor:      processor,
		logger:         logger,
		processTimeout: 5 * time.Second,
	}
}

// TestHandleMessage はNATSメッセージのデコードとパイプラインへの受け渡しを検証する。
func TestHandleMessage(t *testing.T) {
	t.Parallel()

	t.Run("正常なイベントがパイプラインに渡されること", func(t *testing.T) {
		t.Parallel()

		processor := &fakeProcessor{
			result: &pipeline.Result{Status: pipeline.StatusDispatched, Persisted: 2, Pushed: 2},
		}
		s := newTestSubscriber(processor)

		data := []byte(`{"operation":"Insert","sourceEntity":"sales","record":{"id":"sale-1","staff_id":"S1"}}`)
		s.handleMessage(&nats.Msg{Subject: "gym.events", Data: data})

		if len(processor.events) != 1 {
			t.Fatalf("処理されたイベント数: got %d, want 1", len(processor.events))
		}
		got := processor.events[0]
		if got.SourceEntity != "sales" {
			t.Errorf("SourceEntity = %q, want %q", got.SourceEntity, "sales")
		}
		if got.Operation != event.OperationInsert {
			t.Errorf("Operation = %q, want %q", got.Operation, event.OperationInsert)
		}
	})

	t.Run("形式不正なメッセージは破棄されること", func(t *testing.T) {
		t.Parallel()

		processor := &fakeProcessor{}
		s := newTestSubscriber(processor)

		tests := [][]byte{
			[]byte(`not json`),
			[]byte(`{"operation":"Insert"}`),
			[]byte(`{}`),
		}
		for _, data := range tests {
			s.handleMessage(&nats.Msg{Subject: "gym.events", Data: data})
		}

		if len(processor.events) != 0 {
			t.Errorf("処理されたイベント数: got %d, want 0", len(processor.events))
		}
	})

	t.Run("処理エラーはログに残して握りつぶすこと", func(t *testing.T) {
		t.Parallel()

		processor := &fakeProcessor{err: errors.New("store down")}
		s := newTestSubscriber(processor)

		data := []byte(`{"operation":"Insert","sourceEntity":"sales","record":{"id":"sale-1"}}`)
		// パニックせず正常に戻ることのみ確認する
		s.handleMessage(&nats.Msg{Subject: "gym.events", Data: data})

		if len(processor.events) != 1 {
			t.Errorf("処理されたイベント数: got %d, want 1", len(processor.events))
		}
	})
}
