package pipeline

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/nao1215/gymnotify/pkg/pushclient"
)

// dispatch はプッシュメッセージをゲートウェイに送信し、結果をresultに集計する。
//
// バッチ送信が有効な場合は全メッセージを1リクエストで送り、チケットごとに
// 成否を判定する。HTTPレベルの失敗（ネットワーク・タイムアウト・5xx）は
// バッチ全体を未配達として扱う。いずれの場合もプロセス内での再送は行わない。
// 再配信の判断はイベントソースの責務であり、この契約はテストで固定されている。
func (p *Pipeline) dispatch(ctx context.Context, messages []pushclient.Message, result *Result) {
	if len(messages) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, p.pushTimeout)
	defer cancel()

	if p.batchSend {
		p.dispatchBatch(ctx, messages, result)
		return
	}
	p.dispatchEach(ctx, messages, result)
}

// dispatchBatch は全メッセージを1回のバッチリクエストで送信する。
func (p *Pipeline) dispatchBatch(ctx context.Context, messages []pushclient.Message, result *Result) {
	tickets, err := p.gateway.SendBatch(ctx, messages)
	if err != nil {
		// バッチ全体が未配達。永続化済みのインアプリ通知は有効なまま残る。
		result.PushFailed += len(messages)
		p.logger.WithError(err).Warn("プッシュバッチの送信に失敗しました")
		return
	}

	for i := range messages {
		if i < len(tickets) && !tickets[i].OK() {
			result.PushFailed++
			p.logger.WithFields(logrus.Fields{
				"ticket_message": tickets[i].Message,
			}).Warn("プッシュメッセージがゲートウェイに拒否されました")
			continue
		}
		result.Pushed++
	}
}

// dispatchEach はメッセージごとに個別リクエストで送信する。
// バッチAPIを持たないゲートウェイ向けのフォールバック経路。
func (p *Pipeline) dispatchEach(ctx context.Context, messages []pushclient.Message, result *Result) {
	for _, msg := range messages {
		ticket, err := p.gateway.Send(ctx, msg)
		if err != nil {
			result.PushFailed++
			p.logger.WithError(err).Warn("プッシュメッセージの送信に失敗しました")
			continue
		}
		if !ticket.OK() {
			result.PushFailed++
			p.logger.WithFields(logrus.Fields{
				"ticket_message": ticket.Message,
			}).Warn("プッシュメッセージがゲートウェイに拒否されました")
			continue
		}
		result.Pushed++
	}
}
