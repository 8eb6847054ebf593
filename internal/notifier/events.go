package notifier

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/gymnotify/pkg/event"
)

// handleEvent は変更イベントを受け取り、ファンアウトパイプラインを実行するハンドラ。
//
// 形式不正のペイロードは400で拒否する（恒久的な失敗であり再配信は不要）。
// 処理済みまたは対象外のイベントは200で処理結果の件数を返す。
// 通知レコードを1件も永続化できなかった場合は500を返し、
// イベントソースに再配信を促す。
func (s *Server) handleEvent() gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "リクエストボディの読み込みに失敗しました"})
			return
		}

		ev, err := event.Decode(body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		result, err := s.pipe.Process(c.Request.Context(), ev)
		if err != nil {
			s.logger.WithError(err).Error("変更イベントの処理に失敗しました")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "イベントの処理に失敗しました"})
			return
		}

		c.JSON(http.StatusOK, result)
	}
}
