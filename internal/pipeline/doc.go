// Package pipeline は変更イベントの通知ファンアウトパイプラインを実装する。
//
// 1件の変更イベントを分類し、受信者集合を解決し、受信者ごとの通知レコードを
// 永続化した上で、プッシュトークンを持つ受信者へベストエフォートの
// プッシュ配信を試みる。永続化とプッシュ送信はトランザクションで結ばれず、
// インアプリ通知を正とする。プロセス内での再送は行わず、再配信の判断は
// イベントソースに委ねる。
package pipeline
