package event

// Category は変更イベントの分類を表す。
// 通知ルールと受信者の決定はこの分類に基づいて行われる。
type Category string

const (
	// CategorySaleCreated は売上レコードが新規作成されたことを表す。
	CategorySaleCreated Category = "SaleCreated"
	// CategoryDirectNotificationCreated は特定ユーザー宛の通知が直接作成されたことを表す。
	CategoryDirectNotificationCreated Category = "DirectNotificationCreated"
	// CategoryUnhandled は通知ルールが存在しない変更を表す。
	// 処理対象外だがエラーではなく、パイプラインは何もせず正常終了する。
	CategoryUnhandled Category = "Unhandled"
)

// Classify は(エンティティ名, 操作)の組を閉じたCategory集合に写像する全域関数。
// どの組にも一致しない場合はCategoryUnhandledを返し、エラーにはしない。
// 新しい分類の追加はここへのcaseの追加だけで済み、下流コンポーネントには影響しない。
func Classify(e *ChangeEvent) Category {
	switch {
	case e.SourceEntity == "sales" && e.Operation == OperationInsert:
		return CategorySaleCreated
	case e.SourceEntity == "notifications" && e.Operation == OperationInsert:
		return CategoryDirectNotificationCreated
	default:
		return CategoryUnhandled
	}
}
