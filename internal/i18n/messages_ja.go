package i18n

// japaneseMessages contains all Japanese translations.
var japaneseMessages = map[string]string{
	"error.generic":           "エラーが発生しました。もう一度お試しください。",
	"error.invalid_json":      "リクエスト本文が正しい JSON ではありません。",
	"error.invalid_param":     "%s の値が正しくありません。",
	"error.name_required":     "アーティスト名を入力してください。",
	"error.preview_params":    "アーティストと曲名の両方が必要です。",
	"error.user_required":     "ユーザー ID が必要です。",
	"error.artist_not_found":  "「%s」に一致するアーティストが見つかりません。",
	"error.not_found":         "見つかりません。",
	"error.store_unavailable": "アーティストデータベースに接続できません。しばらくしてからお試しください。",
	"error.rate_limited":      "リクエストが多すぎます。%d 秒お待ちください。",
	"error.duplicate_artist":  "「%s」に似たアーティストがすでに登録されています：%s。",
	"error.not_configured":    "このサーバーでは %s が設定されていません。",
	"error.upstream":          "外部サービスが応答しませんでした。もう一度お試しください。",

	"success.artist_created":   "%s を追加しました。",
	"success.favorite_added":   "%s をお気に入りに保存しました。",
	"success.favorite_removed": "お気に入りから削除しました。",
	"success.enriched":         "%s の情報を更新しました。",

	"search.no_results":   "「%s」に一致するアーティストはいません。",
	"search.did_you_mean": "もしかして %s ？",
	"search.browse":       "すべてのアーティストを表示しています。",

	"preview.none": "%s - %s の試聴はありません。",
}
