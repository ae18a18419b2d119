package i18n

// chineseMessages contains all Simplified Chinese translations.
var chineseMessages = map[string]string{
	"error.generic":           "出错了，请重试。",
	"error.invalid_json":      "请求内容不是有效的 JSON。",
	"error.invalid_param":     "%s 的值无效。",
	"error.name_required":     "请提供艺术家名称。",
	"error.preview_params":    "需要同时提供艺术家和歌曲。",
	"error.user_required":     "请提供用户 ID。",
	"error.artist_not_found":  "没有找到与“%s”匹配的艺术家。",
	"error.not_found":         "未找到。",
	"error.store_unavailable": "艺术家数据库暂时不可用，请稍后再试。",
	"error.rate_limited":      "请求过于频繁，请等待 %d 秒。",
	"error.duplicate_artist":  "已存在与“%s”相似的艺术家：%s。",
	"error.not_configured":    "服务器未配置 %s。",
	"error.upstream":          "外部服务没有响应，请重试。",

	"success.artist_created":   "已添加 %s。",
	"success.favorite_added":   "已将 %s 加入收藏。",
	"success.favorite_removed": "已从收藏中移除。",
	"success.enriched":         "已更新 %s 的资料。",

	"search.no_results":   "没有找到与“%s”匹配的艺术家。",
	"search.did_you_mean": "你是不是要找 %s？",
	"search.browse":       "显示全部艺术家。",

	"preview.none": "%s - %s 暂无试听。",
}
