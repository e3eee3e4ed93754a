package utils

// Server-side messages that reach participants. Keys match ServiceError messages.

var translations = map[string]map[string]string{
	"en": {
		"health.ok":             "ok",
		"consent.required":      "Please give consent before starting the assessments.",
		"phq.incomplete":        "Please answer all questions before submitting.",
		"phq.baseline_exists":   "The initial questionnaire has already been submitted.",
		"phq.followup_exists":   "The follow-up questionnaire has already been submitted.",
		"phq.followup_early":    "The follow-up questionnaire opens on day 14.",
		"phq.baseline_missing":  "Complete the initial questionnaire first.",
		"ema.incomplete":        "Please answer all questions before submitting.",
		"ema.already_submitted": "You have already completed today's check-in.",
		"screening.empty":       "Please enter some text to analyze.",
		"screening.unavailable": "An error occurred while analyzing your text. Please try again.",
		"chat.empty":            "Please enter a message.",
		"auth.invalid":          "invalid credentials",
		"auth.required":         "unauthorized",
		"auth.forbidden":        "forbidden",
	},
	"zh": {
		"health.ok":             "好的",
		"consent.required":      "请先同意参与研究后再开始评估。",
		"phq.incomplete":        "提交前请回答所有问题。",
		"phq.baseline_exists":   "初始问卷已提交。",
		"phq.followup_exists":   "随访问卷已提交。",
		"phq.followup_early":    "随访问卷将在第 14 天开放。",
		"phq.baseline_missing":  "请先完成初始问卷。",
		"ema.incomplete":        "提交前请回答所有问题。",
		"ema.already_submitted": "今天的每日评估已完成。",
		"screening.empty":       "请输入需要分析的文字。",
		"screening.unavailable": "分析文字时出错，请重试。",
		"chat.empty":            "请输入消息。",
		"auth.invalid":          "凭据无效",
		"auth.required":         "未授权",
		"auth.forbidden":        "无权访问",
	},
}

// T returns the translated string for key in locale; falls back to English, then the key itself.
func T(locale, key string) string {
	if m, ok := translations[locale]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	if v, ok := translations["en"][key]; ok {
		return v
	}
	return key
}
