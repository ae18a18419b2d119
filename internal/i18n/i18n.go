// Package i18n localizes API messages.
package i18n

import (
	"fmt"

	"golang.org/x/text/language"
)

const (
	// DefaultLanguage is the fallback language when no translation is available
	DefaultLanguage = "en"
	// Chinese is Simplified Chinese.
	Chinese = "zh"
	// Japanese is the festival's home language.
	Japanese = "ja"
)

var supported = []string{DefaultLanguage, Chinese, Japanese}

var matcher = language.NewMatcher([]language.Tag{
	language.English,
	language.SimplifiedChinese,
	language.Japanese,
})

// Localizer provides translation functionality
type Localizer struct {
	language string
	messages map[string]string
}

// NewLocalizer creates a new localizer for the specified language
func NewLocalizer(language string) *Localizer {
	if _, ok := catalogs[language]; !ok {
		language = DefaultLanguage
	}
	return &Localizer{
		language: language,
		messages: getMessages(language),
	}
}

// Language returns the language the localizer renders.
func (l *Localizer) Language() string {
	return l.language
}

// T translates a message key, with optional parameters for formatting
func (l *Localizer) T(key string, args ...any) string {
	if message, exists := l.messages[key]; exists {
		return format(message, args)
	}

	if l.language != DefaultLanguage {
		if fallbackMessage, exists := getMessages(DefaultLanguage)[key]; exists {
			return format(fallbackMessage, args)
		}
	}

	return key
}

func format(message string, args []any) string {
	if len(args) > 0 {
		return fmt.Sprintf(message, args...)
	}
	return message
}

// Match picks the supported language that best fits an Accept-Language
// header value. Unparseable or empty headers yield fallback when it is
// supported, else DefaultLanguage.
func Match(acceptLanguage, fallback string) string {
	if _, ok := catalogs[fallback]; !ok {
		fallback = DefaultLanguage
	}
	if acceptLanguage == "" {
		return fallback
	}

	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return fallback
	}

	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return fallback
	}
	return supported[index]
}

// GetSupportedLanguages returns list of supported language codes
func GetSupportedLanguages() []string {
	out := make([]string, len(supported))
	copy(out, supported)
	return out
}

var catalogs = map[string]map[string]string{
	DefaultLanguage: englishMessages,
	Chinese:         chineseMessages,
	Japanese:        japaneseMessages,
}

// getMessages returns the message map for a given language
func getMessages(language string) map[string]string {
	if m, ok := catalogs[language]; ok {
		return m
	}
	return englishMessages
}
