// Package languages holds the static table of languages the assistant can
// converse in, together with the keyword matching used during the language
// selection phase.
package languages

import "strings"

// Language maps a dialogue language code to its display label and the locale
// variant understood by the speech services.
type Language struct {
	// Code is the BCP-47 style tag used for dialogue and response language.
	Code string
	// Label is the human readable name shown to the user.
	Label string
	// SpeechLocale is the locale variant passed to the speech services.
	SpeechLocale string

	// keywords are the phrases (native name plus short aliases) that select
	// this language when spoken during the selection phase.
	keywords []string
}

var supported = []Language{
	{
		Code:         "cmn-Hant-TW",
		Label:        "中文（台灣）",
		SpeechLocale: "zh-TW",
		keywords:     []string{"中文", "國語", "華語", "chinese", "mandarin"},
	},
	{
		Code:         "en-US",
		Label:        "English",
		SpeechLocale: "en-US",
		keywords:     []string{"english", "英文", "英語"},
	},
	{
		Code:         "ja-JP",
		Label:        "日本語",
		SpeechLocale: "ja-JP",
		keywords:     []string{"japanese", "日本語", "日文", "にほんご"},
	},
	{
		Code:         "ko-KR",
		Label:        "한국어",
		SpeechLocale: "ko-KR",
		keywords:     []string{"korean", "한국어", "韓文"},
	},
}

// Supported returns a copy of the language table in priority order.
func Supported() []Language {
	table := make([]Language, len(supported))
	copy(table, supported)
	return table
}

// Default returns the first table entry, used whenever no other language
// applies (welcome playback, selection retries, unresolved codes).
func Default() Language {
	return supported[0]
}

// Resolve maps a language code to its table entry. It is total: an unknown
// code resolves to the default language rather than failing.
func Resolve(code string) Language {
	for _, language := range supported {
		if strings.EqualFold(language.Code, code) {
			return language
		}
	}
	return Default()
}

// IsSupported reports whether code names a language the assistant can
// converse in.
func IsSupported(code string) bool {
	for _, language := range supported {
		if strings.EqualFold(language.Code, code) {
			return true
		}
	}
	return false
}
