package orchestration

import (
	"fmt"

	"github.com/ariavoice/aria-core/core/languages"
)

// PromptSet holds the canned assistant lines for one language. Localized
// string tables proper live outside the engine; these are the minimal lines
// the dialogue loop itself has to speak.
type PromptSet struct {
	// LanguageRequest is played right after start, asking the user to name a
	// language. Only the default language's entry is ever used for this.
	LanguageRequest string
	// Welcome greets the user once a language has been chosen.
	Welcome string
	// Retry re-prompts when no language keyword was recognized.
	Retry string
	// Farewell is played when the session ends.
	Farewell string
	// Apology is the fixed fallback line returned when a query fails.
	Apology string
}

// Prompts maps language codes to their prompt sets.
type Prompts map[string]PromptSet

// ForLanguage resolves the prompt set for a language code, falling back to
// the default language's set for unknown codes.
func (p Prompts) ForLanguage(code string) PromptSet {
	if set, ok := p[languages.Resolve(code).Code]; ok {
		return set
	}
	return p[languages.Default().Code]
}

// DefaultPrompts returns the built-in prompt sets for the supported
// languages.
func DefaultPrompts() Prompts {
	return Prompts{
		"cmn-Hant-TW": {
			LanguageRequest: "您好！我是您的語音助理。請問您想使用哪一種語言交談？您可以說中文、English、日本語或한국어。",
			Welcome:         "好的，我們用中文交談。請問有什麼我可以幫您的嗎？",
			Retry:           "抱歉，我沒有聽清楚。請再說一次您想使用的語言，例如中文或English。",
			Farewell:        "謝謝您的使用，再見！",
			Apology:         "抱歉，我暫時無法回答您的問題，請稍後再試一次。",
		},
		"en-US": {
			LanguageRequest: "Hello! I am your voice assistant. Which language would you like to use? You can say English, 中文, 日本語 or 한국어.",
			Welcome:         "Great, let's talk in English. How can I help you today?",
			Retry:           "Sorry, I didn't catch that. Please name the language you'd like to use, for example English or 中文.",
			Farewell:        "Thank you for talking with me. Goodbye!",
			Apology:         "Sorry, I couldn't answer that right now. Please try again in a moment.",
		},
		"ja-JP": {
			LanguageRequest: "こんにちは！音声アシスタントです。どの言語で話しますか？",
			Welcome:         "かしこまりました。日本語で話しましょう。ご用件は何でしょうか？",
			Retry:           "すみません、聞き取れませんでした。使いたい言語をもう一度教えてください。",
			Farewell:        "ご利用ありがとうございました。さようなら！",
			Apology:         "申し訳ありません、今は回答できません。少し後でもう一度お試しください。",
		},
		"ko-KR": {
			LanguageRequest: "안녕하세요! 음성 도우미입니다. 어떤 언어로 이야기할까요?",
			Welcome:         "좋아요, 한국어로 이야기해요. 무엇을 도와드릴까요?",
			Retry:           "죄송해요, 잘 못 들었어요. 사용하실 언어를 다시 말씀해 주세요.",
			Farewell:        "이용해 주셔서 감사합니다. 안녕히 가세요!",
			Apology:         "죄송해요, 지금은 답변할 수 없어요. 잠시 후 다시 시도해 주세요.",
		},
	}
}

// systemInstruction builds the persistent instruction for the query service.
// The trailing language tag it demands is a hard wire contract: the
// dispatcher parses it to follow the language the model actually answered in.
func systemInstruction() string {
	supported := ""
	for i, language := range languages.Supported() {
		if i > 0 {
			supported += ", "
		}
		supported += language.Code
	}

	return fmt.Sprintf(
		"You are a friendly voice assistant for users who interact entirely by "+
			"voice, including vision-impaired users. Answer concisely in plain "+
			"spoken prose without markdown, lists or emoji, since your answer "+
			"will be read aloud. Answer in the language the user speaks, using "+
			"web search results when they help. Always end your reply with a "+
			"tag of the exact form [lang: <code>] naming the language you "+
			"answered in, where <code> is one of: %s.",
		supported,
	)
}
