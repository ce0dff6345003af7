package languages

import "strings"

// Interpret matches a spoken phrase against the language table keywords and
// returns the first language whose keyword appears in the phrase.
//
// Matching is case-insensitive and ignores trailing full-stop punctuation the
// speech service tends to append. Table order decides ties, so earlier
// entries win when a phrase names more than one language.
func Interpret(transcript string) (Language, bool) {
	phrase := strings.ToLower(strings.TrimSpace(transcript))
	phrase = strings.TrimRight(phrase, ".。")

	if phrase == "" {
		return Language{}, false
	}

	for _, language := range supported {
		for _, keyword := range language.keywords {
			if strings.Contains(phrase, keyword) {
				return language, true
			}
		}
	}

	return Language{}, false
}
