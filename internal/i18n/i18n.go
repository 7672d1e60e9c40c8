// Package i18n holds the bot's interface texts in English, Russian and
// Chinese. Texts use Telegram HTML markup and {name} placeholders.
package i18n

import (
	"fmt"
	"strings"
)

const (
	EN = "en"
	RU = "ru"
	ZH = "zh"

	Default = EN
)

// Languages lists the supported language codes in menu order.
var Languages = []string{EN, RU, ZH}

// Supported reports whether lang has a dictionary.
func Supported(lang string) bool {
	for _, l := range Languages {
		if l == lang {
			return true
		}
	}
	return false
}

type Key string

// Args fills {name} placeholders.
type Args map[string]any

// T returns the text for key in lang, falling back to English and then to
// the key itself.
func T(lang string, key Key, args ...Args) string {
	entry, ok := dictionary[key]
	if !ok {
		return string(key)
	}
	text, ok := entry[lang]
	if !ok {
		text = entry[Default]
	}

	for _, a := range args {
		pairs := make([]string, 0, len(a)*2)
		for name, v := range a {
			pairs = append(pairs, "{"+name+"}", fmt.Sprint(v))
		}
		text = strings.NewReplacer(pairs...).Replace(text)
	}
	return text
}
