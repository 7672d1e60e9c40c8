package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestT(t *testing.T) {
	assert.Equal(t, "✅ Account restored.", T(EN, RestoreSuccess))
	assert.Equal(t, "✅ Аккаунт восстановлен.", T(RU, RestoreSuccess))
	assert.Equal(t, "✅ Account restored.", T("de", RestoreSuccess), "unknown language falls back to English")
	assert.Equal(t, "no_such_key", T(EN, Key("no_such_key")))

	got := T(EN, AmountRange, Args{"min": 10, "max": "1000"})
	assert.Equal(t, "❌ Enter an amount between 10 and 1000 USD.", got)
}

func TestEveryKeyHasAllLanguages(t *testing.T) {
	for key, entry := range dictionary {
		for _, lang := range Languages {
			assert.NotEmpty(t, entry[lang], "%s/%s", key, lang)
		}
	}
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("zh"))
	assert.False(t, Supported("de"))
}
