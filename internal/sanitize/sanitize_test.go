package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeStripsForbiddenContent(t *testing.T) {
	in := "Здравствуйте! Я лично приеду и позвоню вам на +79121234567"
	out := Sanitize(in, false, false)

	assert.NotContains(t, out, "Здравствуйте")
	assert.NotContains(t, out, "приеду и")
	assert.False(t, strings.Contains(strings.ToLower(out), "я приеду"))
	assert.NotContains(t, out, "позвоню")
	assert.NotContains(t, out, "+7912")
	assert.Contains(t, out, "мастер приедет")
}

func TestSanitizeGreeting(t *testing.T) {
	in := "Здравствуйте! Подскажите площадь."
	assert.Equal(t, "Подскажите площадь.", Sanitize(in, false, false))
	assert.Equal(t, in, Sanitize(in, true, false))
}

func TestSanitizePhoneEcho(t *testing.T) {
	in := "Телефон: +79121234567"
	assert.Equal(t, "Телефон:", Sanitize(in, true, false))
	assert.Equal(t, in, Sanitize(in, true, true))
}

func TestSanitizeInvitesAndCalls(t *testing.T) {
	assert.Equal(t, "мастер приедет в удобное время", Sanitize("ждём вас в удобное время", true, false))
	assert.Equal(t, "Хорошо.", Sanitize("Хорошо. Позвоните нам завтра утром", true, false))
}

func TestSanitizeWhitespace(t *testing.T) {
	assert.Equal(t, "а б\n\nв", Sanitize("а   б\n\n\n\nв", true, false))
	assert.Equal(t, "", Sanitize("", true, false))
}
