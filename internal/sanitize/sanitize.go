// Package sanitize post-processes outbound replies so the assistant never
// promises a call, never speaks as the person who will visit, and never
// echoes the customer's phone number back into a public chat.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	greetingRE    = regexp.MustCompile(`(?i)^\s*(здравствуйте|добрый день|добрый вечер|доброе утро|привет|приветствую)[\s!\.,:;-]*`)
	inviteRE      = regexp.MustCompile(`(?i)(жд[её]м\s+вас|приходите|ожидаем\s+вас)`)
	firstPersonRE = regexp.MustCompile(`(?i)(^|[^а-яa-zё])я\s+(?:[а-яё]+\s+)?(приеду|выех\w*|проведу\s+замер|замерю)`)
	callPromiseRE = regexp.MustCompile(`(?i)(позвоню|позвоним|созвон|позвоните|звоните|наберите)[^\n]*`)
	phoneRE       = regexp.MustCompile(`(?:\+7|8)\s*[\(\- ]?\d{3}[\)\- ]?\s*\d{3}[\- ]?\d{2}[\- ]?\d{2}`)
	spacesRE      = regexp.MustCompile(`[ \t]{2,}`)
	blankLinesRE  = regexp.MustCompile(`\n{3,}`)
)

// Sanitize rewrites an outbound reply. Greetings are stripped except on
// the very first turn. Phone numbers are redacted unless allowPhoneEcho
// is set, which the lead confirmation message relies on.
func Sanitize(text string, allowGreeting, allowPhoneEcho bool) string {
	if text == "" {
		return text
	}
	out := strings.TrimSpace(text)
	if !allowGreeting {
		out = strings.TrimSpace(greetingRE.ReplaceAllString(out, ""))
	}
	out = inviteRE.ReplaceAllString(out, "мастер приедет")
	out = firstPersonRE.ReplaceAllString(out, "${1}мастер приедет")
	out = callPromiseRE.ReplaceAllString(out, "")
	if !allowPhoneEcho {
		out = phoneRE.ReplaceAllString(out, "")
	}
	out = spacesRE.ReplaceAllString(out, " ")
	out = blankLinesRE.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}
