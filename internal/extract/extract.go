// Package extract contains the pure text-to-fact extractors used by the
// dialog engine. Extractors never look at conversation memory: they map a
// single inbound message to optional typed facts.
package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ---------- package-level compiled regexes ----------

var (
	phoneRE        = regexp.MustCompile(`(?:\+7|8)\s*[\(\- ]?\d{3}[\)\- ]?\s*\d{3}[\- ]?\d{2}[\- ]?\d{2}`)
	nonDigitRE     = regexp.MustCompile(`\D`)
	timeHHMMRE     = regexp.MustCompile(`(?:^|[^\d])([01]?\d|2[0-3])[:.]([0-5]\d)(?:$|[^\d])`)
	timePlainHRE   = regexp.MustCompile(`(?i)^\s*([01]?\d|2[0-3])\s*(?:ч|час)\s*$`)
	dateNumRE      = regexp.MustCompile(`(?:^|[^\d.])(\d{1,2})[./](\d{1,2})(?:[./](\d{2,4}))?(?:$|[^\d])`)
	dateWordRE     = regexp.MustCompile(`(?i)(\d{1,2})\s*(января|февраля|марта|апреля|мая|июня|июля|августа|сентября|октября|ноября|декабря)`)
	addressHintRE  = regexp.MustCompile(`(?i)(ул\.|улица|проспект|пр-т|дом|д\.|кв\.|квартира|корпус|строение)`)
	areaHintRE     = regexp.MustCompile(`(?i)(м2|м²|кв\.?\s*м|квадрат)`)
	areaValueRE    = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:м2|м²|м\^2|кв\.?\s*м|квадрат)`)
	digitRunRE     = regexp.MustCompile(`\d+`)
	anyDigitRE     = regexp.MustCompile(`\d`)
	cyrLetterRE    = regexp.MustCompile(`[А-Яа-яЁё]`)
	cityPhraseRE   = regexp.MustCompile(`(?i)(?:город|г\.)\s*([A-Za-zА-Яа-яЁё\-\s]{3,40})`)
	singleWordRE   = regexp.MustCompile(`^[A-Za-zА-Яа-яЁё\-]{3,30}$`)
	commaDecimalRE = regexp.MustCompile(`(\d),(\d)`)
)

// Plausible room-size bounds in square meters.
const (
	minAreaM2 = 3
	maxAreaM2 = 300
)

// extraAliases maps canonical add-on names to the keyword family that
// triggers them. Order matters: extras are reported first-seen.
var extraAliases = []struct {
	name string
	keys []string
}{
	{"светильник", []string{"светильник", "светильники", "точечн", "споты", "ламп", "свет"}},
	{"люстра", []string{"люстра", "люстры"}},
	{"труба", []string{"труба", "трубы"}},
	{"карниз", []string{"карниз", "карнизы"}},
	{"парящий профиль", []string{"парящ", "парящий"}},
	{"скрытый карниз", []string{"скрыт", "скрытый карниз"}},
	{"ниша", []string{"ниша"}},
	{"двухуровневый", []string{"двухуров", "2 уров", "два уровня"}},
	{"фотопечать", []string{"фотопеч", "печать"}},
}

// Phone returns the customer's phone normalized to +7XXXXXXXXXX, or "".
// Only Russian-format numbers reducible to 11 digits are accepted.
func Phone(text string) string {
	m := phoneRE.FindString(text)
	if m == "" {
		return ""
	}
	digits := nonDigitRE.ReplaceAllString(m, "")
	if len(digits) == 11 && strings.HasPrefix(digits, "8") {
		digits = "7" + digits[1:]
	}
	if len(digits) == 11 && strings.HasPrefix(digits, "7") {
		return "+" + digits
	}
	return ""
}

// StripPhones removes any phone-looking substrings from text.
func StripPhones(text string) string {
	return phoneRE.ReplaceAllString(text, " ")
}

// VisitTime returns the requested visit time, or "". Exact times come back
// as "HH:MM"; a bare hour is shifted to the afternoon when ≤7 and the text
// carries no morning/night qualifier; coarse parts of day are returned
// verbatim ("утром", "днем", "вечером", "обед").
func VisitTime(text string) string {
	low := strings.ToLower(text)
	if m := timeHHMMRE.FindStringSubmatch(text); m != nil {
		return m[1] + ":" + m[2]
	}
	if m := timePlainHRE.FindStringSubmatch(strings.TrimSpace(text)); m != nil {
		hh, _ := strconv.Atoi(m[1])
		if hh <= 7 && !strings.Contains(low, "утра") && !strings.Contains(low, "ноч") {
			hh += 12
		}
		return fmt.Sprintf("%02d:00", hh)
	}
	switch {
	case strings.Contains(low, "обед"):
		return "обед"
	case strings.Contains(low, "утром"):
		return "утром"
	case strings.Contains(low, "днем") || strings.Contains(low, "днём"):
		return "днем"
	case strings.Contains(low, "вечером"):
		return "вечером"
	}
	return ""
}

// IsCoarseTime reports whether a stored visit time is a part-of-day word
// that still needs narrowing to an exact time.
func IsCoarseTime(t string) bool {
	switch t {
	case "обед", "утром", "днем", "вечером":
		return true
	}
	return false
}

// VisitDate returns the requested visit date, or "". Relative words are
// returned verbatim and resolved to calendar dates only at lead
// finalization.
func VisitDate(text string) string {
	low := strings.ToLower(text)
	if strings.Contains(low, "сегодня") {
		return "сегодня"
	}
	if strings.Contains(low, "завтра") {
		return "завтра"
	}
	if m := dateNumRE.FindStringSubmatch(text); m != nil {
		if m[3] != "" {
			return fmt.Sprintf("%s.%s.%s", m[1], m[2], m[3])
		}
		return fmt.Sprintf("%s.%s", m[1], m[2])
	}
	if m := dateWordRE.FindStringSubmatch(low); m != nil {
		return fmt.Sprintf("%s %s", m[1], m[2])
	}
	return ""
}

// ResolveRelativeDate maps "сегодня"/"завтра" onto dd.mm.yyyy relative to
// now; any other value passes through unchanged.
func ResolveRelativeDate(vdate string, now time.Time) string {
	switch vdate {
	case "сегодня":
		return now.Format("02.01.2006")
	case "завтра":
		return now.AddDate(0, 0, 1).Format("02.01.2006")
	}
	return vdate
}

// Address returns a street address candidate, or "". Time, date and area
// patterns take precedence: text matching any of them is never an address.
func Address(text string) string {
	t := strings.TrimSpace(text)
	if t == "" {
		return ""
	}
	low := strings.ToLower(t)
	if timeHHMMRE.MatchString(t) || dateNumRE.MatchString(t) || dateWordRE.MatchString(low) {
		return ""
	}
	if areaHintRE.MatchString(t) {
		return ""
	}
	if addressHintRE.MatchString(t) && anyDigitRE.MatchString(t) {
		return t
	}
	// Short "ворошилова 4" style lines: letters and digits, bounded length.
	if cyrLetterRE.MatchString(t) && anyDigitRE.MatchString(t) && len([]rune(t)) <= 80 {
		return t
	}
	return ""
}

// Area returns the room area in m² when the text carries an explicit area
// unit, or 0.
func Area(text string) float64 {
	t := commaDecimalRE.ReplaceAllString(strings.ToLower(text), "$1.$2")
	m := areaValueRE.FindStringSubmatch(t)
	if m == nil {
		return 0
	}
	val, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	if val < minAreaM2 || val > maxAreaM2 {
		return 0
	}
	return val
}

// BareNumber returns the largest bare 1–3 digit number within the plausible
// area range, or 0. Callers decide from context (a pending area question, a
// price inquiry) whether to treat it as an area answer. Phone digits are
// stripped before scanning.
func BareNumber(text string) float64 {
	cleaned := StripPhones(text)
	best := 0
	for _, run := range digitRunRE.FindAllString(cleaned, -1) {
		if len(run) > 3 {
			continue
		}
		n, err := strconv.Atoi(run)
		if err != nil {
			continue
		}
		if n >= 1 && n <= maxAreaM2 && n > best {
			best = n
		}
	}
	return float64(best)
}

// HasAreaHint reports whether the text mentions an area unit.
func HasAreaHint(text string) bool {
	return areaHintRE.MatchString(text)
}

// Extras returns the canonical add-on names mentioned in the text,
// deduplicated in first-seen order.
func Extras(text string) []string {
	low := strings.ToLower(text)
	var out []string
	seen := make(map[string]struct{})
	for _, alias := range extraAliases {
		for _, k := range alias.keys {
			if strings.Contains(low, k) {
				if _, dup := seen[alias.name]; !dup {
					seen[alias.name] = struct{}{}
					out = append(out, alias.name)
				}
				break
			}
		}
	}
	return out
}

// HasCityMarker reports whether the text announces a city explicitly
// ("город X", "г. X").
func HasCityMarker(text string) bool {
	return cityPhraseRE.MatchString(text)
}

// CityCandidate returns the city name the customer explicitly announced
// ("город X", "г. X", or a bare single-word message), whether or not that
// city is supported. Used to answer unsupported-city messages directly
// instead of re-asking for the city.
func CityCandidate(text string) string {
	t := strings.TrimSpace(text)
	if t == "" {
		return ""
	}
	if m := cityPhraseRE.FindStringSubmatch(t); m != nil {
		cand := strings.TrimSpace(strings.Trim(m[1], " ,.!?:;()[]{}\"'"))
		cand = spacesRE.ReplaceAllString(cand, " ")
		if n := len([]rune(cand)); n >= 2 && n <= 40 {
			return cand
		}
	}
	if singleWordRE.MatchString(t) {
		return t
	}
	return ""
}

var spacesRE = regexp.MustCompile(`\s+`)
