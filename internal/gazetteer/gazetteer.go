// Package gazetteer holds the supported-city table and the fuzzy matcher
// that resolves noisy free-text city mentions against it.
package gazetteer

import (
	"regexp"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Service area around Izhevsk.
var citiesIzhevsk = []string{
	"Ижевск", "Воткинск", "Агрыз", "Завьялово", "Каменное", "Ува", "Глазов", "Сарапул",
	"Октябрьский", "Якшур", "Хохряки", "Локшудья", "Селычка", "Якшур-Бодья", "Постол",
	"Лудорвай", "Пирогово", "Вараксино", "Юськи", "Малая Пурга", "Ильинское", "Бабино",
	"Бураново", "Нечкино", "Новая Казмаска", "Шаркан", "Подшивалово", "Совхозный",
	"Большая Венья", "Старые Кены", "Старый Чультем", "Сизево", "Пычанки", "Чультем",
	"Мартьяново", "Первомайский", "Семеново", "Италмас", "Старое Михайловское",
	"Русский Вожой", "Ягул", "Солнечный", "Медведево", "Орловское", "Новые Ярушки",
	"Домоседово", "Починок",
}

// Service area around Yekaterinburg.
var citiesYekaterinburg = []string{
	"Екатеринбург", "Верхняя Пышма", "Шайдурово", "Горный щит", "Березовский",
	"Прохладный", "Логиново", "Хризолитовый",
}

// minFuzzyScore is the acceptance threshold for the similarity ratio.
const minFuzzyScore = 0.86

// substringBonus is added when a normalized city occurs inside the phrase.
const substringBonus = 0.08

// Russian case endings, longest first. A suffix is stripped only when the
// remaining stem keeps at least three characters.
var caseEndings = []string{
	"ыми", "ими", "ого", "ему", "ому", "ами", "ями", "ях", "ах", "ью", "ией",
	"ый", "ий", "ая", "яя", "ое", "ее", "ую", "юю", "ым", "им", "ом", "ем", "ых", "их",
	"а", "я", "у", "ю", "е", "и", "о",
}

var (
	nonLetterRE = regexp.MustCompile(`(?i)[^a-zа-я\-]+`)
	spacesRE    = regexp.MustCompile(`\s+`)
)

type entry struct {
	city string
	norm string
}

// Gazetteer resolves free text to a canonical supported city.
type Gazetteer struct {
	cities  []string // longest first, declaration order preserved for ties
	entries []entry
	exactRE []*regexp.Regexp
}

// Default returns the gazetteer for the currently served regions.
func Default() *Gazetteer {
	return New(append(append([]string{}, citiesIzhevsk...), citiesYekaterinburg...))
}

// New builds a gazetteer from the given canonical city names.
func New(cities []string) *Gazetteer {
	seen := make(map[string]struct{}, len(cities))
	uniq := make([]string, 0, len(cities))
	for _, c := range cities {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		uniq = append(uniq, c)
	}
	// Longest names first so exact matching prefers "Малая Пурга" over "Пурга".
	sort.SliceStable(uniq, func(i, j int) bool { return len(uniq[i]) > len(uniq[j]) })

	g := &Gazetteer{cities: uniq}
	for _, c := range uniq {
		g.entries = append(g.entries, entry{city: c, norm: NormalizePhrase(c)})
		g.exactRE = append(g.exactRE, regexp.MustCompile(`(?i)(^|[^а-яa-zё])`+regexp.QuoteMeta(strings.ToLower(c))+`($|[^а-яa-zё])`))
	}
	return g
}

// Cities returns the canonical city list.
func (g *Gazetteer) Cities() []string {
	out := make([]string, len(g.cities))
	copy(out, g.cities)
	return out
}

// Contains reports whether city is a canonical supported city.
func (g *Gazetteer) Contains(city string) bool {
	for _, c := range g.cities {
		if c == city {
			return true
		}
	}
	return false
}

// Match resolves text to a supported city, or "" when nothing matches.
// Exact (case-insensitive) mentions win; otherwise the whole phrase is
// normalized and compared against every city by sequence similarity.
func (g *Gazetteer) Match(text string) string {
	t := strings.TrimSpace(text)
	if t == "" {
		return ""
	}

	low := strings.ToLower(t)
	for i, re := range g.exactRE {
		if re.MatchString(low) {
			return g.cities[i]
		}
	}

	normText := NormalizePhrase(t)
	if normText == "" {
		return ""
	}
	tokens := strings.Fields(normText)

	bestCity := ""
	bestScore := 0.0
	for _, e := range g.entries {
		if e.norm == "" {
			continue
		}
		score := similarity(normText, e.norm)
		if strings.Contains(normText, e.norm) {
			score += substringBonus
		}
		// inflected mentions buried in longer sentences: compare every
		// window of the same token width as the city name
		width := len(strings.Fields(e.norm))
		for i := 0; i+width <= len(tokens); i++ {
			window := strings.Join(tokens[i:i+width], " ")
			if s := similarity(window, e.norm); s > score {
				score = s
			}
		}
		if score > bestScore {
			bestScore = score
			bestCity = e.city
		}
	}

	if bestScore >= minFuzzyScore {
		return bestCity
	}
	return ""
}

// similarity is the difflib sequence-match ratio over runes.
func similarity(a, b string) float64 {
	m := difflib.NewMatcher(explode(a), explode(b))
	return m.Ratio()
}

func explode(s string) []string {
	runes := []rune(s)
	out := make([]string, len(runes))
	for i, r := range runes {
		out[i] = string(r)
	}
	return out
}

// collapseRepeats drops consecutive duplicate runes ("приветтт" ->
// "привет").
func collapseRepeats(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	var prev rune = -1
	for _, r := range s {
		if r == prev {
			continue
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}

// NormalizePhrase folds case, collapses repeated characters and strips
// Russian case endings from every word of the phrase.
func NormalizePhrase(phrase string) string {
	p := strings.ToLower(phrase)
	p = strings.NewReplacer("ё", "е", "—", "-", "–", "-").Replace(p)
	p = spacesRE.ReplaceAllString(p, " ")
	p = strings.ReplaceAll(strings.TrimSpace(p), "-", " ")

	var words []string
	for _, w := range strings.Fields(p) {
		if s := stemWord(w); s != "" {
			words = append(words, s)
		}
	}
	return strings.Join(words, " ")
}

func stemWord(w string) string {
	w = nonLetterRE.ReplaceAllString(strings.ToLower(w), "")
	w = strings.ReplaceAll(w, "-", "")
	w = collapseRepeats(w)
	for _, suf := range caseEndings {
		if strings.HasSuffix(w, suf) && len([]rune(w))-len([]rune(suf)) >= 3 {
			w = strings.TrimSuffix(w, suf)
			break
		}
	}
	return w
}
