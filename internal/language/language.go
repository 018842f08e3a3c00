package language

import (
	"strings"

	"golang.org/x/text/cases"
	xlanguage "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

type entry struct {
	code2 string   // ISO 639-1 (2-letter)
	code3 string   // ISO 639-2 primary (3-letter)
	alt3  string   // ISO 639-2 alternate (e.g. "fre" vs "fra")
	words []string // Full word forms (e.g. "english")
}

var languages = []entry{
	{"en", "eng", "", []string{"english"}},
	{"es", "spa", "", []string{"spanish"}},
	{"fr", "fra", "fre", []string{"french"}},
	{"de", "deu", "ger", []string{"german"}},
	{"it", "ita", "", []string{"italian"}},
	{"pt", "por", "", []string{"portuguese"}},
	{"ja", "jpn", "", []string{"japanese"}},
	{"ko", "kor", "", []string{"korean"}},
	{"zh", "zho", "chi", []string{"chinese", "mandarin"}},
	{"ru", "rus", "", []string{"russian"}},
	{"ar", "ara", "", []string{"arabic"}},
	{"hi", "hin", "", []string{"hindi"}},
	{"nl", "nld", "dut", []string{"dutch"}},
	{"pl", "pol", "", []string{"polish"}},
	{"sv", "swe", "", []string{"swedish"}},
	{"da", "dan", "", []string{"danish"}},
	{"no", "nor", "", []string{"norwegian"}},
	{"fi", "fin", "", []string{"finnish"}},
	{"tr", "tur", "", []string{"turkish"}},
	{"vi", "vie", "", []string{"vietnamese"}},
	{"th", "tha", "", []string{"thai"}},
	{"id", "ind", "", []string{"indonesian"}},
	{"uk", "ukr", "", []string{"ukrainian"}},
}

// Index maps built at init time.
var (
	byCode2 map[string]*entry
	byCode3 map[string]*entry
	byWord  map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages)*2)
	byWord = make(map[string]*entry, len(languages))
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
		if e.alt3 != "" {
			byCode3[e.alt3] = e
		}
		for _, w := range e.words {
			byWord[w] = e
		}
	}
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	if e, ok := byCode2[code]; ok {
		return e
	}
	if e, ok := byCode3[code]; ok {
		return e
	}
	if e, ok := byWord[code]; ok {
		return e
	}
	return nil
}

// ToISO2 converts any recognized language code, BCP 47 tag, or word to
// ISO 639-1. Unknown 2-letter codes pass through; anything else unrecognized
// returns "".
func ToISO2(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	if e := lookup(code); e != nil {
		return e.code2
	}
	if base, ok := parseBase(code); ok {
		if e := lookup(base); e != nil {
			return e.code2
		}
		if len(base) == 2 {
			return base
		}
	}
	if len(code) == 2 {
		return code
	}
	return ""
}

// DisplayName returns the English name for a code or tag, e.g. "zh-Hant" →
// "Traditional Chinese". Unrecognized input is title-cased so free-form names
// like "simplified chinese" still read well. Empty input returns "".
func DisplayName(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	if e := lookup(code); e != nil && !strings.Contains(code, "-") {
		return nameForTag(xlanguage.Make(e.code2), code)
	}
	if tag, err := xlanguage.Parse(code); err == nil {
		return nameForTag(tag, code)
	}
	return cases.Title(xlanguage.English).String(strings.ToLower(code))
}

// PromptName is the language name used when asking a model to translate.
// Recognized codes become English names; anything else is passed through
// trimmed.
func PromptName(target string) string {
	target = strings.TrimSpace(target)
	if target == "" {
		return ""
	}
	if lookup(target) == nil {
		if _, err := xlanguage.Parse(target); err != nil {
			return target
		}
	}
	return DisplayName(target)
}

func nameForTag(tag xlanguage.Tag, fallback string) string {
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return strings.ToUpper(fallback)
}

func parseBase(code string) (string, bool) {
	tag, err := xlanguage.Parse(code)
	if err != nil {
		return "", false
	}
	base, confidence := tag.Base()
	if confidence == xlanguage.No {
		return "", false
	}
	return base.String(), true
}
