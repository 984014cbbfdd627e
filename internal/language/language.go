// Package language converts between the language forms required by the
// streaming manifest formats: ISO 639-2 three-letter codes for stream
// metadata and RFC 5646 shortest-form tags for manifest defaults.
package language

import (
	"strings"

	"golang.org/x/text/language"
)

type entry struct {
	code2 string // ISO 639-1 (2-letter)
	code3 string // ISO 639-2/T primary (3-letter)
	alt3  string // ISO 639-2/B alternate (e.g. "fre" vs "fra")
}

var languages = []entry{
	{"en", "eng", ""},
	{"es", "spa", ""},
	{"fr", "fra", "fre"},
	{"de", "deu", "ger"},
	{"it", "ita", ""},
	{"pt", "por", ""},
	{"ja", "jpn", ""},
	{"ko", "kor", ""},
	{"zh", "zho", "chi"},
	{"ru", "rus", ""},
	{"ar", "ara", ""},
	{"hi", "hin", ""},
	{"nl", "nld", "dut"},
	{"pl", "pol", ""},
	{"sv", "swe", ""},
	{"da", "dan", ""},
	{"no", "nor", ""},
	{"fi", "fin", ""},
	{"tr", "tur", ""},
	{"el", "ell", "gre"},
	{"cs", "ces", "cze"},
	{"he", "heb", ""},
	{"th", "tha", ""},
	{"uk", "ukr", ""},
	{"vi", "vie", ""},
	{"id", "ind", ""},
}

var (
	byCode2 map[string]*entry
	byCode3 map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages)*2)
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
		if e.alt3 != "" {
			byCode3[e.alt3] = e
		}
	}
}

// primarySubtag strips any RFC 5646 extensions ("en-US" -> "en").
func primarySubtag(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if i := strings.IndexByte(tag, '-'); i >= 0 {
		tag = tag[:i]
	}
	return tag
}

// ToISO639_2 converts a language tag to its ISO 639-2 three-letter code.
// Returns "und" when the language cannot be determined.
func ToISO639_2(tag string) string {
	code := primarySubtag(tag)
	if code == "" {
		return "und"
	}
	if e, ok := byCode2[code]; ok {
		return e.code3
	}
	if e, ok := byCode3[code]; ok {
		return e.code3
	}
	return "und"
}

// ToShortestForm canonicalizes a language tag to the RFC 5646 shortest
// form ("eng" -> "en", "en-US" stays "en-US"). Unparseable input is
// returned unchanged so that a bad default language surfaces downstream
// instead of being silently dropped.
func ToShortestForm(tag string) string {
	if tag == "" {
		return ""
	}
	parsed, err := language.Parse(tag)
	if err != nil {
		return tag
	}
	return parsed.String()
}
