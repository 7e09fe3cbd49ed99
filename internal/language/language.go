package language

import "strings"

type entry struct {
	code2   string // ISO 639-1
	code3   string // ISO 639-2/T
	alt3    string // ISO 639-2/B where it differs
	display string
}

var languages = []entry{
	{"en", "eng", "", "English"},
	{"es", "spa", "", "Spanish"},
	{"fr", "fra", "fre", "French"},
	{"de", "deu", "ger", "German"},
	{"it", "ita", "", "Italian"},
	{"pt", "por", "", "Portuguese"},
	{"nl", "nld", "dut", "Dutch"},
	{"sv", "swe", "", "Swedish"},
	{"da", "dan", "", "Danish"},
	{"no", "nor", "", "Norwegian"},
	{"nb", "nob", "", "Norwegian Bokmal"},
	{"fi", "fin", "", "Finnish"},
	{"pl", "pol", "", "Polish"},
	{"cs", "ces", "cze", "Czech"},
	{"sk", "slk", "slo", "Slovak"},
	{"sl", "slv", "", "Slovenian"},
	{"hr", "hrv", "", "Croatian"},
	{"sr", "srp", "", "Serbian"},
	{"bs", "bos", "", "Bosnian"},
	{"hu", "hun", "", "Hungarian"},
	{"ro", "ron", "rum", "Romanian"},
	{"bg", "bul", "", "Bulgarian"},
	{"el", "ell", "gre", "Greek"},
	{"tr", "tur", "", "Turkish"},
	{"ru", "rus", "", "Russian"},
	{"uk", "ukr", "", "Ukrainian"},
	{"ar", "ara", "", "Arabic"},
	{"he", "heb", "", "Hebrew"},
	{"fa", "fas", "per", "Persian"},
	{"hi", "hin", "", "Hindi"},
	{"ja", "jpn", "", "Japanese"},
	{"ko", "kor", "", "Korean"},
	{"zh", "zho", "chi", "Chinese"},
	{"vi", "vie", "", "Vietnamese"},
	{"id", "ind", "", "Indonesian"},
}

var (
	byCode2 map[string]*entry
	byCode3 map[string]*entry
	byName  map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages)*2)
	byName = make(map[string]*entry, len(languages))
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
		if e.alt3 != "" {
			byCode3[e.alt3] = e
		}
		byName[strings.ToLower(e.display)] = e
	}
}

func lookup(value string) *entry {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return nil
	}
	if e, ok := byCode2[value]; ok {
		return e
	}
	if e, ok := byCode3[value]; ok {
		return e
	}
	if e, ok := byName[value]; ok {
		return e
	}
	return nil
}

// ToISO2 converts a code or English language name to ISO 639-1. Unknown
// 2-letter input passes through; anything else unknown yields "".
func ToISO2(value string) string {
	if e := lookup(value); e != nil {
		return e.code2
	}
	value = strings.ToLower(strings.TrimSpace(value))
	if len(value) == 2 {
		return value
	}
	return ""
}

// ToISO3 converts a code or name to ISO 639-2/T, or "und" when unknown.
func ToISO3(value string) string {
	if e := lookup(value); e != nil {
		return e.code3
	}
	value = strings.ToLower(strings.TrimSpace(value))
	if len(value) == 3 {
		return value
	}
	return "und"
}

// DisplayName returns the English name for a code or name. Empty input is
// "Unknown"; unrecognized input is returned uppercased.
func DisplayName(value string) string {
	if strings.TrimSpace(value) == "" {
		return "Unknown"
	}
	if e := lookup(value); e != nil {
		return e.display
	}
	return strings.ToUpper(strings.TrimSpace(value))
}

// Known reports whether value names a language in the table.
func Known(value string) bool {
	return lookup(value) != nil
}

// Same reports whether a and b name the same language in any supported form,
// e.g. "English", "en" and "eng".
func Same(a, b string) bool {
	ca, cb := ToISO2(a), ToISO2(b)
	return ca != "" && ca == cb
}
