package language

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// transcribable lists the base languages the Whisper family of models
// recognises. English names of these are accepted as input ("german").
var transcribable = []string{
	"af", "am", "ar", "as", "az", "ba", "be", "bg", "bn", "bo", "br", "bs",
	"ca", "cs", "cy", "da", "de", "el", "en", "es", "et", "eu", "fa", "fi",
	"fo", "fr", "gl", "gu", "ha", "he", "hi", "hr", "ht", "hu", "hy", "id",
	"is", "it", "ja", "jv", "ka", "kk", "km", "kn", "ko", "la", "lb", "ln",
	"lo", "lt", "lv", "mg", "mi", "mk", "ml", "mn", "mr", "ms", "mt", "my",
	"ne", "nl", "nn", "no", "oc", "pa", "pl", "ps", "pt", "ro", "ru", "sa",
	"sd", "si", "sk", "sl", "sn", "so", "sq", "sr", "su", "sv", "sw", "ta",
	"te", "tg", "th", "tk", "tl", "tr", "tt", "uk", "ur", "uz", "vi", "yi",
	"yo", "zh",
}

// bibliographic maps ISO 639-2/B codes, which BCP 47 does not accept, to
// their ISO 639-1 equivalents.
var bibliographic = map[string]string{
	"alb": "sq", "arm": "hy", "baq": "eu", "bur": "my", "chi": "zh",
	"cze": "cs", "dut": "nl", "fre": "fr", "geo": "ka", "ger": "de",
	"gre": "el", "ice": "is", "mac": "mk", "mao": "mi", "may": "ms",
	"per": "fa", "rum": "ro", "slo": "sk", "tib": "bo", "wel": "cy",
}

var (
	byName    map[string]string
	supported map[string]bool
)

func init() {
	names := display.English.Languages()
	byName = make(map[string]string, len(transcribable))
	supported = make(map[string]bool, len(transcribable))
	for _, code := range transcribable {
		supported[code] = true
		if name := names.Name(language.Make(code)); name != "" {
			byName[strings.ToLower(name)] = code
		}
	}
}

// parseTag accepts BCP 47 tags written with either '-' or '_' separators.
func parseTag(code string) (language.Tag, bool) {
	code = strings.ReplaceAll(strings.TrimSpace(code), "_", "-")
	if code == "" {
		return language.Und, false
	}
	tag, err := language.Parse(code)
	if err != nil || tag == language.Und {
		return language.Und, false
	}
	return tag, true
}

// baseCode returns the shortest ISO 639 code for the base language of a
// code, English name or BCP 47 tag. Region and script subtags are dropped
// ("de-CH" -> "de", "pt_BR" -> "pt"). Input that is unknown, or whose base
// language is not transcribable, yields "".
func baseCode(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if alias, ok := bibliographic[code]; ok {
		return alias
	}
	if named, ok := byName[code]; ok {
		return named
	}
	tag, ok := parseTag(code)
	if !ok {
		return ""
	}
	base, _ := tag.Base()
	if !supported[base.String()] {
		return ""
	}
	return base.String()
}

// ToISO2 converts a language code, tag or English name to ISO 639-1.
// Two-letter input passes through even when unknown; anything else without
// a two-letter form yields "".
func ToISO2(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if len(code) == 2 {
		return code
	}
	if base := baseCode(code); len(base) == 2 {
		return base
	}
	return ""
}

// DisplayName returns an English name for code: "Auto-detect" when empty,
// the uppercased input when unrecognised.
func DisplayName(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "Auto-detect"
	}
	if v, ok := lookupVariant(trimmed); ok {
		return v.display
	}
	lookupCode := trimmed
	if alias, ok := bibliographic[strings.ToLower(trimmed)]; ok {
		lookupCode = alias
	} else if named, ok := byName[strings.ToLower(trimmed)]; ok {
		lookupCode = named
	}
	if tag, ok := parseTag(lookupCode); ok {
		if name := display.English.Tags().Name(tag); name != "" {
			return name
		}
	}
	return strings.ToUpper(trimmed)
}
