package language

import (
	"fmt"
	"strings"
)

// SwissGermanModel is the CTranslate2 conversion of a Whisper model
// fine-tuned on Swiss German speech.
const SwissGermanModel = "nebi/whisper-large-v3-turbo-swiss-german-ct2-int8"

// variant is a dialect the transcription models do not accept as a language
// code. It is sent as its base language, optionally with a dedicated model.
type variant struct {
	code    string
	base    string
	model   string
	display string
	words   []string
}

var variants = []variant{
	{code: "gsw", base: "de", model: SwissGermanModel, display: "Swiss German", words: []string{"swiss german", "schweizerdeutsch"}},
}

func lookupVariant(code string) (variant, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return variant{}, false
	}
	for _, v := range variants {
		if code == v.code {
			return v, true
		}
		for _, w := range v.words {
			if code == w {
				return v, true
			}
		}
	}
	if tag, ok := parseTag(code); ok {
		base, _ := tag.Base()
		for _, v := range variants {
			if base.String() == v.code {
				return v, true
			}
		}
	}
	return variant{}, false
}

// Request is the language and model chosen by the user.
type Request struct {
	Language string
	Model    string
	// ModelExplicit is set when the user picked the model themselves; an
	// explicit model is never replaced by a variant's dedicated model.
	ModelExplicit bool
}

// Selection is the outgoing language/model pair after the regional-variant
// rewrite.
type Selection struct {
	// Requested is the language as the user selected it.
	Requested string
	// Language is the code transmitted to the server. Empty means auto-detect.
	Language string
	Model    string
	// ModelAutoSelected reports that Model was replaced by a variant's model.
	ModelAutoSelected bool
	// Note is a user-facing status line describing the rewrite, if any.
	Note string
}

// ResolveSelection maps the user's language choice to the code the server
// accepts. Dialects are rewritten to their base language ("gsw" -> "de") and
// may auto-select a specialized model; BCP 47 regional tags are reduced to
// their base language. Unrecognized codes are rejected.
func ResolveSelection(req Request) (Selection, error) {
	requested := strings.ToLower(strings.TrimSpace(req.Language))
	sel := Selection{
		Requested: requested,
		Model:     strings.TrimSpace(req.Model),
	}
	if requested == "" || requested == "auto" {
		sel.Requested = ""
		return sel, nil
	}

	if v, ok := lookupVariant(requested); ok {
		sel.Language = v.base
		if v.model != "" && !req.ModelExplicit {
			sel.Model = v.model
			sel.ModelAutoSelected = true
			sel.Note = fmt.Sprintf("%s model auto-selected.", v.display)
		}
		return sel, nil
	}

	base := baseCode(requested)
	if base == "" {
		return sel, fmt.Errorf("unsupported language code %q", req.Language)
	}
	sel.Language = base
	return sel, nil
}
