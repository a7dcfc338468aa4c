package pipeline

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// forbiddenFragments are substrings (matched case-insensitively) that mark an
// OCR caption as UI chrome, broadcast overlay or institutional boilerplate
// rather than a person's name. Matching any fragment rejects the whole text.
var forbiddenFragments = []string{
	"DIRECTO", "VIVO", "NEWS", "NOTICIAS", "GMT", "CET",
	"HORA", "SUBSCRIBE", "CANAL", "WWW", ".COM", "LIVE",
	"QUEJA", "SUGERENCIA", "ACCESIB", "CONDICION", "LEGAL",
	"MAPA", "WEB", "COOKIE", "PRIVACIDAD", "CONTACTO",
	"AVISO", "POLÍTICA", "DERECHOS", "RESERV",
	"MUTE", "UNMUTE", "SHARE", "SCREEN", "CHAT", "PARTICIPANTS",
	"RECORDING", "GRABANDO", "SILENCIAR", "COMPARTIR",
	"ADMINISTR", "TELÉFONO", "FAX", "UNIVERSIDAD", "GRANADA",
	"DIRECCIÓN", "SECRETAR", "BIOTECNOL", "POLITICA",
	"NOT AVAILABLE", "NAME NOT", "AVAILABLE",
	"COORDINADOR", "DIRECTOR", "MASTER", "MÁSTER", "PROFESOR",
}

// particles are Spanish linking words kept lowercase inside a name
// ("María de la O") unless they open it.
var particles = map[string]bool{
	"de": true, "del": true, "la": true, "las": true, "los": true, "y": true,
}

// ocrFixes undoes the OCR mis-encodings seen in practice: a stray "?" for an
// accented vowel, "_" for space and "|" for a lowercase l.
var ocrFixes = strings.NewReplacer("?", "í", "_", " ", "|", "l")

// IsValidName reports whether an OCR caption plausibly is a person's name.
// The filter is precision-biased: captions mix real names with player
// controls, recording indicators and footer boilerplate, and a false
// negative only costs falling back to the diarization label.
func IsValidName(text string) bool {
	n := utf8.RuneCountInString(text)
	if n < 3 || n > 50 {
		return false
	}

	upper := strings.ToUpper(text)
	for _, bad := range forbiddenFragments {
		if strings.Contains(upper, bad) {
			return false
		}
	}

	digits := 0
	hasUpper := false
	for _, r := range text {
		if unicode.IsDigit(r) {
			digits++
		}
		if unicode.IsUpper(r) {
			hasUpper = true
		}
	}
	if digits > 3 {
		return false
	}
	if !hasUpper {
		return false
	}

	return len(strings.Fields(text)) >= 2
}

// NormalizeName canonicalizes a validated caption: OCR glyph fixes,
// whitespace collapsing and per-token title casing with Spanish particles
// kept lowercase. Idempotent and order-independent across calls.
func NormalizeName(text string) string {
	words := strings.Fields(ocrFixes.Replace(text))
	for i, w := range words {
		if i > 0 && particles[strings.ToLower(w)] {
			words[i] = strings.ToLower(w)
			continue
		}
		words[i] = capitalize(w)
	}
	return strings.Join(words, " ")
}

func capitalize(w string) string {
	r := []rune(strings.ToLower(w))
	if len(r) == 0 {
		return w
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
