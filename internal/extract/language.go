// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
)

// The detector is restricted to the languages the corpus actually holds;
// building it is expensive, so it is shared lazily across extractions.
var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

// detectLanguage returns the ISO 639-1 code of the body language when the
// detector is confident, and false otherwise. Sentinel or near-empty
// bodies are never classified.
func detectLanguage(body string) (string, bool) {
	if body == "" || body == BodyMissing {
		return "", false
	}

	detectorOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(lingua.Russian, lingua.English).
			Build()
	})

	lang, ok := detector.DetectLanguageOf(body)
	if !ok {
		return "", false
	}
	return strings.ToLower(lang.IsoCode639_1().String()), true
}
