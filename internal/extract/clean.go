// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"regexp"
	"strings"
)

// The cleaning pass normalizes extracted page text: embedded script/style
// blocks and stray markup go first, then characters outside the allow-list
// (letters including Cyrillic, digits, whitespace, common punctuation),
// then runs of blank lines and horizontal whitespace collapse. The pass is
// idempotent: cleaning already-clean text is a no-op.
var (
	scriptBlocks = regexp.MustCompile(`(?is)<script\b.*?</script>`)
	styleBlocks  = regexp.MustCompile(`(?is)<style\b.*?</style>`)
	markupTags   = regexp.MustCompile(`<[^>]+>`)
	disallowed   = regexp.MustCompile(`[^0-9A-Za-z_\sа-яА-ЯёЁ.,!?;:()\-–—]`)
	blankLines   = regexp.MustCompile(`\n\s*\n`)
	hspaceRuns   = regexp.MustCompile(`[ \t]+`)
)

// Clean applies the normalization pass to text.
func Clean(text string) string {
	if text == "" {
		return ""
	}
	t := scriptBlocks.ReplaceAllString(text, "")
	t = styleBlocks.ReplaceAllString(t, "")
	t = markupTags.ReplaceAllString(t, "")
	t = disallowed.ReplaceAllString(t, "")
	t = blankLines.ReplaceAllString(t, "\n\n")
	t = hspaceRuns.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}
