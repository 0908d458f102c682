// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import "github.com/mattn/go-runewidth"

// fill pads s to the given display width. Width-aware padding keeps
// table columns aligned when titles mix Cyrillic and Latin text.
func fill(s string, width int) string {
	return runewidth.FillRight(s, width)
}

// clip shortens s to at most the given display width, ellipsis included.
func clip(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}
