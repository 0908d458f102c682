// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import "testing"

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain text untouched", "Оплата производится до 10 числа.", "Оплата производится до 10 числа."},
		{
			"script block removed",
			"До <script type=\"text/javascript\">var x = 1;</script>после",
			"До после",
		},
		{
			"style block removed",
			"a<style>.c { color: red }</style>b",
			"ab",
		},
		{
			"markup tags stripped",
			"<p>Привет, <b>мир</b>!</p>",
			"Привет, мир!",
		},
		{
			"disallowed symbols dropped",
			"Тариф* составляет 5 руб@",
			"Тариф составляет 5 руб",
		},
		{
			"blank lines collapsed",
			"первый\n\n\n\nвторой",
			"первый\n\nвторой",
		},
		{
			"horizontal whitespace collapsed",
			"один\t\tдва   три",
			"один два три",
		},
		{
			"surrounding whitespace trimmed",
			"  текст  ",
			"текст",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.in); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestClean_Idempotent(t *testing.T) {
	inputs := []string{
		"Обычный текст с цифрами 123.",
		"<div>Вложенная <span>разметка</span></div>\n\n\nи пустые строки",
		"Символы £ и § исчезают,   пробелы сжимаются",
	}
	for _, in := range inputs {
		once := Clean(in)
		twice := Clean(once)
		if once != twice {
			t.Errorf("Clean not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}
