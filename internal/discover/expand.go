// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discover

import "strings"

// The expansion tables are static lookup data, not learned models. They
// were tuned for a Russian-language utility knowledge base; swap them out
// together with the selector configuration when pointing the harvester at
// a different site.

// synonyms maps a query word to substitutable alternatives.
var synonyms = map[string][]string{
	"электроэнергия": {"электричество", "электроснабжение", "энергия"},
	"долг":           {"задолженность", "неоплата"},
	"тариф":          {"расценка", "ставка", "цена"},
	"счетчик":        {"прибор учета", "измеритель"},
	"льгота":         {"преференция", "скидка", "субсидия"},
}

// relatedTopics maps a query word to broader phrases worth searching when
// the word itself finds nothing.
var relatedTopics = map[string][]string{
	"электроэнергия": {"оплата электроэнергии", "тарифы на электричество"},
	"долг":           {"погашение задолженности", "отключение за долги"},
	"тариф":          {"изменение тарифа", "многотарифный учет"},
	"счетчик":        {"замена счетчика", "показания счетчика"},
	"льгота":         {"оформление льготы", "социальные льготы"},
}

// synonymVariants generates up to maxSynonymVariants rewrites of query,
// each substituting one word with one of its synonyms. The original query
// is not included; the caller has already searched it.
func synonymVariants(query string) []string {
	var variants []string
	for _, word := range strings.Fields(query) {
		for _, syn := range synonyms[strings.ToLower(word)] {
			if len(variants) >= maxSynonymVariants {
				return variants
			}
			variants = append(variants, strings.Replace(query, word, syn, 1))
		}
	}
	return variants
}

// relatedPhrases collects up to maxRelatedPhrases topic phrases for each
// query word present in the table.
func relatedPhrases(query string) []string {
	var phrases []string
	for _, word := range strings.Fields(query) {
		related := relatedTopics[strings.ToLower(word)]
		if len(related) > maxRelatedPhrases {
			related = related[:maxRelatedPhrases]
		}
		phrases = append(phrases, related...)
	}
	return phrases
}
