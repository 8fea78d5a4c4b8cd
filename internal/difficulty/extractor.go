package difficulty

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// FallbackTopic is substituted whenever no topic can be derived from a
// text. Every code path that needs the fallback shares this constant.
const FallbackTopic = "Topic not identified"

// Pharmacology keyword groups, matched as substrings so inflected forms
// ("agonistas", "receptores") still hit.
var topicKeywords = [][]string{
	// mechanism of action
	{"agonista", "antagonista", "inibidor", "bloqueador", "estimulante", "depressor"},
	// pharmacological targets
	{"receptor", "enzima", "canal", "transportador", "proteína"},
	// drug-class nouns
	{"fármaco", "medicamento", "droga", "substância", "princípio ativo"},
	// actions and effects
	{"mecanismo", "ação", "efeito", "reação", "resposta", "metabolismo"},
	// therapeutic classes
	{"analgésico", "antibiótico", "anti-inflamatório", "antihipertensivo", "antidepressivo"},
	// body systems
	{"cardiovascular", "respiratório", "nervoso", "digestivo", "renal"},
}

var stopwords = map[string]bool{
	"o": true, "a": true, "de": true, "da": true, "do": true,
	"em": true, "na": true, "no": true, "para": true,
	"qual": true, "que": true, "é": true, "são": true,
}

var properNounRe = regexp.MustCompile(`^[A-Z][a-z]+`)

// ExtractTopic infers a short topic label from a question or summary
// snippet. It never fails and never returns an empty string. The result
// has at most 4 space-separated words.
//
// Strategies, first match wins:
//  1. keyword context: first word containing a domain keyword, with one
//     word before and up to three after, stopwords removed
//  2. probable drug name: first capitalized token longer than 4 runes,
//     with one token of context on each side
//  3. first significant words: first three non-stopword tokens
func ExtractTopic(text string) string {
	if strings.TrimSpace(text) == "" {
		return FallbackTopic
	}

	lower := strings.ToLower(text)
	words := strings.Fields(lower)

	// Strategy 1: keyword context window
	for i, word := range words {
		for _, group := range topicKeywords {
			for _, kw := range group {
				if !strings.Contains(word, kw) {
					continue
				}
				start := max(0, i-1)
				end := min(len(words), i+4)
				var cleaned []string
				for _, w := range words[start:end] {
					if !stopwords[w] {
						cleaned = append(cleaned, w)
					}
				}
				if len(cleaned) > 4 {
					cleaned = cleaned[:4]
				}
				if topic := strings.Join(cleaned, " "); topic != "" {
					return topic
				}
			}
		}
	}

	// Strategy 2: capitalized tokens usually name a drug
	original := strings.Fields(text)
	for i, token := range original {
		if !properNounRe.MatchString(token) || utf8.RuneCountInString(token) <= 4 {
			continue
		}
		if stopwords[strings.ToLower(token)] {
			continue
		}
		start := max(0, i-1)
		end := min(len(original), i+2)
		return strings.ToLower(strings.Join(original[start:end], " "))
	}

	// Strategy 3: first significant words
	var significant []string
	for _, w := range words {
		if !stopwords[w] && utf8.RuneCountInString(w) > 2 {
			significant = append(significant, w)
		}
		if len(significant) == 3 {
			break
		}
	}
	if topic := strings.Join(significant, " "); topic != "" {
		return topic
	}

	return FallbackTopic
}
