package tracking

import "strings"

// Fixed reply-classification lexicons. These are deliberately small and
// documented defaults rather than anything learned: the outreach volume at a
// single tenant is far too low to train on.
var (
	positiveWords = map[string]struct{}{
		"yes": {}, "sure": {}, "interested": {}, "great": {}, "thanks": {},
		"thank": {}, "love": {}, "happy": {}, "absolutely": {}, "sounds": {},
		"good": {}, "perfect": {}, "awesome": {}, "definitely": {}, "glad": {},
	}
	negativeWords = map[string]struct{}{
		"no": {}, "not": {}, "unsubscribe": {}, "stop": {}, "never": {},
		"spam": {}, "remove": {}, "uninterested": {}, "decline": {}, "sorry": {},
		"don't": {}, "dont": {}, "won't": {}, "wont": {},
	}
)

// Sentiment labels applied to correlated replies.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// ScoreSentiment classifies a reply body by counting lexicon hits.
// Ties, including zero hits on either side, are neutral.
func ScoreSentiment(body string) string {
	positive := 0
	negative := 0

	for _, word := range strings.Fields(strings.ToLower(body)) {
		word = strings.Trim(word, ".,!?;:\"'()[]")
		if _, ok := positiveWords[word]; ok {
			positive++
		}
		if _, ok := negativeWords[word]; ok {
			negative++
		}
	}

	switch {
	case positive > negative:
		return SentimentPositive
	case negative > positive:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}
