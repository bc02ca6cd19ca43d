//nolint:testpackage // Testing internal lexicon scoring requires same package access
package tracking

import "testing"

func TestScoreSentiment(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "clearly positive",
			body: "Yes, this sounds great — definitely interested, thanks!",
			want: SentimentPositive,
		},
		{
			name: "clearly negative",
			body: "No thanks, please remove me and stop emailing. Spam.",
			want: SentimentNegative,
		},
		{
			name: "no lexicon hits",
			body: "Forwarding this to my colleague for review.",
			want: SentimentNeutral,
		},
		{
			name: "tie is neutral",
			body: "Thanks, but no.",
			want: SentimentNeutral,
		},
		{
			name: "empty body",
			body: "",
			want: SentimentNeutral,
		},
		{
			name: "punctuation stripped before matching",
			body: "Interested!",
			want: SentimentPositive,
		},
		{
			name: "case insensitive",
			body: "UNSUBSCRIBE",
			want: SentimentNegative,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ScoreSentiment(tt.body); got != tt.want {
				t.Errorf("ScoreSentiment(%q) = %q, want %q", tt.body, got, tt.want)
			}
		})
	}
}
