package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Roma7-7-7/vocabulary-trainer/internal/dal"
)

func TestParseResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want []Pair
	}{
		{
			name: "plain array",
			raw:  `[{"polish":"okno","english":"window"},{"polish":"drzwi","english":"door"}]`,
			want: []Pair{{Source: "okno", Target: "window"}, {Source: "drzwi", Target: "door"}},
		},
		{
			name: "code fence and chatter",
			raw:  "Oto lista:\n```json\n[{\"polish\":\"kot\",\"english\":\"cat\",\"verified\":true}]\n```\nPowodzenia!",
			want: []Pair{{Source: "kot", Target: "cat", Verified: true}},
		},
		{
			name: "alternative keys and examples",
			raw:  `[{"sourceText":"pies","targetText":"dog","category":"zwierzęta","examples":[{"quote":"The dog barks.","exactQuote":true}]}]`,
			want: []Pair{{
				Source:   "pies",
				Target:   "dog",
				Category: "zwierzęta",
				Examples: []dal.Example{{Text: "The dog barks.", ExactQuote: true}},
			}},
		},
		{
			name: "malformed elements kept empty",
			raw:  `[{"polish":"mleko","english":"milk"}, 42, {"polish":7}]`,
			want: []Pair{{Source: "mleko", Target: "milk", Examples: []dal.Example{}}, {}, {}},
		},
		{
			name: "salvaged from broken json",
			raw:  `Here you go: [{"polish":"stół","english":"table", "notes": "furniture}, {"polish": "stół", "english": "table"`,
			want: []Pair{{Source: "stół", Target: "table"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseResponse(tt.raw)
			require.NoError(t, err)
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.Equal(t, tt.want[i].Source, got[i].Source)
				assert.Equal(t, tt.want[i].Target, got[i].Target)
				assert.Equal(t, tt.want[i].Category, got[i].Category)
				assert.Equal(t, tt.want[i].Verified, got[i].Verified)
				if len(tt.want[i].Examples) > 0 {
					assert.Equal(t, tt.want[i].Examples, got[i].Examples)
				}
			}
		})
	}
}

func TestParseResponse_Unrecoverable(t *testing.T) {
	t.Parallel()

	_, err := ParseResponse("Przepraszam, nie mogę pomóc.")
	require.ErrorIs(t, err, ErrParse)

	_, err = ParseResponse(`{"polish":"kot"}`)
	require.ErrorIs(t, err, ErrParse)
}

func TestValid(t *testing.T) {
	t.Parallel()

	got, dropped := Valid([]Pair{
		{Source: " kot ", Target: "cat"},
		{Source: "", Target: "dog"},
		{Source: "ryba", Target: "  "},
		{},
	})
	assert.Equal(t, 3, dropped)
	assert.Equal(t, []Pair{{Source: "kot", Target: "cat"}}, got)
}

func TestApplyVerdicts(t *testing.T) {
	t.Parallel()

	pairs := []Pair{
		{Source: "parapet", Target: "parapet"},
		{Source: "Skosy", Target: "slopes"},
		{Source: "okno", Target: "window"},
	}
	verdicts, err := ParseVerdicts("```json\n" + `[
		{"polish":"parapet","english":"parapet","fixedEnglish":"windowsill","verdict":"fix"},
		{"polish":"skosy","english":"slopes","fixedEnglish":"sloped ceilings","verdict":" FIX "},
		{"polish":"okno","english":"window","fixedEnglish":"pane","verdict":"ok"}
	]` + "\n```")
	require.NoError(t, err)

	got := ApplyVerdicts(pairs, verdicts)
	assert.Equal(t, []Pair{
		{Source: "parapet", Target: "windowsill", Verified: true},
		{Source: "Skosy", Target: "sloped ceilings", Verified: true},
		{Source: "okno", Target: "window"},
	}, got)
	assert.Equal(t, "parapet", pairs[0].Target)

	_, err = ParseVerdicts("not json")
	require.ErrorIs(t, err, ErrParse)
}
