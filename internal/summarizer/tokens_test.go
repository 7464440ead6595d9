package summarizer

import "testing"

func TestStripSpecialTokens(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"No tokens", "  plain summary  ", "plain summary"},
		{"Padding and end of sequence", "<pad> the video explains</s>", "the video explains"},
		{"Sentinels", "<extra_id_0> first <extra_id_12>second", "first second"},
		{"Unknown token", "caf<unk> open", "caf open"},
		{"Only tokens", "<pad></s>", ""},
		{"Angle brackets that are not tokens", "a <b> c", "a <b> c"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := StripSpecialTokens(test.input); got != test.want {
				t.Errorf("StripSpecialTokens(%q) = %q, want %q", test.input, got, test.want)
			}
		})
	}
}
