package transcript

import "testing"

func TestAppend_DropsWhitespaceOnlyTurns(t *testing.T) {
	s := &Session{}
	s.Append(&Turn{Text: "  \t "})
	s.Append(&Turn{Text: "  a real turn  "})
	if len(s.Turns) != 1 {
		t.Fatalf("expected 1 turn, got %d", len(s.Turns))
	}
	if s.Turns[0].Text != "a real turn" {
		t.Errorf("text not trimmed: %q", s.Turns[0].Text)
	}
}

func TestSplitSpeaker(t *testing.T) {
	cases := []struct {
		line    string
		speaker string
		text    string
	}{
		{"A: make the rim wider", "A", "make the rim wider"},
		{"Designer Two: add a notch", "Designer Two", "add a notch"},
		{"no speaker tag here", "", "no speaker tag here"},
		{"the ratio is 3:1 roughly", "", "the ratio is 3:1 roughly"},
		{"Well, yes: that works", "", "Well, yes: that works"},
		{": leading colon", "", ": leading colon"},
	}
	for _, tc := range cases {
		speaker, text := SplitSpeaker(tc.line)
		if speaker != tc.speaker || text != tc.text {
			t.Errorf("SplitSpeaker(%q) = %q, %q; want %q, %q",
				tc.line, speaker, text, tc.speaker, tc.text)
		}
	}
}
