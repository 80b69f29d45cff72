package parser

import (
	"testing"
)

func TestForFile_Dispatch(t *testing.T) {
	cases := []struct {
		filename string
		wantErr  bool
	}{
		{"session.txt", false},
		{"session.md", false},
		{"session.markdown", false},
		{"session.csv", false},
		{"session.html", false},
		{"session.htm", false},
		{"session.pdf", false},
		{"session.docx", false},
		{"session.xls", true},
		{"session", true},
	}
	for _, c := range cases {
		p, err := ForFile(c.filename)
		if c.wantErr {
			if err == nil {
				t.Errorf("%s: expected error", c.filename)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error: %v", c.filename, err)
		}
		if p == nil {
			t.Errorf("%s: nil parser", c.filename)
		}
	}
}

func TestIsSupportedExtension(t *testing.T) {
	if !IsSupportedExtension("SESSION.TXT") {
		t.Error("extension check must be case-insensitive")
	}
	if IsSupportedExtension("session.exe") {
		t.Error("unsupported extension accepted")
	}
}
