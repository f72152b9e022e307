package models

import "testing"

func TestExtractNoteMetadata(t *testing.T) {
	tests := []struct {
		name       string
		notes      string
		wantOK     bool
		wantSource string
		wantBy     string
	}{
		{
			name:       "full metadata object",
			notes:      `{"sourceThoughtId":"abc123","processedBy":"gpt-4o-mini"}`,
			wantOK:     true,
			wantSource: "abc123",
			wantBy:     "gpt-4o-mini",
		},
		{
			name:       "leading whitespace tolerated",
			notes:      `   {"sourceThoughtId":"abc123"}`,
			wantOK:     true,
			wantSource: "abc123",
		},
		{
			name:   "plain prose is not metadata",
			notes:  "remember to water the plants",
			wantOK: false,
		},
		{
			name:   "malformed json",
			notes:  `{"sourceThoughtId": }`,
			wantOK: false,
		},
		{
			name:   "json without recognized fields",
			notes:  `{"color":"blue"}`,
			wantOK: false,
		},
		{
			name:   "empty notes",
			notes:  "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, ok := ExtractNoteMetadata(tt.notes)
			if ok != tt.wantOK {
				t.Fatalf("ExtractNoteMetadata() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if meta.SourceThoughtID != tt.wantSource {
				t.Errorf("SourceThoughtID = %q, want %q", meta.SourceThoughtID, tt.wantSource)
			}
			if meta.ProcessedBy != tt.wantBy {
				t.Errorf("ProcessedBy = %q, want %q", meta.ProcessedBy, tt.wantBy)
			}
		})
	}
}
