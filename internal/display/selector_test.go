package display

import "testing"

func TestSelectMessage(t *testing.T) {
	tests := []struct {
		name     string
		stopID   string
		active   []GeneralMessage
		wantOK   bool
		wantText string
	}{
		{
			name:   "no messages",
			stopID: "IT",
			wantOK: false,
		},
		{
			name:   "other stop only",
			stopID: "IT",
			active: []GeneralMessage{{StopID: "PLAZA", Text: "Closed"}},
			wantOK: false,
		},
		{
			name:     "single match",
			stopID:   "IT",
			active:   []GeneralMessage{{StopID: "PLAZA", Text: "Closed"}, {StopID: "IT", Text: "Detour ahead"}},
			wantOK:   true,
			wantText: "Detour ahead",
		},
		{
			name:   "blocking beats earlier non-blocking",
			stopID: "IT",
			active: []GeneralMessage{
				{StopID: "IT", Text: "Detour ahead"},
				{StopID: "IT", Text: "Stop closed", Blocking: true},
			},
			wantOK:   true,
			wantText: "Stop closed",
		},
		{
			name:   "non-blocking never replaces blocking",
			stopID: "IT",
			active: []GeneralMessage{
				{StopID: "IT", Text: "Stop closed", Blocking: true},
				{StopID: "IT", Text: "Detour ahead"},
			},
			wantOK:   true,
			wantText: "Stop closed",
		},
		{
			name:   "first blocking wins tie",
			stopID: "IT",
			active: []GeneralMessage{
				{StopID: "IT", Text: "first", Blocking: true},
				{StopID: "IT", Text: "second", Blocking: true},
			},
			wantOK:   true,
			wantText: "first",
		},
		{
			name:   "first non-blocking wins tie",
			stopID: "IT",
			active: []GeneralMessage{
				{StopID: "IT", Text: "first"},
				{StopID: "IT", Text: "second"},
			},
			wantOK:   true,
			wantText: "first",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectMessage(tt.stopID, tt.active)
			if ok != tt.wantOK {
				t.Fatalf("SelectMessage() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got.Text != tt.wantText {
				t.Errorf("SelectMessage() text = %q, want %q", got.Text, tt.wantText)
			}
			if ok && got.StopID != tt.stopID {
				t.Errorf("SelectMessage() returned message for stop %q", got.StopID)
			}
		})
	}
}
