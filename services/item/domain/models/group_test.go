package models

import "testing"

func TestParseGroup(t *testing.T) {
	tests := []struct {
		input   string
		want    Group
		wantErr bool
	}{
		{"Primary", GroupPrimary, false},
		{"Secondary", GroupSecondary, false},
		{"primary", "", true},
		{"PRIMARY", "", true},
		{"Tertiary", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseGroup(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseGroup(%q) error = %v, wantErr = %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("ParseGroup(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestGroup_Label(t *testing.T) {
	if GroupPrimary.Label() != "Primary Group" {
		t.Fatalf("unexpected label: %q", GroupPrimary.Label())
	}
	if GroupSecondary.Label() != "Secondary Group" {
		t.Fatalf("unexpected label: %q", GroupSecondary.Label())
	}
}

func TestGroups_AllValid(t *testing.T) {
	if len(Groups) != 2 {
		t.Fatalf("expected exactly 2 groups, got %d", len(Groups))
	}
	for _, g := range Groups {
		if !g.IsValid() {
			t.Errorf("group %q reported invalid", g)
		}
	}
}

func TestGroupChoices(t *testing.T) {
	if got := GroupChoices("|"); got != "Primary|Secondary" {
		t.Fatalf("GroupChoices = %q", got)
	}
}
