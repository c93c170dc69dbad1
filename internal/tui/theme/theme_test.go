package theme

import "testing"

func TestByName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"dark", "dark"},
		{"light", "light"},
		{"terminal", "terminal"},
		{"solarized", "dark"},
		{"", "dark"},
	}
	for _, tt := range tests {
		if got := ByName(tt.name).Name; got != tt.want {
			t.Errorf("ByName(%q) = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestSetActive(t *testing.T) {
	defer SetActive("dark")
	SetActive("light")
	if Active.Name != "light" {
		t.Errorf("Active = %s", Active.Name)
	}
}
