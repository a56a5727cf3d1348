package rules

import (
	"reflect"
	"testing"
)

func TestMatch(t *testing.T) {
	patterns := map[string]string{
		"screenshot": `^Screenshot`,
		"jpeg":       `\.jpe?g$`,
		"broken":     `([`,
		"empty":      "",
	}

	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"multiple matches sorted", "Screenshot 2024.jpg", []string{"jpeg", "screenshot"}},
		{"single match", "holiday.jpeg", []string{"jpeg"}},
		{"no match", "notes.png", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Match(patterns, tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestAutoMove(t *testing.T) {
	moves := []MoveRule{
		{Name: "incomplete", From: "camera"},
		{Name: "camera", From: "/camera/", To: "/sorted/camera"},
		{Name: "any-camera", From: "camera", To: "/sorted/other"},
	}

	rule, ok := AutoMove(moves, "/home/me/camera/img.jpg")
	if !ok {
		t.Fatal("Expected a rule to match")
	}
	if rule.Name != "camera" {
		t.Errorf("Expected first complete rule to win, got %s", rule.Name)
	}

	if _, ok := AutoMove(moves, "/home/me/downloads/img.jpg"); ok {
		t.Error("Expected no rule to match")
	}
}

func TestBlacklistPattern(t *testing.T) {
	if re := BlacklistPattern(nil); re != nil {
		t.Error("Expected nil pattern for empty blacklist")
	}
	if re := BlacklistPattern([]string{" ", ""}); re != nil {
		t.Error("Expected nil pattern for blank blacklist")
	}

	re := BlacklistPattern([]string{"/data/private", "/data/a+b"})

	tests := []struct {
		path     string
		expected bool
	}{
		{"/data/private", true},
		{"/data/private/nested", true},
		{"/data/a+b/x", true},
		{"/data/aab", false},
		{"/other/data/private", false},
	}
	for _, tt := range tests {
		if got := re.MatchString(tt.path); got != tt.expected {
			t.Errorf("%s: expected %v, got %v", tt.path, tt.expected, got)
		}
	}
}
