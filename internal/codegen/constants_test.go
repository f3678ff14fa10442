package codegen

import "testing"

func TestIdentifier(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"email", "Email"},
		{"user-email", "UserEmail"},
		{"ipv4_address", "Ipv4Address"},
		{"HTTPHeader", "HTTPHeader"},
		{"a b.c", "ABC"},
		{"9lives", ""},
		{"--", ""},
		{"", ""},
	}

	for _, tt := range tests {
		got := Identifier(tt.input)
		if got != tt.want {
			t.Errorf("Identifier(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestUpperFirst(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"a", "A"},
		{"abc", "Abc"},
		{"hello", "Hello"},
		{"Hello", "Hello"},
		{"x", "X"},
		{"4x", "4x"},
	}

	for _, tt := range tests {
		got := UpperFirst(tt.input)
		if got != tt.want {
			t.Errorf("UpperFirst(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
