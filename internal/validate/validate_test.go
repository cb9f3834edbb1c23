package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRUT(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"blank", "   ", nil},
		{"empty", "", nil},
		{"incomplete", "12.345", nil},
		{"six significant chars", "123456", nil},
		{"valid dotted", "12.345.678-5", nil},
		{"valid plain", "123456785", nil},
		{"valid seven digit body", "1.234.567-4", nil},
		{"verifier zero", "10.000.004-0", nil},
		{"verifier K", "10.000.013-K", nil},
		{"verifier lowercase k", "10000013-k", nil},
		{"wrong verifier", "12.345.678-9", ErrRUTChecksum},
		{"seven chars", "1234567", ErrRUTLength},
		{"too long", "1234567890", ErrRUTLength},
		{"K inside body", "1234K6785", ErrRUTNotNumeric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RUT(tt.input))
		})
	}
}

func TestVerifierDigit(t *testing.T) {
	tests := map[string]string{
		"12345678": "5",
		"11111111": "1",
		"10000004": "0",
		"10000013": "K",
		"7654321":  "6",
	}
	for body, want := range tests {
		t.Run(body, func(t *testing.T) {
			assert.Equal(t, want, VerifierDigit(body))
		})
	}
}

func TestFormatRUT(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"1", "1"},
		{"k", "K"},
		{"12", "1-2"},
		{"1234", "123-4"},
		{"12345", "1.234-5"},
		{"123456785", "12.345.678-5"},
		{"12.345.678-5", "12.345.678-5"},
		{"12345678-5999", "12.345.678-5"},
		{"10000013k", "10.000.013-K"},
		{"abc", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatRUT(tt.input))
		})
	}
}

func TestEmail(t *testing.T) {
	tests := []struct {
		input string
		ok    bool
	}{
		{"ana@example.cl", true},
		{"a.b+c@sub.example.com", true},
		{"", false},
		{"ana@example", false},
		{"ana example@x.cl", false},
		{"@example.cl", false},
		{"ana@@example.cl", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if tt.ok {
				assert.NoError(t, Email(tt.input))
			} else {
				assert.ErrorIs(t, Email(tt.input), ErrEmail)
			}
		})
	}
}

func TestPhone(t *testing.T) {
	tests := []struct {
		input string
		ok    bool
	}{
		{"+56 9 1234 5678", true},
		{"912345678", true},
		{"22345678", true},
		{"(+56) 9-1234-5678", true},
		{"1234567", false},
		{"+54912345678", false},
		{"", false},
		{"9123456789", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if tt.ok {
				assert.NoError(t, Phone(tt.input))
			} else {
				assert.ErrorIs(t, Phone(tt.input), ErrPhone)
			}
		})
	}
}

func TestName(t *testing.T) {
	assert.NoError(t, Name("Ana"))
	assert.NoError(t, Name(" Ñu "))
	assert.ErrorIs(t, Name(" a "), ErrName)
	assert.ErrorIs(t, Name(""), ErrName)
}
