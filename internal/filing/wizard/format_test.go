package wizard_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"taxfile/internal/filing/wizard"
)

func TestFormatCNIC(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"12345", "12345"},
		{"123456", "12345-6"},
		{"1234512345671", "12345-1234567-1"},
		{"12345-1234567-1", "12345-1234567-1"},
		{"12345123456719999", "12345-1234567-1"},
		{"abc12345x1234567y1", "12345-1234567-1"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, wizard.FormatCNIC(tt.in))
		})
	}
}

func TestValidCNIC(t *testing.T) {
	assert.True(t, wizard.ValidCNIC(wizard.FormatCNIC("1234512345671")))
	assert.False(t, wizard.ValidCNIC(wizard.FormatCNIC("123451234567")))
	assert.False(t, wizard.ValidCNIC("1234512345671"))
}

func TestValidEmail(t *testing.T) {
	assert.True(t, wizard.ValidEmail("a.b@example.co"))
	assert.False(t, wizard.ValidEmail("a b@example.com"))
	assert.False(t, wizard.ValidEmail("ab@example"))
	assert.False(t, wizard.ValidEmail("@example.com"))
}

func TestIBAN(t *testing.T) {
	assert.Equal(t, "PK36SCBL0000001123456702", wizard.NormalizeIBAN(" pk36 scbl 0000 0011 2345 6702"))
	assert.True(t, wizard.ValidIBAN("PK36SCBL0000001123456702"))
	assert.False(t, wizard.ValidIBAN("PK36SCBL000000112345670"))
	assert.False(t, wizard.ValidIBAN("GB82WEST12345698765432"))
}
