package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	tests := []struct {
		password string
		want     error
	}{
		{"Thumbnail#2024", nil},
		{"Overlay-Pack9", nil},
		{"Ab" + strings.Repeat("c", 8) + "1!", nil},
		{"Ab" + strings.Repeat("c", 124) + "1!", nil},
		{"Émoji€Pack12", nil},
		{"Short1!", ErrPasswordTooShort},
		{"Ab" + strings.Repeat("c", 125) + "1!", ErrPasswordTooLong},
		{"streamer#2024", ErrPasswordNoUpper},
		{"STREAMER#2024", ErrPasswordNoLower},
		{"Streamer#Pack", ErrPasswordNoDigit},
		{"Streamer2024ab", ErrPasswordNoSpecial},
	}
	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPasswordPolicy_Custom(t *testing.T) {
	t.Parallel()
	p := PasswordPolicy{MinLength: 6, MaxLength: 8}
	assert.NoError(t, p.Check("Ab1!cd"))
	assert.ErrorIs(t, p.Check("Ab1!cdefg"), ErrPasswordTooLong)
}

func TestValidateUsername(t *testing.T) {
	t.Parallel()
	tests := []struct {
		username string
		want     error
	}{
		{"neon_fox", nil},
		{"_glitch", nil},
		{"fx9", nil},
		{strings.Repeat("a", 20), nil},
		{"fx", ErrUsernameLength},
		{strings.Repeat("a", 21), ErrUsernameLength},
		{"NeonFox", ErrUsernameCharacters},
		{"neon-fox", ErrUsernameCharacters},
		{"neon.fox", ErrUsernameCharacters},
		{"néon", ErrUsernameCharacters},
		{"upload", ErrUsernameReserved},
		{"viralpik", ErrUsernameReserved},
	}
	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()
	longest := strings.Repeat("a", 64) + "@" + strings.Repeat("b", 185) + ".com"

	assert.NoError(t, ValidateEmail("creator@viralpik.dev"))
	assert.NoError(t, ValidateEmail(longest))
	assert.ErrorIs(t, ValidateEmail(longest+"m"), ErrEmailTooLong)
	for _, bad := range []string{"not-an-email", "fox@", "fox@@viralpik.dev", "fox @viralpik.dev", "fox@viralpik.dev."} {
		assert.ErrorIs(t, ValidateEmail(bad), ErrEmailFormat, bad)
	}
}

func TestNormalizeUsername(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "neon_fox", NormalizeUsername("  Neon_Fox "))
	assert.NoError(t, ValidateUsername(NormalizeUsername("Neon_Fox")))
}
