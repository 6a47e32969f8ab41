package featureflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRule(t *testing.T) {
	tests := []struct {
		in   string
		want Rule
	}{
		{"on", On},
		{" TRUE ", On},
		{"1", On},
		{"off", Off},
		{"false", Off},
		{"0", Off},
		{"25%", Rule{Mode: ModeRollout, Percent: 25}},
		{"0%", Off},
		{"-5%", Off},
		{"100%", On},
		{"250%", On},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRule(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "yes", "25", "x%"} {
		_, err := ParseRule(bad)
		assert.ErrorIs(t, err, ErrInvalidRule, bad)
	}
}

func TestManager_Defaults(t *testing.T) {
	m := NewManager("")
	assert.True(t, m.Enabled(AdminSelfApproval, 1))
	assert.True(t, m.Enabled(EnrichOnSubmit, 0))
	assert.True(t, m.Enabled(FeedInterleave, 9))
	assert.False(t, m.Enabled("never_configured", 1))

	m = NewManager("admin_self_approval=off")
	assert.False(t, m.Enabled(AdminSelfApproval, 1))
	assert.True(t, m.Enabled(EnrichOnSubmit, 1))

	var nilManager *Manager
	assert.False(t, nilManager.Enabled(AdminSelfApproval, 1))
}

func TestManager_Rollout(t *testing.T) {
	m := NewManager("feed_interleave=30%")

	first := m.Enabled(FeedInterleave, 42)
	for range 5 {
		assert.Equal(t, first, m.Enabled(FeedInterleave, 42))
	}
	assert.False(t, m.Enabled(FeedInterleave, 0), "anonymous viewers are never in a rollout")

	enabled := 0
	for id := uint(1); id <= 1000; id++ {
		if m.Enabled(FeedInterleave, id) {
			enabled++
		}
	}
	assert.InDelta(t, 300, enabled, 80)
}

func TestManager_ParseReportsInvalid(t *testing.T) {
	m := NewManager(" bad ,x=on, Y = 20% ,z=maybe,=on")

	assert.ElementsMatch(t, []string{"bad", "z=maybe", "=on"}, m.Invalid())

	rules := m.Rules()
	assert.Equal(t, "on", rules["x"])
	assert.Equal(t, "20%", rules["y"])
	assert.NotContains(t, rules, "z")
	assert.Equal(t, "on", rules[AdminSelfApproval])

	snap := m.Snapshot(123)
	assert.Len(t, snap, len(known)+2)
	assert.True(t, snap["x"])
}

func TestManager_Set(t *testing.T) {
	m := NewManager("")
	require.NoError(t, m.Set("Enrich_On_Submit", "off"))
	assert.False(t, m.Enabled(EnrichOnSubmit, 1))

	assert.ErrorIs(t, m.Set(EnrichOnSubmit, "sometimes"), ErrInvalidRule)
	assert.False(t, m.Enabled(EnrichOnSubmit, 1), "failed update keeps the old rule")

	assert.Error(t, m.Set("  ", "on"))
}
