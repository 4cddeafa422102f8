package fact

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFact_Float(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    float64
		wantErr bool
	}{
		{"integer", "352583000000", 352583000000, false},
		{"negative", "-1250.5", -1250.5, false},
		{"padded", "  42 ", 42, false},
		{"exponent", "1.5e3", 1500, false},
		{"empty", "", 0, true},
		{"text", "n/a", 0, true},
		{"overflow", "1e400", 0, true},
		{"negative overflow", "-1e400", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Fact{Tag: "Assets", Value: tt.value}.Float()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "fact: parse value")
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestFact_Year(t *testing.T) {
	end, err := ParseDate("2023-09-30")
	require.NoError(t, err)

	y, ok := Fact{PeriodEnd: end}.Year()
	assert.True(t, ok)
	assert.Equal(t, 2023, y)

	_, ok = Fact{}.Year()
	assert.False(t, ok)
}

func TestFact_LocalName(t *testing.T) {
	assert.Equal(t, "Revenues", Fact{Tag: "us-gaap:Revenues"}.LocalName())
	assert.Equal(t, "Revenues", Fact{Tag: "Revenues"}.LocalName())
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("")
	require.NoError(t, err)
	assert.Nil(t, d)

	_, err = ParseDate("30/09/2023")
	require.Error(t, err)
}

func TestReadCSV(t *testing.T) {
	in := `tag,value,period_end,period_type
Assets,1000,2023-12-31,instant
Revenues,900,2023-12-31,duration
SharesOutstanding,12,,instant
`
	facts, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, facts, 3)

	assert.Equal(t, "Assets", facts[0].Tag)
	assert.Equal(t, PeriodInstant, facts[0].PeriodType)
	assert.Equal(t, "900", facts[1].Value)
	assert.Equal(t, PeriodDuration, facts[1].PeriodType)
	assert.Nil(t, facts[2].PeriodEnd)
}

func TestReadCSV_BadHeader(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("name,amount\nAssets,1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fact: csv header")
}

func TestReadCSV_BadPeriodType(t *testing.T) {
	in := "tag,value,period_end,period_type\nAssets,1,2023-12-31,quarterly\n"
	_, err := ReadCSV(strings.NewReader(in))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown period type")
}

func TestReadCSV_BadDate(t *testing.T) {
	in := "tag,value,period_end,period_type\nAssets,1,12/31/2023,instant\n"
	_, err := ReadCSV(strings.NewReader(in))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "csv line 2")
}
