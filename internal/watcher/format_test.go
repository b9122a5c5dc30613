package watcher

import (
	"regexp"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func d(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func TestFormatAlert_Directionality(t *testing.T) {
	up := FormatAlert("BTC", d(100), d(105), d(5.0), FormatCompact)
	require.Contains(t, up, "📈")
	require.Contains(t, up, "105.00")
	require.Contains(t, up, "5.00%")

	down := FormatAlert("BTC", d(100), d(95), d(5.0), FormatCompact)
	require.Contains(t, down, "📉")
	require.NotContains(t, down, "📈")
}

func TestFormatAlert_EqualPricesShowDown(t *testing.T) {
	// Unchanged prices render with the down glyph; this asymmetry is
	// deliberate and must not drift.
	msg := FormatAlert("BTC", d(100), d(100), d(0), FormatCompact)
	require.Contains(t, msg, "📉")
	require.NotContains(t, msg, "📈")
}

func TestFormatAlert_PlainVariant(t *testing.T) {
	msg := FormatAlert("ETH", d(2000), d(2050), d(2.5), FormatPlain)
	require.Contains(t, msg, "ETH")
	require.Contains(t, msg, "2000.00")
	require.Contains(t, msg, "2050.00")
	require.Contains(t, msg, "2.50%")
	require.Contains(t, msg, "<b>")
}

func TestFormatAlert_DetailedCarriesTimestamp(t *testing.T) {
	msg := FormatAlert("SOL", d(140), d(150), d(7.14), FormatDetailed)
	require.Contains(t, msg, "140.00")
	require.Contains(t, msg, "150.00")
	require.Regexp(t, regexp.MustCompile(`\d{2}:\d{2}:\d{2}`), msg)
}

func TestFormatAlert_UnknownVariantFallsBackToPlain(t *testing.T) {
	plain := FormatAlert("BTC", d(100), d(105), d(5.0), FormatPlain)
	unknown := FormatAlert("BTC", d(100), d(105), d(5.0), "fancy")
	require.Equal(t, plain, unknown)
}
