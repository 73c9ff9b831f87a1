package compare

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/KaramelBytes/equity-cli/internal/dataset"
)

// FormatCurrency renders v as $X,XXX.XX.
func FormatCurrency(v float64) string {
	if v < 0 {
		return "-" + FormatCurrency(-v)
	}
	return message.NewPrinter(language.English).Sprintf("$%.2f", v)
}

// FormatValue renders v in the metric's display format.
func FormatValue(m dataset.Metric, v float64) string {
	switch m.Kind {
	case dataset.KindCurrency:
		return FormatCurrency(v)
	case dataset.KindPercent:
		return fmt.Sprintf("%.1f%%", v)
	default:
		return fmt.Sprintf("%.1f", v)
	}
}

// verbatim prints v as entered, keeping at least one decimal: 60 -> "60.0",
// 62.25 -> "62.25".
func verbatim(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// sign buckets a delta; amounts under half a cent count as equal.
type sign int

const (
	signZero sign = iota
	signPositive
	signNegative
)

func signOf(delta float64) sign {
	switch {
	case math.Abs(delta) < 0.005:
		return signZero
	case delta > 0:
		return signPositive
	default:
		return signNegative
	}
}
