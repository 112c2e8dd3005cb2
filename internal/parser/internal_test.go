package parser

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		in   signals
		want float64
	}{
		{name: "nothing", in: signals{}, want: 0},
		{name: "date only", in: signals{hasDate: true, dateCandidates: 1}, want: 0.4},
		{name: "amount only", in: signals{hasAmount: true, amountByKeyword: true}, want: 0.4},
		{name: "both unambiguous", in: signals{hasDate: true, hasAmount: true, amountByKeyword: true, dateCandidates: 1}, want: 1.0},
		{name: "both from named date", in: signals{hasDate: true, hasAmount: true, amountByKeyword: true}, want: 1.0},
		{name: "ambiguous demoted", in: signals{hasDate: true, hasAmount: true, amountByKeyword: true, dateCandidates: 2}, want: 0.65},
		{name: "ambiguous below floor kept", in: signals{hasDate: true, dateCandidates: 3}, want: 0.4},
		{name: "loose amount", in: signals{hasDate: true, hasAmount: true, dateCandidates: 1}, want: 0.8},
		{name: "loose amount ambiguous", in: signals{hasDate: true, hasAmount: true, dateCandidates: 2}, want: 0.6},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := score(tc.in); got != tc.want {
				t.Errorf("score() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestNormalizeAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{in: "12 500.00", want: "12500", ok: true},
		{in: "12 500,5", want: "12500.5", ok: true},
		{in: "1.234.567.89", want: "1234567.89", ok: true},
		{in: "99.999", want: "100", ok: true},
		{in: "0", ok: false},
		{in: "0.00", ok: false},
		{in: "0,50", ok: false},
		{in: "0.995", want: "1", ok: true},
		{in: "1", want: "1", ok: true},
		{in: "10000000", want: "10000000", ok: true},
		{in: "10000000.01", ok: false},
		{in: "12345678901", ok: false},
		{in: "", ok: false},
	}
	for _, tc := range tests {
		got, ok := normalizeAmount(tc.in)
		if ok != tc.ok {
			t.Errorf("normalizeAmount(%q) ok = %v, want %v", tc.in, ok, tc.ok)
			continue
		}
		if ok && !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Errorf("normalizeAmount(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeClock(t *testing.T) {
	tests := map[string]string{
		"":         "",
		"9:05":     "09:05",
		"14:30":    "14:30",
		"23:59:59": "23:59:59",
		"24:00":    "",
		"12:60":    "",
		"7:00:61":  "",
	}
	for in, want := range tests {
		if got := normalizeClock(in); got != want {
			t.Errorf("normalizeClock(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidDate(t *testing.T) {
	now := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		d, m, y int
		want    bool
	}{
		{1, 1, 2018, true},
		{31, 12, 2025, true},
		{31, 2, 2024, true},
		{1, 1, 2017, false},
		{1, 1, 2026, false},
		{0, 1, 2024, false},
		{1, 0, 2024, false},
	}
	for _, tc := range tests {
		if got := validDate(tc.d, tc.m, tc.y, now); got != tc.want {
			t.Errorf("validDate(%d, %d, %d) = %v, want %v", tc.d, tc.m, tc.y, got, tc.want)
		}
	}
}

func TestPickAmountKeepsBothPasses(t *testing.T) {
	cands := collectAmounts("Итого: 500")
	if len(cands) != 2 {
		t.Fatalf("got %d candidates, want one per pass", len(cands))
	}
	best, ok := pickAmount(cands)
	if !ok || !best.Value.Equal(decimal.NewFromInt(500)) || best.Keyword != "итого" {
		t.Errorf("pickAmount() = %+v, %v", best, ok)
	}
}

func TestLineWindow(t *testing.T) {
	tx := newText("Комиссия 10\nИтого\n500 ₽\nБаланс 9")
	start := len([]rune("Комиссия 10\n"))
	end := start + len([]rune("Итого\n500"))
	if got, want := tx.lineWindow(start, end, 20), "Итого\n500 ₽"; got != want {
		t.Errorf("lineWindow() = %q, want %q", got, want)
	}
	if got, want := tx.lineWindow(3, 5, 1), "мисс"; got != want {
		t.Errorf("lineWindow() = %q, want %q", got, want)
	}
}

func TestCollapseWhitespace(t *testing.T) {
	if got, want := collapseWhitespace("Итого  :\n \n\t500 ₽"), "Итого :\n500 ₽"; got != want {
		t.Errorf("collapseWhitespace() = %q, want %q", got, want)
	}
}
