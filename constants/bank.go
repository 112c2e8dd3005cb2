package constants

import (
	"strings"
)

type BankCode string

const (
	Sber     BankCode = "sber"
	Tinkoff  BankCode = "tinkoff"
	AlfaBank BankCode = "alfabank"
)

// BankMarker binds a bank to the lowercase substrings that identify it in receipt text.
type BankMarker struct {
	Code    BankCode
	Markers []string
}

// bankMarkers is checked in order; the first bank with a matching marker wins.
var bankMarkers = []BankMarker{
	{Code: Sber, Markers: []string{"сбербанк", "сбер", "sberbank", "sber"}},
	{Code: Tinkoff, Markers: []string{"тинькофф", "тинькoфф", "т-банк", "tinkoff", "t-bank", "tbank"}},
	{Code: AlfaBank, Markers: []string{"альфа-банк", "альфабанк", "альфа банк", "alfa-bank", "alfabank", "alfa bank"}},
}

func BankMarkers() []BankMarker {
	out := make([]BankMarker, len(bankMarkers))
	copy(out, bankMarkers)
	return out
}

func AllBanks() []BankCode {
	out := make([]BankCode, len(bankMarkers))
	for i, b := range bankMarkers {
		out[i] = b.Code
	}
	return out
}

// Canonicalize maps a free-form bank label (hint, model output) to a known code.
func Canonicalize(input string) (BankCode, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return "", false
	}

	for _, b := range bankMarkers {
		if normalized == string(b.Code) {
			return b.Code, true
		}
	}
	for _, b := range bankMarkers {
		for _, m := range b.Markers {
			if strings.Contains(normalized, m) {
				return b.Code, true
			}
		}
	}
	return "", false
}
