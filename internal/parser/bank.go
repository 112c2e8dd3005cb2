package parser

import (
	"strings"

	"github.com/joseph-ayodele/receipt-facts/constants"
)

// detectBank returns the first bank, in table order, whose marker occurs in
// the folded text.
func detectBank(folded string) (constants.BankCode, bool) {
	for _, b := range constants.BankMarkers() {
		for _, m := range b.Markers {
			if strings.Contains(folded, m) {
				return b.Code, true
			}
		}
	}
	return "", false
}
