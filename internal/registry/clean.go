package registry

import (
	"regexp"
	"strings"
)

const maxTradeNameLength = 100

// The registry often carries addresses in nome_fantasia.
var addressPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(RUA|AVENIDA|ALAMEDA|ESTRADA|RODOVIA|TRAVESSA|QUADRA|LOTE)\b`),
	regexp.MustCompile(`(?i)\bN\d+\b`),
	regexp.MustCompile(`(?i)\d+\s*(KM|QUILOMETRO)`),
	regexp.MustCompile(`(?i)CEP\s*\d`),
	regexp.MustCompile(`\d{5}-?\d{3}`),
	regexp.MustCompile(`(?i)SALA\s*\d+`),
	regexp.MustCompile(`(?i)ANDAR\s*\d+`),
	regexp.MustCompile(`(?i)BLOCO\s*[A-Z]`),
}

// CleanTradeName drops trade names that are blank, too long or look like
// an address.
func CleanTradeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || len([]rune(name)) > maxTradeNameLength {
		return ""
	}
	for _, re := range addressPatterns {
		if re.MatchString(name) {
			return ""
		}
	}
	return name
}
