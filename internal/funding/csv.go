package funding

import (
	"strconv"
	"strings"
)

// EconomyCSVHeader is the fixed header of the economy payment file.
var EconomyCSVHeader = []string{"Lightning Address", "Amount (sats)", "Note"}

// CSV renders the pool's payment records as CSV text. The consumer of the
// payment file requires every field quoted, with internal quotes doubled;
// zero records yield a header-only single line.
func CSV(pool *Pool) string {
	var b strings.Builder
	b.WriteString(CSVRow(EconomyCSVHeader...))
	for _, record := range PaymentRecords(pool) {
		b.WriteString("\n")
		b.WriteString(CSVRow(
			record.LightningAddress,
			strconv.FormatInt(record.AmountSats, 10),
			record.Note,
		))
	}
	return b.String()
}

// CSVRow renders one row with every field double-quoted and internal quotes
// doubled (RFC 4180 escaping applied unconditionally).
func CSVRow(fields ...string) string {
	quoted := make([]string, len(fields))
	for i, field := range fields {
		quoted[i] = `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
	}
	return strings.Join(quoted, ",")
}
