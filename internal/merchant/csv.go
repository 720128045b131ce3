package merchant

import (
	"fmt"
	"strconv"
	"strings"

	"economy-fund/internal/funding"
)

// MerchantCSVHeader is the fixed header of the merchant payment file.
var MerchantCSVHeader = []string{
	"Lightning Address",
	"Amount (sats)",
	"Merchant Name",
	"Local Name",
	"Provider",
	"Economy",
	"Economy Rank",
	"Video Appearances",
	"Note",
}

// CSV renders every merchant payment of the pool as CSV text, using the same
// quoting rules as the economy payment file. An empty payment set yields a
// header-only single line.
func CSV(pool *Pool) string {
	var b strings.Builder
	b.WriteString(funding.CSVRow(MerchantCSVHeader...))
	for _, breakdown := range pool.Economies {
		for _, payment := range breakdown.Payments {
			b.WriteString("\n")
			b.WriteString(funding.CSVRow(
				payment.LightningAddress,
				strconv.FormatInt(payment.AmountSats, 10),
				payment.Name,
				payment.LocalName,
				payment.Provider,
				breakdown.EconomyName,
				strconv.Itoa(breakdown.EconomyRank),
				strconv.Itoa(payment.VideoAppearances),
				fmt.Sprintf("%s merchant payout - %s", pool.Period.Label(), breakdown.EconomyName),
			))
		}
	}
	return b.String()
}
