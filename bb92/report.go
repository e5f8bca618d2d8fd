package bb92

import (
	"fmt"
	"math"
	"strings"
	"text/tabwriter"

	"gonum.org/v1/gonum/stat/distuv"
)

// A TableRow is one line of the per-pair report table.
type TableRow struct {
	Index     int
	Basis     string
	SameBasis bool
	Outcome   byte

	// OutcomesMatch is "true"/"false" for compared pairs and "-" for pairs
	// whose outcomes were never exchanged.
	OutcomesMatch string
}

// A Report summarizes one completed key negotiation.
type Report struct {
	// Table holds one row per generated pair, in index order.
	Table []TableRow

	// SecretKey is the raw key truncated to the requested key length.
	SecretKey []byte

	// RawKey is the full unprocessed key: outcomes of every basis-matched,
	// untested pair. In practice post-processing turns this into a secure
	// shared key.
	RawKey []byte

	XBasisCount    int
	ZBasisCount    int
	SameBasisCount int

	// OutcomeComparisonCount is the number of pairs whose outcomes were
	// compared for error estimation; DiffOutcomeCount how many of those
	// disagreed.
	OutcomeComparisonCount int
	DiffOutcomeCount       int

	// QBER is the estimated quantum bit error rate, defined as 1 when no
	// outcomes were compared.
	QBER float64

	// KeyRatePotential is 1 - 2*H(QBER), the rate of secure key that can in
	// theory be extracted from the raw key. Negative values signal that no
	// secure key is extractable at the observed error rate; the value is
	// reported unclamped.
	KeyRatePotential float64

	Stats Stats
}

// binaryEntropy returns the Shannon entropy, in bits, of a two-outcome
// distribution with success probability p.
func binaryEntropy(p float64) float64 {
	if p == 0 || p == 1 {
		return 0
	}
	return distuv.Bernoulli{P: p}.Entropy() / math.Ln2
}

// buildReport derives summary statistics and the raw key from a fully
// annotated pair sequence.
func buildReport(pairs []Pair, keyLength int, stats Stats) Report {
	r := Report{Stats: stats}
	for _, p := range pairs {
		row := TableRow{
			Index:         p.Index,
			Basis:         p.Basis.String(),
			SameBasis:     p.SameBasis,
			Outcome:       p.Outcome,
			OutcomesMatch: "-",
		}
		if p.Basis == BasisX {
			r.XBasisCount++
		} else {
			r.ZBasisCount++
		}
		if p.SameBasis {
			r.SameBasisCount++
			if p.IsTest {
				row.OutcomesMatch = fmt.Sprintf("%t", p.OutcomesMatch)
				r.OutcomeComparisonCount++
				if !p.OutcomesMatch {
					r.DiffOutcomeCount++
				}
			}
		}
		r.Table = append(r.Table, row)
	}
	r.RawKey = rawKey(pairs)
	n := keyLength
	if n > len(r.RawKey) {
		n = len(r.RawKey)
	}
	r.SecretKey = r.RawKey[:n]
	if r.OutcomeComparisonCount == 0 {
		r.QBER = 1
	} else {
		r.QBER = float64(r.DiffOutcomeCount) / float64(r.OutcomeComparisonCount)
	}
	r.KeyRatePotential = 1 - 2*binaryEntropy(r.QBER)
	return r
}

// Render formats the report as a per-pair table followed by summary lines.
func (r Report) Render() string {
	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "pair\tbasis\tsame basis\toutcome\toutcomes match")
	for _, row := range r.Table {
		fmt.Fprintf(tw, "%d\t%s\t%t\t%d\t%s\n",
			row.Index, row.Basis, row.SameBasis, row.Outcome, row.OutcomesMatch)
	}
	tw.Flush()
	fmt.Fprintf(&sb, "x basis count:            %d\n", r.XBasisCount)
	fmt.Fprintf(&sb, "z basis count:            %d\n", r.ZBasisCount)
	fmt.Fprintf(&sb, "same basis count:         %d\n", r.SameBasisCount)
	fmt.Fprintf(&sb, "outcome comparison count: %d\n", r.OutcomeComparisonCount)
	fmt.Fprintf(&sb, "diff outcome count:       %d\n", r.DiffOutcomeCount)
	fmt.Fprintf(&sb, "qber:                     %.4f\n", r.QBER)
	fmt.Fprintf(&sb, "key rate potential:       %.4f\n", r.KeyRatePotential)
	fmt.Fprintf(&sb, "secret key:               %s\n", bitString(r.SecretKey))
	fmt.Fprintf(&sb, "raw key:                  %s\n", bitString(r.RawKey))
	return sb.String()
}

func bitString(bits []byte) string {
	var sb strings.Builder
	for _, b := range bits {
		sb.WriteByte('0' + b)
	}
	return sb.String()
}
