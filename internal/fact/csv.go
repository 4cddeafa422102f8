package fact

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

var csvHeader = []string{"tag", "value", "period_end", "period_type"}

// ReadCSV reads a fact list with the header tag,value,period_end,period_type.
// Rows keep their file order, which is the order the reconciler tie-breaks on.
// Values are not validated here; malformed numbers are skipped downstream.
func ReadCSV(r io.Reader) ([]Fact, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, eris.Wrap(err, "fact: read csv header")
	}
	if len(header) < len(csvHeader) {
		return nil, eris.Errorf("fact: csv header must be %s", strings.Join(csvHeader, ","))
	}
	for i, want := range csvHeader {
		if !strings.EqualFold(strings.TrimSpace(header[i]), want) {
			return nil, eris.Errorf("fact: csv column %d must be %q, got %q", i+1, want, header[i])
		}
	}

	var facts []Fact
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "fact: read csv line %d", line)
		}

		end, err := ParseDate(rec[2])
		if err != nil {
			return nil, eris.Wrapf(err, "fact: csv line %d", line)
		}
		pt := PeriodType(strings.ToLower(strings.TrimSpace(rec[3])))
		if !pt.Valid() {
			return nil, eris.Errorf("fact: csv line %d: unknown period type %q", line, rec[3])
		}

		facts = append(facts, Fact{
			Tag:        strings.TrimSpace(rec[0]),
			Value:      strings.TrimSpace(rec[1]),
			PeriodEnd:  end,
			PeriodType: pt,
		})
	}
	return facts, nil
}
