package fact

import (
	"bytes"
	"encoding/json"

	"github.com/rotisserie/eris"
)

type factJSON struct {
	Tag        string          `json:"tag"`
	Value      json.RawMessage `json:"value"`
	PeriodEnd  string          `json:"period_end,omitempty"`
	PeriodType PeriodType      `json:"period_type"`
}

// MarshalJSON writes the period end as a plain date and the value as text.
func (f Fact) MarshalJSON() ([]byte, error) {
	val, err := json.Marshal(f.Value)
	if err != nil {
		return nil, err
	}
	out := factJSON{Tag: f.Tag, Value: val, PeriodType: f.PeriodType}
	if f.PeriodEnd != nil {
		out.PeriodEnd = f.PeriodEnd.Format(DateLayout)
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts the value as either a JSON string or a bare number
// and keeps its text verbatim. Unparseable values are kept too: reconciliation
// skips them.
func (f *Fact) UnmarshalJSON(data []byte) error {
	var in factJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return eris.Wrap(err, "fact: decode")
	}

	var value string
	raw := bytes.TrimSpace(in.Value)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
	case raw[0] == '"':
		if err := json.Unmarshal(raw, &value); err != nil {
			return eris.Wrapf(err, "fact: decode value for %s", in.Tag)
		}
	default:
		value = string(raw)
	}

	end, err := ParseDate(in.PeriodEnd)
	if err != nil {
		return err
	}
	if in.PeriodType != "" && !in.PeriodType.Valid() {
		return eris.Errorf("fact: unknown period type %q for %s", in.PeriodType, in.Tag)
	}

	*f = Fact{Tag: in.Tag, Value: value, PeriodEnd: end, PeriodType: in.PeriodType}
	return nil
}
