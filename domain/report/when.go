package report

import (
	"encoding/json"
	"time"
)

// DisplayLayout is the layout used to render concrete instants.
const DisplayLayout = "2006-01-02 15:04"

// When is either a concrete instant or a natural-language phrase kept
// verbatim. Exactly one of the two is meaningful.
type When struct {
	at       time.Time
	phrase   string
	isPhrase bool
}

// At wraps a concrete instant.
func At(t time.Time) When {
	return When{at: t}
}

// Phrase wraps a human phrase such as "Yesterday at about 3:00 PM".
func Phrase(s string) When {
	return When{phrase: s, isPhrase: true}
}

// IsPhrase reports whether the value holds a preserved phrase.
func (w When) IsPhrase() bool { return w.isPhrase }

// Time returns the instant, if any.
func (w When) Time() (time.Time, bool) {
	if w.isPhrase {
		return time.Time{}, false
	}
	return w.at, true
}

// Phrase returns the preserved phrase, if any.
func (w When) Phrase() (string, bool) {
	return w.phrase, w.isPhrase
}

// IsZero is true for the zero value, which the resolver never produces.
func (w When) IsZero() bool {
	return !w.isPhrase && w.at.IsZero()
}

// Format renders the value for display and for duplicate keys.
func (w When) Format() string {
	if w.isPhrase {
		return w.phrase
	}
	return w.at.UTC().Format(DisplayLayout)
}

// StorageValue is the representation written to documents.
func (w When) StorageValue() any {
	if w.isPhrase {
		return w.phrase
	}
	return w.at.UTC().Format(time.RFC3339Nano)
}

// Equal compares two values; instants compare with time.Equal.
func (w When) Equal(o When) bool {
	if w.isPhrase != o.isPhrase {
		return false
	}
	if w.isPhrase {
		return w.phrase == o.phrase
	}
	return w.at.Equal(o.at)
}

func (w When) String() string { return w.Format() }

// MarshalJSON encodes instants as RFC3339 and phrases verbatim.
func (w When) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.StorageValue())
}

// UnmarshalJSON accepts either an RFC3339 instant or a phrase.
func (w *When) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		*w = At(t)
		return nil
	}
	*w = Phrase(s)
	return nil
}
