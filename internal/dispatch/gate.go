package dispatch

// DefaultConfirmPhrase must be typed verbatim before a bootloader lock or
// unlock is sent.
const DefaultConfirmPhrase = "我了解風險並確認"

// Gate guards destructive commands behind an exact confirmation phrase.
type Gate struct {
	Phrase string
}

// NewGate returns a gate for phrase, or the default phrase when empty.
func NewGate(phrase string) Gate {
	if phrase == "" {
		phrase = DefaultConfirmPhrase
	}
	return Gate{Phrase: phrase}
}

// Check compares input byte for byte with the phrase. Empty input means
// the prompt was cancelled: no error and no dispatch. Any other mismatch
// is rejected outright.
func (g Gate) Check(input string) (bool, error) {
	switch {
	case input == "":
		return false, nil
	case input == g.Phrase:
		return true, nil
	default:
		return false, ErrConfirmationRejected
	}
}
