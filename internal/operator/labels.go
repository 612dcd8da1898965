package operator

import "github.com/TimurManjosov/segmentfilter/internal/choice"

// Translator resolves a message key into a localized string.
type Translator interface {
	Trans(key string, params map[string]string) string
}

// Choices turns ops into a value→label set for an operator selector. Labels
// go through tr; a nil tr leaves the label keys untouched.
func Choices(ops []Operator, tr Translator) choice.Set {
	set := make(choice.Set, 0, len(ops))
	for _, op := range ops {
		label := string(op)
		if o, ok := options[op]; ok {
			label = o.Label
			if tr != nil {
				label = tr.Trans(o.Label, nil)
			}
		}
		set = set.Add(string(op), label)
	}
	return set
}
