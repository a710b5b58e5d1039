package scene

// FallbackLabel is reused once every letter A-Z is taken.
const FallbackLabel = "A"

// usedLabels collects the labels of committed points, deleted ones included,
// and of every polygon vertex.
func usedLabels(els []Element) map[string]bool {
	used := make(map[string]bool)
	for _, e := range els {
		switch e.Kind {
		case KindPoint:
			if !e.IsTemporary {
				used[e.Label] = true
			}
		case KindPolygon:
			for _, p := range e.Points {
				used[p.Label] = true
			}
		}
	}
	return used
}

// NextLabel returns the first letter A-Z not used as a label.
func NextLabel(els []Element) string {
	return NextLabels(els, 1)[0]
}

// NextLabels returns n successive unused letters. Past Z it yields
// FallbackLabel.
func NextLabels(els []Element, n int) []string {
	used := usedLabels(els)
	out := make([]string, 0, n)
	c := byte('A')
	for len(out) < n {
		for c <= 'Z' && used[string(c)] {
			c++
		}
		if c > 'Z' {
			out = append(out, FallbackLabel)
			continue
		}
		out = append(out, string(c))
		c++
	}
	return out
}

// LetterAfter returns the letter following the first character of label. It
// does not wrap: anything past Z, or a label not starting with A-Z, gives
// FallbackLabel.
func LetterAfter(label string) string {
	if label == "" || label[0] < 'A' || label[0] >= 'Z' {
		return FallbackLabel
	}
	return string(label[0] + 1)
}

// IndexLabel is the default label for the i-th table row.
func IndexLabel(i int) string {
	if i < 0 || i >= 26 {
		return FallbackLabel
	}
	return string(rune('A' + i))
}
