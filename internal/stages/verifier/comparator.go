package verifier

import (
	"bytes"
	"encoding/json"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/interview-prep/judge/pkg/solution"
)

// Comparator decides whether an actual output matches one of the candidate
// expected outputs. Implementations are pure.
type Comparator interface {
	Matches(actual string, candidates []string) bool
}

// NewComparator selects the strategy for a problem once, up front.
// CUSTOM has no generic logic and behaves as EXACT_MATCH; unknown criteria
// do the same.
func NewComparator(criteria solution.AcceptanceCriteria) Comparator {
	switch criteria {
	case solution.SetMatch:
		return arrayComparator{sortFirst: false}
	case solution.SortedMatch:
		return arrayComparator{sortFirst: true}
	default:
		return exactComparator{}
	}
}

// Normalize trims the text and collapses every internal whitespace run to a
// single space.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

type exactComparator struct{}

func (exactComparator) Matches(actual string, candidates []string) bool {
	normalized := Normalize(actual)
	for _, candidate := range candidates {
		if normalized == Normalize(candidate) {
			return true
		}
	}
	return false
}

// arrayComparator parses both sides as JSON arrays. If either side does not
// parse, that candidate is compared by exact normalised text instead.
type arrayComparator struct {
	sortFirst bool
}

func (c arrayComparator) Matches(actual string, candidates []string) bool {
	normalized := Normalize(actual)
	actualElems, actualOk := parseArray(normalized)

	for _, candidate := range candidates {
		normalizedCandidate := Normalize(candidate)
		expectedElems, expectedOk := parseArray(normalizedCandidate)
		if !actualOk || !expectedOk {
			if normalized == normalizedCandidate {
				return true
			}
			continue
		}
		if c.sortFirst {
			if equalSorted(actualElems, expectedElems) {
				return true
			}
			continue
		}
		if equalMultiset(actualElems, expectedElems) {
			return true
		}
	}
	return false
}

// element is one decoded array item together with its canonical encoding.
type element struct {
	value any
	key   string
}

func parseArray(s string) ([]element, bool) {
	if !strings.HasPrefix(s, "[") {
		return nil, false
	}
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var raw []any
	if err := dec.Decode(&raw); err != nil {
		return nil, false
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, false
	}

	elems := make([]element, len(raw))
	for i, v := range raw {
		c, ok := canonicalValue(v)
		if !ok {
			return nil, false
		}
		key, err := canonicalKey(c)
		if err != nil {
			return nil, false
		}
		elems[i] = element{value: c, key: key}
	}
	return elems, true
}

// canonicalValue rewrites numbers so that 1, 1.0 and 1e0 compare equal.
func canonicalValue(v any) (any, bool) {
	switch t := v.(type) {
	case json.Number:
		return parseNumber(t.String())
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			c, ok := canonicalValue(item)
			if !ok {
				return nil, false
			}
			out[i] = c
		}
		return out, true
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			c, ok := canonicalValue(item)
			if !ok {
				return nil, false
			}
			out[k] = c
		}
		return out, true
	default:
		return v, true
	}
}

// maxExponent bounds the decimal exponent of a number. Anything beyond it
// makes the whole array unparseable.
const maxExponent = 1 << 40

// number is a decimal in scientific form: 0.digits x 10^exp. digits has no
// leading or trailing zeros, and zero is the empty digit string.
type number struct {
	neg    bool
	digits string
	exp    int64
}

// parseNumber normalises the text of a JSON number without expanding its
// exponent, so the cost is linear in the length of the text.
func parseNumber(s string) (number, bool) {
	var n number
	if strings.HasPrefix(s, "-") {
		n.neg = true
		s = s[1:]
	}

	mantissa, exponent := s, ""
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		mantissa, exponent = s[:i], s[i+1:]
	}
	if exponent != "" {
		e, err := strconv.ParseInt(exponent, 10, 64)
		if err != nil || e > maxExponent || e < -maxExponent {
			return number{}, false
		}
		n.exp = e
	}

	intPart, fracPart := mantissa, ""
	if i := strings.IndexByte(mantissa, '.'); i >= 0 {
		intPart, fracPart = mantissa[:i], mantissa[i+1:]
	}
	digits := intPart + fracPart
	n.exp += int64(len(intPart))

	trimmed := strings.TrimLeft(digits, "0")
	n.exp -= int64(len(digits) - len(trimmed))
	n.digits = strings.TrimRight(trimmed, "0")

	if n.digits == "" {
		return number{}, true
	}
	return n, true
}

func (n number) sign() int {
	switch {
	case n.digits == "":
		return 0
	case n.neg:
		return -1
	default:
		return 1
	}
}

func (n number) String() string {
	if n.digits == "" {
		return "0"
	}
	var b strings.Builder
	if n.neg {
		b.WriteByte('-')
	}
	b.WriteString("0.")
	b.WriteString(n.digits)
	b.WriteByte('e')
	b.WriteString(strconv.FormatInt(n.exp, 10))
	return b.String()
}

func (n number) cmp(o number) int {
	sa, sb := n.sign(), o.sign()
	if sa != sb {
		if sa < sb {
			return -1
		}
		return 1
	}
	if sa == 0 {
		return 0
	}

	var c int
	switch {
	case n.exp < o.exp:
		c = -1
	case n.exp > o.exp:
		c = 1
	default:
		c = strings.Compare(n.digits, o.digits)
	}
	if n.neg {
		return -c
	}
	return c
}

func canonicalKey(v any) (string, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch t := v.(type) {
	case number:
		buf.WriteString("n:")
		buf.WriteString(t.String())
	case []any:
		buf.WriteByte('[')
		for i, item := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			encoded, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(encoded)
			buf.WriteByte(':')
			if err := writeCanonical(buf, t[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		encoded, err := json.Marshal(t)
		if err != nil {
			return err
		}
		buf.Write(encoded)
	}
	return nil
}

func equalMultiset(a, b []element) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[string]int, len(a))
	for _, e := range a {
		counts[e.key]++
	}
	for _, e := range b {
		counts[e.key]--
		if counts[e.key] < 0 {
			return false
		}
	}
	return true
}

func equalSorted(a, b []element) bool {
	if len(a) != len(b) {
		return false
	}
	sa := sortedCopy(a)
	sb := sortedCopy(b)
	for i := range sa {
		if sa[i].key != sb[i].key {
			return false
		}
	}
	return true
}

func sortedCopy(elems []element) []element {
	out := make([]element, len(elems))
	copy(out, elems)
	sort.SliceStable(out, func(i, j int) bool {
		return less(out[i], out[j])
	})
	return out
}

// less orders null < bool < number < string < array < object, numbers
// numerically and strings lexically. Composite values order by canonical text.
func less(a, b element) bool {
	ra, rb := typeRank(a.value), typeRank(b.value)
	if ra != rb {
		return ra < rb
	}
	switch av := a.value.(type) {
	case bool:
		return !av && b.value.(bool)
	case number:
		return av.cmp(b.value.(number)) < 0
	case string:
		return av < b.value.(string)
	default:
		return a.key < b.key
	}
}

func typeRank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case number:
		return 2
	case string:
		return 3
	case []any:
		return 4
	default:
		return 5
	}
}
