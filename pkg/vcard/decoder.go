package vcard

import (
	"io"
	"regexp"
	"strings"

	"github.com/cardsync/cardsync/pkg/errors"
	"github.com/cardsync/cardsync/pkg/logging"
)

// Card boundary markers. Matched case-insensitively against the whole
// logical line.
const (
	beginMarker = "BEGIN:VCARD"
	endMarker   = "END:VCARD"
)

// labelProperty is the vendor extension that supplies a human-readable
// label for an item group (e.g. item1.X-ABLABEL:Mobile).
const labelProperty = "X-ABLABEL"

// Label text to type token mapping for resolved item-group labels.
var (
	mobileLabel = regexp.MustCompile(`(?i)cell|mobile`)
	workLabel   = regexp.MustCompile(`(?i)work|business`)
	homeLabel   = regexp.MustCompile(`(?i)home|personal`)
)

// Decoder tokenizes a vCard document into Cards.
//
// A document may contain many concatenated cards. Malformed cards are
// skipped with a warning and recorded in Skipped; they never abort
// processing of sibling cards.
type Decoder struct {
	r        io.Reader
	filename string
	skipped  []error
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithFilename sets the file name used in parse errors and warnings.
func WithFilename(name string) Option {
	return func(d *Decoder) {
		d.filename = name
	}
}

// NewDecoder creates a new Decoder reading from r.
func NewDecoder(r io.Reader, opts ...Option) *Decoder {
	d := &Decoder{r: r}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Skipped returns the per-card errors for cards dropped during the
// last Decode call.
func (d *Decoder) Skipped() []error {
	return d.skipped
}

// logicalLine is one unfolded line with the physical line number of
// its first physical line.
type logicalLine struct {
	text string
	num  int
}

// Decode tokenizes the whole document and returns every well-formed
// card in source order. The returned error reports read failures only;
// malformed cards are skipped and surfaced via Skipped.
func (d *Decoder) Decode() ([]*Card, error) {
	raw, err := io.ReadAll(d.r)
	if err != nil {
		return nil, errors.WrapIO("read", d.filename, err)
	}

	d.skipped = nil
	lines := unfold(normalizeNewlines(string(raw)))

	var cards []*Card
	var card *Card
	var props []Property
	var cardLine int
	var cardErr error

	flush := func() {
		if cardErr != nil {
			d.skip(cardErr)
		} else {
			card.Properties = resolveLabels(props)
			cards = append(cards, card)
		}
		card, props, cardErr = nil, nil, nil
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimRight(line.text, " \t")

		switch {
		case strings.EqualFold(trimmed, beginMarker):
			if card != nil {
				// Begin inside an open card: the previous card never
				// terminated. Drop it and start capturing the new one,
				// keeping the parse error if it had already failed.
				if cardErr != nil {
					d.skip(cardErr)
				} else {
					d.skip(errors.NewParseError("vcard", d.filename, cardLine, "unterminated card"))
				}
			}
			card = &Card{}
			props = nil
			cardErr = nil
			cardLine = line.num

		case strings.EqualFold(trimmed, endMarker):
			if card == nil {
				continue // stray END outside a card
			}
			flush()

		case card == nil:
			continue // content outside card boundaries

		case cardErr != nil:
			continue // card already failed; scan to its END marker

		case strings.TrimSpace(trimmed) == "":
			continue

		default:
			prop, adv, err := d.parseProperty(lines, i)
			if err != nil {
				cardErr = err
				continue
			}
			i += adv
			if prop.Name == "VERSION" {
				card.Version = strings.TrimSpace(prop.Value)
				continue
			}
			props = append(props, prop)
		}
	}

	if card != nil {
		if cardErr != nil {
			d.skip(cardErr)
		} else {
			d.skip(errors.NewParseError("vcard", d.filename, cardLine, "unterminated card"))
		}
	}

	return cards, nil
}

// skip records and logs a dropped card.
func (d *Decoder) skip(err error) {
	d.skipped = append(d.skipped, err)
	logging.Warn().
		Str("file", d.filename).
		Err(err).
		Msg("Skipping malformed card")
}

// parseProperty parses one property starting at lines[i]. It returns
// the property and how many extra logical lines were consumed by
// quoted-printable soft line breaks.
func (d *Decoder) parseProperty(lines []logicalLine, i int) (Property, int, error) {
	line := lines[i]

	head, value, ok := splitUnescaped(line.text, ':')
	if !ok {
		return Property{}, 0, errors.NewParseError("vcard", d.filename, line.num, "property line has no colon")
	}

	prop := Property{Params: Params{}}
	segments := splitHead(head)
	name := strings.TrimSpace(segments[0])
	if dot := strings.IndexByte(name, '.'); dot >= 0 {
		prop.Group = name[:dot]
		name = name[dot+1:]
	}
	if name == "" || !validName(name) {
		return Property{}, 0, errors.NewParseError("vcard", d.filename, line.num, "invalid property name "+segments[0])
	}
	prop.Name = strings.ToUpper(name)

	for _, seg := range segments[1:] {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		if eq := strings.IndexByte(seg, '='); eq >= 0 {
			prop.Params.Add(seg[:eq], strings.Trim(seg[eq+1:], `"`))
		} else {
			prop.Params.Add(seg, "") // bare flag token
		}
	}

	adv := 0
	if isQuotedPrintable(prop.Params) {
		// A QP value ending in = continues on the next logical line
		// (a soft line break, distinct from whitespace folding).
		for strings.HasSuffix(value, "=") && i+adv+1 < len(lines) {
			next := lines[i+adv+1].text
			if strings.EqualFold(strings.TrimSpace(next), endMarker) {
				break
			}
			value = value[:len(value)-1] + next
			adv++
		}
		value = decodeQuotedPrintable(value)
	}

	prop.Value = value
	return prop, adv, nil
}

// isQuotedPrintable reports whether the parameters declare a
// quoted-printable transfer encoding (2.1 style, keyed or bare).
func isQuotedPrintable(params Params) bool {
	if strings.EqualFold(params.Get("ENCODING"), "QUOTED-PRINTABLE") {
		return true
	}
	return params.Has("QUOTED-PRINTABLE")
}

// decodeQuotedPrintable decodes =XX hex escapes. Sequences that are
// not valid escapes pass through verbatim.
func decodeQuotedPrintable(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '=' && i+2 < len(s) {
			hi, okHi := unhex(s[i+1])
			lo, okLo := unhex(s[i+2])
			if okHi && okLo {
				b.WriteByte(hi<<4 | lo)
				i += 2
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func unhex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	}
	return 0, false
}

// resolveLabels performs the two-pass item-group label resolution.
// Label lines may appear before or after the property they describe,
// so all labels are collected first, then attached.
func resolveLabels(props []Property) []Property {
	var labels map[string]string
	for _, p := range props {
		if p.Name == labelProperty && p.Group != "" {
			if labels == nil {
				labels = make(map[string]string)
			}
			labels[p.Group] = Unescape(p.Value)
		}
	}

	out := make([]Property, 0, len(props))
	for _, p := range props {
		if p.Name == labelProperty && p.Group != "" {
			continue // consumed by the group it labels
		}
		if label, ok := labels[p.Group]; ok && p.Group != "" {
			switch {
			case mobileLabel.MatchString(label):
				p.Params.Add("TYPE", "CELL")
			case workLabel.MatchString(label):
				p.Params.Add("TYPE", "WORK")
			case homeLabel.MatchString(label):
				p.Params.Add("TYPE", "HOME")
			default:
				p.Params.Add("LABEL", label)
			}
		}
		out = append(out, p)
	}
	return out
}

// normalizeNewlines maps CRLF and bare CR to LF before scanning.
func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// unfold joins continuation lines (physical lines beginning with a
// space or tab) onto their previous logical line with the leading
// whitespace byte stripped. Unfolding happens before any property
// parsing: a fold may split a parameter or value mid-token.
func unfold(s string) []logicalLine {
	physical := strings.Split(s, "\n")
	lines := make([]logicalLine, 0, len(physical))
	for num, p := range physical {
		if len(p) > 0 && (p[0] == ' ' || p[0] == '\t') && len(lines) > 0 {
			lines[len(lines)-1].text += p[1:]
			continue
		}
		if p == "" {
			continue
		}
		lines = append(lines, logicalLine{text: p, num: num + 1})
	}
	return lines
}

// splitUnescaped splits s at the first occurrence of sep that is not
// preceded by a backslash.
func splitUnescaped(s string, sep byte) (string, string, bool) {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case sep:
			return s[:i], s[i+1:], true
		}
	}
	return s, "", false
}

// splitHead splits the pre-colon head on semicolons, honoring quoted
// parameter values.
func splitHead(head string) []string {
	var segments []string
	var b strings.Builder
	inQuote := false
	for i := 0; i < len(head); i++ {
		c := head[i]
		switch {
		case c == '"':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == ';' && !inQuote:
			segments = append(segments, b.String())
			b.Reset()
		default:
			b.WriteByte(c)
		}
	}
	segments = append(segments, b.String())
	return segments
}

// validName reports whether a property name uses the allowed
// alphanumeric-plus-dash alphabet.
func validName(name string) bool {
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}
