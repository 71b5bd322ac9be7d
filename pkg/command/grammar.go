package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrParse is matched by every error returned from Parse.
var ErrParse = errors.New("failed to parse")

// ParseError reports a line that does not match the grammar. Offset is the
// byte offset of the furthest point any alternative reached before failing.
type ParseError struct {
	Line   string
	Offset int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: unexpected input at column %d", ErrParse, e.Offset+1)
}

// Unwrap returns ErrParse.
func (e *ParseError) Unwrap() error { return ErrParse }

// Parse parses one line into an Op. A blank line yields a KindEmpty op.
//
// Alternatives are tried in the order set, del, get, exit, help and the first
// one that consumes the whole line wins.
func Parse(line string) (Op, error) {
	p := &parser{src: line}

	alternatives := []func() (Op, bool){
		p.setCommand,
		p.delCommand,
		p.getCommand,
		p.exitCommand,
		p.helpCommand,
	}
	for _, alt := range alternatives {
		p.pos = 0
		op, ok := alt()
		if ok && p.eof() {
			return op, nil
		}
		p.note()
	}

	p.pos = 0
	p.spaces()
	if p.eof() {
		return Op{Kind: KindEmpty}, nil
	}
	p.note()
	return Op{}, &ParseError{Line: line, Offset: p.far}
}

// ParseMetric parses a bare metric expression such as name[key="value"].
func ParseMetric(s string) (Metric, error) {
	p := &parser{src: s}
	m, ok := p.metric()
	if !ok || !p.eof() {
		p.note()
		return Metric{}, &ParseError{Line: s, Offset: p.far}
	}
	return m, nil
}

type parser struct {
	src string
	pos int
	far int
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

// note records the current position as a failure point.
func (p *parser) note() {
	if p.pos > p.far {
		p.far = p.pos
	}
}

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) literal(s string) bool {
	if strings.HasPrefix(p.src[p.pos:], s) {
		p.pos += len(s)
		return true
	}
	p.note()
	return false
}

func (p *parser) char(c byte) bool {
	if p.peek() == c && !p.eof() {
		p.pos++
		return true
	}
	p.note()
	return false
}

// spaces consumes zero or more whitespace characters and reports how many.
func (p *parser) spaces() int {
	start := p.pos
	for !p.eof() && isSpace(p.src[p.pos]) {
		p.pos++
	}
	return p.pos - start
}

func (p *parser) spaces1() bool {
	if p.spaces() == 0 {
		p.note()
		return false
	}
	return true
}

func (p *parser) ident() (string, bool) {
	start := p.pos
	for !p.eof() && isAlpha(p.src[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		p.note()
		return "", false
	}
	return p.src[start:p.pos], true
}

func (p *parser) quoted() (string, bool) {
	if !p.char('"') {
		return "", false
	}

	var b strings.Builder
	for !p.eof() {
		c := p.src[p.pos]
		switch c {
		case '"':
			p.pos++
			return b.String(), true
		case '\\':
			p.pos++
			next := p.peek()
			if p.eof() || (next != '"' && next != '\\') {
				p.note()
				return "", false
			}
			b.WriteByte(next)
			p.pos++
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	p.note()
	return "", false
}

func (p *parser) tag() (key, value string, ok bool) {
	if key, ok = p.ident(); !ok {
		return "", "", false
	}
	p.spaces()
	if !p.char('=') {
		return "", "", false
	}
	p.spaces()
	if value, ok = p.quoted(); !ok {
		return "", "", false
	}
	return key, value, true
}

// tags parses a comma separated list of key="value" pairs, possibly empty.
// On a failed element the position is left after the last complete pair.
func (p *parser) tags() map[string]string {
	tags := make(map[string]string)
	save := p.pos
	key, value, ok := p.tag()
	if !ok {
		p.pos = save
		return tags
	}
	tags[key] = value

	for {
		save = p.pos
		if !p.char(',') {
			return tags
		}
		if key, value, ok = p.tag(); !ok {
			p.pos = save
			return tags
		}
		tags[key] = value
	}
}

func (p *parser) metric() (Metric, bool) {
	name, ok := p.ident()
	if !ok {
		return Metric{}, false
	}

	m := Metric{Name: name, Tags: map[string]string{}}
	save := p.pos
	if p.char('[') {
		tags := p.tags()
		if p.char(']') {
			m.Tags = tags
			return m, true
		}
	}
	p.pos = save
	return m, true
}

func (p *parser) number() (float64, bool) {
	start := p.pos
	if c := p.peek(); c == '+' || c == '-' {
		p.pos++
	}

	for _, word := range []string{"infinity", "inf", "nan"} {
		if len(p.src)-p.pos >= len(word) && strings.EqualFold(p.src[p.pos:p.pos+len(word)], word) {
			p.pos += len(word)
			return p.convert(start)
		}
	}

	digits := p.digits()
	if p.peek() == '.' && !p.eof() {
		p.pos++
		digits += p.digits()
	}
	if digits == 0 {
		p.pos = start
		p.note()
		return 0, false
	}

	if c := p.peek(); (c == 'e' || c == 'E') && !p.eof() {
		save := p.pos
		p.pos++
		if c := p.peek(); c == '+' || c == '-' {
			p.pos++
		}
		if p.digits() == 0 {
			p.pos = save
		}
	}
	return p.convert(start)
}

func (p *parser) convert(start int) (float64, bool) {
	v, err := strconv.ParseFloat(p.src[start:p.pos], 64)
	if err != nil {
		p.note()
		p.pos = start
		return 0, false
	}
	return v, true
}

func (p *parser) digits() int {
	start := p.pos
	for !p.eof() && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	return p.pos - start
}

func (p *parser) setCommand() (Op, bool) {
	if !p.literal("set") || !p.spaces1() {
		return Op{}, false
	}
	m, ok := p.metric()
	if !ok {
		return Op{}, false
	}
	p.spaces()
	if !p.char('=') {
		return Op{}, false
	}
	p.spaces()
	v, ok := p.number()
	if !ok {
		return Op{}, false
	}
	return Set(m, v), true
}

func (p *parser) metricCommand(keyword string, build func(Metric) Op) (Op, bool) {
	if !p.literal(keyword) || !p.spaces1() {
		return Op{}, false
	}
	m, ok := p.metric()
	if !ok {
		return Op{}, false
	}
	return build(m), true
}

func (p *parser) delCommand() (Op, bool) { return p.metricCommand("del", Del) }

func (p *parser) getCommand() (Op, bool) { return p.metricCommand("get", Get) }

func (p *parser) exitCommand() (Op, bool) {
	if p.literal("exit") || p.literal("quit") {
		return Op{Kind: KindExit}, true
	}
	return Op{}, false
}

func (p *parser) helpCommand() (Op, bool) {
	if p.literal("help") {
		return Op{Kind: KindHelp}, true
	}
	return Op{}, false
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
