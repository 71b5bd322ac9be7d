package command

import (
	"sort"
	"strings"
)

// Kind identifies which operation a parsed line represents.
type Kind int

// Operation kinds. KindEmpty is the zero value and stands for a blank line.
const (
	KindEmpty Kind = iota
	KindSet
	KindGet
	KindDel
	KindExit
	KindHelp
)

// String returns the command keyword for the kind.
func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindSet:
		return "set"
	case KindGet:
		return "get"
	case KindDel:
		return "del"
	case KindExit:
		return "exit"
	case KindHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Metric identifies a gauge series: a metric name narrowed by a tag set.
type Metric struct {
	Name string
	Tags map[string]string
}

// Keys returns the tag keys in ascending order.
func (m Metric) Keys() []string {
	keys := make([]string, 0, len(m.Tags))
	for k := range m.Tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String renders the metric in the form accepted by the parser, with tag keys
// sorted and tag values escaped.
func (m Metric) String() string {
	if len(m.Tags) == 0 {
		return m.Name
	}

	var b strings.Builder
	b.WriteString(m.Name)
	b.WriteByte('[')
	for i, k := range m.Keys() {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteString(`="`)
		b.WriteString(escapeValue(m.Tags[k]))
		b.WriteByte('"')
	}
	b.WriteByte(']')
	return b.String()
}

// Op is a parsed command line. Metric is set for KindSet, KindGet and KindDel;
// Value only for KindSet.
type Op struct {
	Kind   Kind
	Metric Metric
	Value  float64
}

// Set returns a set operation.
func Set(m Metric, value float64) Op {
	return Op{Kind: KindSet, Metric: m, Value: value}
}

// Get returns a get operation.
func Get(m Metric) Op {
	return Op{Kind: KindGet, Metric: m}
}

// Del returns a del operation.
func Del(m Metric) Op {
	return Op{Kind: KindDel, Metric: m}
}

func escapeValue(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}
