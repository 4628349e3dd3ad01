package hgvs

import (
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Parser is the capability interface for strict HGVS parsing. Implementations
// return (nil, false) on any malformed input and never panic.
type Parser interface {
	Parse(name string) (*Variant, bool)
}

// nameRe splits a variant name into accession, coordinate tag and the
// position/edit payload. The payload grammar is checked separately per edit.
var nameRe = regexp.MustCompile(`^([A-Z][A-Z0-9]*_[0-9]+(?:\.[0-9]+)?):([cgp])\.(.+)$`)

var (
	subRe    = regexp.MustCompile(`^(-?[0-9]+)([ACGT])>([ACGT])$`)
	delRe    = regexp.MustCompile(`^(-?[0-9]+)(?:_(-?[0-9]+))?del([ACGT]*)$`)
	insRe    = regexp.MustCompile(`^(-?[0-9]+)_(-?[0-9]+)ins([ACGT]+)$`)
	delinsRe = regexp.MustCompile(`^(-?[0-9]+)(?:_(-?[0-9]+))?delins([ACGT]+)$`)
	dupRe    = regexp.MustCompile(`^(-?[0-9]+)(?:_(-?[0-9]+))?dup([ACGT]*)$`)
)

// StrictParser parses well-formed HGVS names against a fixed grammar.
// Parse failures are logged as warnings and reported via the boolean return;
// they are never raised to the caller.
type StrictParser struct {
	logger *zap.Logger
}

// NewStrictParser creates a parser with a no-op logger.
func NewStrictParser() *StrictParser {
	return &StrictParser{logger: zap.NewNop()}
}

// SetLogger sets the logger for parse warnings.
func (p *StrictParser) SetLogger(l *zap.Logger) {
	p.logger = l
}

// Parse parses a variant name. The second return value is false when the
// name does not conform to the grammar.
func (p *StrictParser) Parse(name string) (*Variant, bool) {
	name = strings.TrimSpace(name)

	m := nameRe.FindStringSubmatch(name)
	if m == nil {
		p.logger.Warn("could not parse variant", zap.String("variant", name))
		return nil, false
	}

	v := &Variant{
		Accession: m[1],
		Coord:     CoordType(m[2]),
	}

	payload := m[3]
	switch {
	case subRe.MatchString(payload):
		sm := subRe.FindStringSubmatch(payload)
		v.Start = parseInt(sm[1])
		v.End = v.Start
		v.Edit = EditSubstitution
		v.Ref = sm[2]
		v.Alt = sm[3]
	case delinsRe.MatchString(payload):
		// delins before del: the del grammar would otherwise swallow the prefix.
		sm := delinsRe.FindStringSubmatch(payload)
		v.Start = parseInt(sm[1])
		v.End = v.Start
		if sm[2] != "" {
			v.End = parseInt(sm[2])
		}
		v.Edit = EditDelIns
		v.Alt = sm[3]
	case delRe.MatchString(payload):
		sm := delRe.FindStringSubmatch(payload)
		v.Start = parseInt(sm[1])
		v.End = v.Start
		if sm[2] != "" {
			v.End = parseInt(sm[2])
		}
		v.Edit = EditDeletion
		v.Ref = sm[3]
	case insRe.MatchString(payload):
		sm := insRe.FindStringSubmatch(payload)
		v.Start = parseInt(sm[1])
		v.End = parseInt(sm[2])
		v.Edit = EditInsertion
		v.Alt = sm[3]
	case dupRe.MatchString(payload):
		sm := dupRe.FindStringSubmatch(payload)
		v.Start = parseInt(sm[1])
		v.End = v.Start
		if sm[2] != "" {
			v.End = parseInt(sm[2])
		}
		v.Edit = EditDuplication
		v.Ref = sm[3]
	default:
		p.logger.Warn("could not parse variant edit",
			zap.String("variant", name),
			zap.String("edit", payload))
		return nil, false
	}

	if v.End < v.Start {
		p.logger.Warn("variant range end precedes start", zap.String("variant", name))
		return nil, false
	}

	return v, true
}

func parseInt(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

// rsRe matches dbSNP-style rs identifiers.
var rsRe = regexp.MustCompile(`^rs[0-9]+$`)

// IsRSID reports whether the input names a dbSNP rs identifier rather than
// an HGVS variant.
func IsRSID(name string) bool {
	return rsRe.MatchString(strings.TrimSpace(name))
}
