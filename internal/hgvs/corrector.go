package hgvs

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

var (
	// ErrInvalidRefType is returned for a ref-type argument outside
	// {none, coding, genomic}. This is a hard input-validation error.
	ErrInvalidRefType = errors.New("ref type must be empty, c or g")

	// ErrCannotCorrect signals that the variant name is missing information
	// that cannot be repaired (no transcript, no coordinate tag).
	ErrCannotCorrect = errors.New("variant cannot be corrected")
)

var (
	coordTagRe  = regexp.MustCompile(`[cg]\.`)
	ambiguousRe = regexp.MustCompile(`([ACGT])>([ACGT])/([ACGT])`)
	parenSubRe  = regexp.MustCompile(`([0-9]+)\(([ACGT])>([ACGT])\)`)
	multiSubRe  = regexp.MustCompile(`(-?[0-9]+)([ACGT]+)>([ACGT]+)`)
)

// Corrector repairs common malformed HGVS spellings into well-formed names.
// Each rule is independently idempotent, so corrected output passes through
// unchanged on a second run.
type Corrector struct {
	logger *zap.Logger
}

// NewCorrector creates a corrector with a no-op logger.
func NewCorrector() *Corrector {
	return &Corrector{logger: zap.NewNop()}
}

// SetLogger sets the logger for correction warnings.
func (c *Corrector) SetLogger(l *zap.Logger) {
	c.logger = l
}

// Correct attempts to repair a malformed variant name. transcript and
// refType fill in an authority part or coordinate tag the name lacks;
// refType is restricted to empty, CoordCoding or CoordGenomic.
//
// The result normally holds a single corrected name. It holds exactly two
// when the input declared an ambiguous call with "/" (the only case that
// fans out). A nil slice with ErrCannotCorrect means the name is missing
// information that cannot be supplied.
func (c *Corrector) Correct(variant, transcript string, refType CoordType) ([]string, error) {
	if refType != "" && refType != CoordCoding && refType != CoordGenomic {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidRefType, refType)
	}

	name := strings.TrimSpace(variant)

	// Rule 1+2: the name needs an authority separator and a coordinate tag.
	if !strings.Contains(name, ":") {
		if transcript == "" {
			c.logger.Warn("variant lacks a transcript part and none was supplied",
				zap.String("variant", name))
			return nil, fmt.Errorf("%w: no transcript for %q", ErrCannotCorrect, name)
		}
		if coordTagRe.MatchString(name) {
			name = transcript + ":" + name
		} else {
			if refType == "" {
				c.logger.Warn("variant lacks a coordinate tag and none was supplied",
					zap.String("variant", name))
				return nil, fmt.Errorf("%w: no coordinate tag for %q", ErrCannotCorrect, name)
			}
			name = transcript + ":" + string(refType) + "." + name
		}
	}

	// Rule 3: "->" spelled for the substitution operator.
	if strings.Contains(name, "->") {
		c.logger.Warn("substituting -> with >", zap.String("variant", name))
		name = strings.ReplaceAll(name, "->", ">")
	}

	// Rule 4: "X>Y/Z" declares two possible substitutions. Split and correct
	// each independently; this is the only rule that returns a list.
	if ambiguousRe.MatchString(name) {
		c.logger.Warn("ambiguous call found, splitting into two variants",
			zap.String("variant", name))
		first := ambiguousRe.ReplaceAllString(name, "$1>$2")
		second := ambiguousRe.ReplaceAllString(name, "$1>$3")

		out := make([]string, 0, 2)
		for _, n := range []string{first, second} {
			corrected, err := c.Correct(n, "", "")
			if err != nil {
				return nil, err
			}
			out = append(out, corrected...)
		}
		return out, nil
	}

	// Rule 5: redundant parentheses around a simple substitution.
	if parenSubRe.MatchString(name) {
		c.logger.Warn("removing parentheses around substitution",
			zap.String("variant", name))
		name = parenSubRe.ReplaceAllString(name, "$1$2>$3")
	}

	// Rule 6: a substitution with a multi-base reference or alternate is
	// illegal; rewrite it as a delins over the reference span.
	if m := multiSubRe.FindStringSubmatch(name); m != nil && (len(m[2]) > 1 || len(m[3]) > 1) {
		c.logger.Warn("rewriting multi-base substitution as delins",
			zap.String("variant", name))
		start, _ := strconv.ParseInt(m[1], 10, 64)
		end := start + int64(len(m[2])) - 1
		var repl string
		if end == start {
			repl = fmt.Sprintf("%ddelins%s", start, m[3])
		} else {
			repl = fmt.Sprintf("%d_%ddelins%s", start, end, m[3])
		}
		name = strings.Replace(name, m[0], repl, 1)
	}

	return []string{name}, nil
}
