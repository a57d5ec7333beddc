// Copyright 2020-2021 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package regexast

import (
	"strconv"
	"strings"

	lferrors "github.com/lintflow/lintflow/internal/errors"
)

const defaultNestLimit = 250

// ParserBuilder configures a Parser before use, the way ParserBuilder does
// in the reference implementation this package's grammar is grounded on.
type ParserBuilder struct {
	ignoreWhitespace bool
	nestLimit        uint32
	octal            bool
}

// NewParserBuilder returns a builder with the documented defaults: no
// verbose mode, nest_limit 250, octal escapes disabled.
func NewParserBuilder() *ParserBuilder {
	return &ParserBuilder{nestLimit: defaultNestLimit}
}

func (b *ParserBuilder) NestLimit(limit uint32) *ParserBuilder {
	b.nestLimit = limit
	return b
}

func (b *ParserBuilder) Octal(yes bool) *ParserBuilder {
	b.octal = yes
	return b
}

func (b *ParserBuilder) IgnoreWhitespace(yes bool) *ParserBuilder {
	b.ignoreWhitespace = yes
	return b
}

func (b *ParserBuilder) Build() *Parser {
	return &Parser{
		nestLimit:        b.nestLimit,
		octal:            b.octal,
		initialVerbose:   b.ignoreWhitespace,
	}
}

// groupFrame is one open group or (?flags:...) awaiting its closing paren.
// The parser never recurses to handle nesting: opening a group pushes a
// frame and starts a fresh concat; closing one pops the frame, finalizes
// its concat/branches into a single Ast, and resumes the outer concat.
type groupFrame struct {
	concat          []Ast
	branches        []Ast
	kind            GroupKind
	isRoot          bool
	startPos        Position
	verboseOnEntry  bool
}

// classLevel is one open `[`..`]` nesting level, including the implicit
// levels created by POSIX/bracketed sub-items combined with && -- ~~.
type classLevel struct {
	negated  bool
	startPos Position
	items    []ClassSetItem
	hasOp    bool
	opKind   BinOpKind
	opLHS    ClassSetItem
}

// Parser parses one pattern string into an Ast plus any verbose-mode
// comments, using a group stack and a class stack instead of recursive
// descent so pattern nesting never grows the Go call stack.
type Parser struct {
	nestLimit      uint32
	octal          bool
	initialVerbose bool

	src          []rune
	pos          Position
	captureIndex uint32
	verbose      bool
	comments     []Comment
	groupStack   []groupFrame
	classStack   []classLevel
	captureNames []captureName
}

type captureName struct {
	name string
	span Span
}

// NewParser returns a Parser with the documented defaults.
func NewParser() *Parser { return NewParserBuilder().Build() }

// Parse parses pattern into an Ast. The returned comments are the
// `#`-to-end-of-line comments collected while verbose mode was active, in
// source order.
func (p *Parser) Parse(pattern string) (Ast, []Comment, error) {
	p.src = []rune(pattern)
	p.pos = Position{Offset: 0, Line: 1, Column: 1}
	p.captureIndex = 0
	p.verbose = p.initialVerbose
	p.comments = nil
	p.groupStack = []groupFrame{{isRoot: true, startPos: p.pos}}
	p.classStack = nil
	p.captureNames = nil

	for {
		p.skipWhitespaceAndComments()
		if p.eof() {
			break
		}
		if err := p.parseOne(); err != nil {
			return nil, nil, err
		}
	}

	if len(p.groupStack) != 1 {
		top := p.groupStack[len(p.groupStack)-1]
		return nil, nil, lferrors.ErrGroupUnclosed.New(top.startPos.String())
	}
	ast := p.finishFrame(p.groupStack[0], p.pos)

	tree, err := limitNestDepth(ast, p.nestLimit)
	if err != nil {
		return nil, nil, err
	}
	return tree, p.comments, nil
}

// ---- scanning primitives ----

func (p *Parser) eof() bool { return p.pos.Offset >= len(p.src) }

func (p *Parser) peek() rune {
	if p.eof() {
		return 0
	}
	return p.src[p.pos.Offset]
}

func (p *Parser) peekAt(off int) rune {
	i := p.pos.Offset + off
	if i < 0 || i >= len(p.src) {
		return 0
	}
	return p.src[i]
}

func (p *Parser) advance() rune {
	c := p.src[p.pos.Offset]
	p.pos.Offset++
	if c == '\n' {
		p.pos.Line++
		p.pos.Column = 1
	} else {
		p.pos.Column++
	}
	return c
}

func (p *Parser) skipWhitespaceAndComments() {
	if !p.verbose {
		return
	}
	for !p.eof() {
		c := p.peek()
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			p.advance()
			continue
		}
		if c == '#' {
			start := p.pos
			for !p.eof() && p.peek() != '\n' {
				p.advance()
			}
			p.comments = append(p.comments, Comment{Span: spanTo(start, p.pos), Text: string(p.src[start.Offset:p.pos.Offset])})
			continue
		}
		break
	}
}

func isHexDigit(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isCaptureChar(c rune, first bool) bool {
	if c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') {
		return true
	}
	if first {
		return false
	}
	return (c >= '0' && c <= '9') || c == '.' || c == '[' || c == ']'
}

func isMetaCharacter(c rune) bool {
	return strings.ContainsRune(`.^$*+?()[]{}|\`, c)
}

// ---- top-level dispatch ----

func (p *Parser) curFrame() *groupFrame { return &p.groupStack[len(p.groupStack)-1] }

func (p *Parser) parseOne() error {
	start := p.pos
	c := p.peek()
	switch c {
	case '(':
		return p.parseGroupOpen()
	case ')':
		return p.parseGroupClose()
	case '|':
		p.advance()
		f := p.curFrame()
		f.branches = append(f.branches, p.finishConcat(f.concat, start))
		f.concat = nil
		return nil
	case '[':
		item, err := p.parseClass()
		if err != nil {
			return err
		}
		f := p.curFrame()
		f.concat = append(f.concat, newClass(spanTo(start, p.pos), item))
		return nil
	case '.':
		p.advance()
		p.curFrame().concat = append(p.curFrame().concat, newDot(spanTo(start, p.pos)))
		return nil
	case '^':
		p.advance()
		p.curFrame().concat = append(p.curFrame().concat, newAssertion(spanTo(start, p.pos), AssertStartLine))
		return nil
	case '$':
		p.advance()
		p.curFrame().concat = append(p.curFrame().concat, newAssertion(spanTo(start, p.pos), AssertEndLine))
		return nil
	case '\\':
		p.advance()
		ast, err := p.parseEscape(start)
		if err != nil {
			return err
		}
		p.curFrame().concat = append(p.curFrame().concat, ast)
		return nil
	case '?', '*', '+':
		p.advance()
		return p.parseSimpleRepetition(c, start)
	case '{':
		return p.parseBraceRepetitionOrLiteral(start)
	default:
		p.advance()
		p.curFrame().concat = append(p.curFrame().concat, newLiteral(spanTo(start, p.pos), LiteralVerbatim, c))
		return nil
	}
}

func (p *Parser) finishConcat(items []Ast, fallback Position) Ast {
	switch len(items) {
	case 0:
		return newEmpty(spanTo(fallback, p.pos))
	case 1:
		return items[0]
	default:
		return newConcat(spanTo(items[0].Span().Start, items[len(items)-1].Span().End), items)
	}
}

func (p *Parser) finishFrame(f groupFrame, fallback Position) Ast {
	last := p.finishConcat(f.concat, fallback)
	if len(f.branches) == 0 {
		return last
	}
	branches := append(append([]Ast{}, f.branches...), last)
	return newAlternation(spanTo(branches[0].Span().Start, branches[len(branches)-1].Span().End), branches)
}

// ---- repetition ----

func (p *Parser) popLastForRepetition(start Position) (Ast, error) {
	f := p.curFrame()
	if len(f.concat) == 0 {
		return nil, lferrors.ErrRepetitionMissing.New()
	}
	last := f.concat[len(f.concat)-1]
	f.concat = f.concat[:len(f.concat)-1]
	return last, nil
}

func (p *Parser) parseSimpleRepetition(op rune, start Position) error {
	body, err := p.popLastForRepetition(start)
	if err != nil {
		return err
	}
	greedy := true
	if p.peek() == '?' {
		p.advance()
		greedy = false
	}
	var kind RepetitionKind
	switch op {
	case '?':
		kind = RepZeroOrOne
	case '*':
		kind = RepZeroOrMore
	default:
		kind = RepOneOrMore
	}
	rep := newRepetition(spanTo(body.Span().Start, p.pos), kind, RepetitionRange{}, greedy, body)
	p.curFrame().concat = append(p.curFrame().concat, rep)
	return nil
}

func (p *Parser) parseBraceRepetitionOrLiteral(start Position) error {
	// Only attempt to parse `{...}` as a repetition count when it looks
	// like one; otherwise `{` is just a literal character.
	if !(isDigit(p.peekAt(1)) || p.peekAt(1) == ',') {
		p.advance()
		p.curFrame().concat = append(p.curFrame().concat, newLiteral(spanTo(start, p.pos), LiteralVerbatim, '{'))
		return nil
	}
	p.advance() // consume '{'

	min, haveMin, err := p.parseDecimal()
	if err != nil {
		return err
	}
	if !haveMin {
		return lferrors.ErrRepetitionCountDecimalEmpty.New()
	}

	var rng RepetitionRange
	rng.Min = min
	switch p.peek() {
	case '}':
		p.advance()
		rng.Max, rng.HasMax = min, true
	case ',':
		p.advance()
		if p.peek() == '}' {
			p.advance()
			rng.HasMax = false
		} else {
			max, haveMax, err := p.parseDecimal()
			if err != nil {
				return err
			}
			if !haveMax {
				return lferrors.ErrRepetitionCountDecimalEmpty.New()
			}
			if p.peek() != '}' {
				return lferrors.ErrRepetitionCountUnclosed.New()
			}
			p.advance()
			rng.Max, rng.HasMax = max, true
		}
	default:
		return lferrors.ErrRepetitionCountUnclosed.New()
	}
	if rng.HasMax && rng.Min > rng.Max {
		return lferrors.ErrRepetitionCountInvalid.New(rng.Min, rng.Max)
	}

	greedy := true
	if p.peek() == '?' {
		p.advance()
		greedy = false
	}
	body, err := p.popLastForRepetition(start)
	if err != nil {
		return err
	}
	rep := newRepetition(spanTo(body.Span().Start, p.pos), RepRange, rng, greedy, body)
	p.curFrame().concat = append(p.curFrame().concat, rep)
	return nil
}

func isDigit(c rune) bool { return c >= '0' && c <= '9' }

func (p *Parser) parseDecimal() (uint32, bool, error) {
	start := p.pos
	for isDigit(p.peek()) {
		p.advance()
	}
	if p.pos.Offset == start.Offset {
		return 0, false, nil
	}
	s := string(p.src[start.Offset:p.pos.Offset])
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, true, lferrors.ErrDecimalInvalid.New(s)
	}
	return uint32(v), true, nil
}

// ---- groups ----

func (p *Parser) parseGroupOpen() error {
	start := p.pos
	p.advance() // '('
	kind := GroupKind{Capturing: true}

	if p.peek() == '?' {
		p.advance()
		switch p.peek() {
		case ':':
			p.advance()
			kind = GroupKind{Capturing: false}
		case 'P':
			p.advance()
			if p.peek() != '<' {
				return lferrors.ErrFlagUnrecognized.New("P")
			}
			p.advance()
			name, nameSpan, err := p.parseCaptureName()
			if err != nil {
				return err
			}
			for _, cn := range p.captureNames {
				if cn.name == name {
					return lferrors.ErrGroupNameDuplicate.New(cn.span.Start.String())
				}
			}
			p.captureNames = append(p.captureNames, captureName{name: name, span: nameSpan})
			p.captureIndex++
			kind = GroupKind{Capturing: true, Index: p.captureIndex, Name: name, HasName: true}
		case '=', '!':
			return lferrors.ErrUnsupportedLookAround.New(start.String())
		case '<':
			if p.peekAt(1) == '=' || p.peekAt(1) == '!' {
				return lferrors.ErrUnsupportedLookAround.New(start.String())
			}
			return lferrors.ErrFlagUnrecognized.New("<")
		default:
			flags, terminator, err := p.parseFlags()
			if err != nil {
				return err
			}
			if terminator == ')' {
				p.applyFlags(flags)
				p.curFrame().concat = append(p.curFrame().concat, newFlagsAst(spanTo(start, p.pos), flags))
				return nil
			}
			kind = GroupKind{Capturing: false, Flags: flags}
		}
	} else {
		p.captureIndex++
		kind.Index = p.captureIndex
	}

	verboseOnEntry := p.verbose
	if kind.Flags != nil {
		p.applyFlags(kind.Flags)
	}
	p.groupStack = append(p.groupStack, groupFrame{kind: kind, startPos: start, verboseOnEntry: verboseOnEntry})
	return nil
}

func (p *Parser) parseGroupClose() error {
	start := p.pos
	p.advance() // ')'
	if len(p.groupStack) <= 1 {
		return lferrors.ErrGroupUnopened.New(start.String())
	}
	f := p.groupStack[len(p.groupStack)-1]
	p.groupStack = p.groupStack[:len(p.groupStack)-1]
	body := p.finishFrame(f, f.startPos)
	p.verbose = f.verboseOnEntry
	grp := newGroup(spanTo(f.startPos, p.pos), f.kind, body)
	p.curFrame().concat = append(p.curFrame().concat, grp)
	return nil
}

func (p *Parser) parseCaptureName() (string, Span, error) {
	start := p.pos
	if p.eof() {
		return "", Span{}, lferrors.ErrEscapeUnexpectedEOF.New()
	}
	first := true
	for {
		if p.eof() {
			return "", Span{}, lferrors.ErrGroupUnclosed.New(start.String())
		}
		c := p.peek()
		if c == '>' {
			break
		}
		if !isCaptureChar(c, first) {
			return "", Span{}, lferrors.ErrFlagUnrecognized.New(string(c))
		}
		p.advance()
		first = false
	}
	name := string(p.src[start.Offset:p.pos.Offset])
	span := spanTo(start, p.pos)
	p.advance() // '>'
	return name, span, nil
}

// ---- flags ----

func flagKindOf(c rune) (FlagKind, bool) {
	switch c {
	case 'i':
		return FlagCaseInsensitive, true
	case 'm':
		return FlagMultiLine, true
	case 's':
		return FlagDotMatchesNewline, true
	case 'U':
		return FlagSwapGreed, true
	case 'u':
		return FlagUnicode, true
	case 'x':
		return FlagIgnoreWhitespace, true
	}
	return 0, false
}

// parseFlags reads flag letters (and at most one `-` negation marker) up to
// and including the terminating `:` or `)`, returning which one it was.
func (p *Parser) parseFlags() (*Flags, rune, error) {
	start := p.pos
	flags := &Flags{baseNode: baseNode{span: spanTo(start, start)}}
	negated := false
	negationSeen := false
	sinceNegation := 0

	for {
		if p.eof() {
			return nil, 0, lferrors.ErrFlagUnexpectedEOF.New()
		}
		c := p.peek()
		if c == ':' || c == ')' {
			if negationSeen && sinceNegation == 0 {
				return nil, 0, lferrors.ErrFlagDanglingNegation.New()
			}
			p.advance()
			flags.span = spanTo(start, p.pos)
			return flags, c, nil
		}
		if c == '-' {
			if negationSeen {
				return nil, 0, lferrors.ErrFlagRepeatedNegation.New()
			}
			negationSeen = true
			negated = true
			sinceNegation = 0
			p.advance()
			continue
		}
		kind, ok := flagKindOf(c)
		if !ok {
			return nil, 0, lferrors.ErrFlagUnrecognized.New(string(c))
		}
		itemStart := p.pos
		p.advance()
		for _, it := range flags.Items {
			if it.Kind == kind && it.Negated == negated {
				return nil, 0, lferrors.ErrFlagDuplicate.New(string(c))
			}
		}
		flags.AddItem(FlagItem{Span: spanTo(itemStart, p.pos), Negated: negated, Kind: kind})
		sinceNegation++
	}
}

func (p *Parser) applyFlags(flags *Flags) {
	for _, it := range flags.Items {
		if it.Kind == FlagIgnoreWhitespace {
			p.verbose = !it.Negated
		}
	}
}

// ---- escapes ----

func (p *Parser) parseEscape(start Position) (Ast, error) {
	if p.eof() {
		return nil, lferrors.ErrEscapeUnexpectedEOF.New()
	}
	c := p.advance()
	switch c {
	case 'n':
		return newLiteral(spanTo(start, p.pos), LiteralSpecial, '\n'), nil
	case 'r':
		return newLiteral(spanTo(start, p.pos), LiteralSpecial, '\r'), nil
	case 't':
		return newLiteral(spanTo(start, p.pos), LiteralSpecial, '\t'), nil
	case 'f':
		return newLiteral(spanTo(start, p.pos), LiteralSpecial, '\f'), nil
	case 'v':
		return newLiteral(spanTo(start, p.pos), LiteralSpecial, '\v'), nil
	case 'a':
		return newLiteral(spanTo(start, p.pos), LiteralSpecial, '\a'), nil
	case 'A':
		return newAssertion(spanTo(start, p.pos), AssertStartText), nil
	case 'z':
		return newAssertion(spanTo(start, p.pos), AssertEndText), nil
	case 'b':
		return newAssertion(spanTo(start, p.pos), AssertWordBoundary), nil
	case 'B':
		return newAssertion(spanTo(start, p.pos), AssertNotWordBoundary), nil
	case 'd', 'D', 's', 'S', 'w', 'W':
		return newClass(spanTo(start, p.pos), newClassPerl(spanTo(start, p.pos), byte(c), false)), nil
	case 'p', 'P':
		item, err := p.parseUnicodeClass(start, c == 'P')
		if err != nil {
			return nil, err
		}
		return newClass(spanTo(start, p.pos), item), nil
	case 'x':
		lit, err := p.parseHexEscape(start)
		if err != nil {
			return nil, err
		}
		return lit, nil
	case 'u':
		lit, err := p.parseBraceHexEscape(start, LiteralHexBrace)
		if err != nil {
			return nil, err
		}
		return lit, nil
	case 'U':
		lit, err := p.parseFixedHexEscape(start, 8, LiteralHexFixed)
		if err != nil {
			return nil, err
		}
		return lit, nil
	default:
		if c >= '0' && c <= '9' {
			if !p.octal {
				return nil, lferrors.ErrUnsupportedBackreference.New()
			}
			return p.parseOctalEscape(start, c), nil
		}
		if isMetaCharacter(c) {
			return newLiteral(spanTo(start, p.pos), LiteralPunctuation, c), nil
		}
		return newLiteral(spanTo(start, p.pos), LiteralPunctuation, c), nil
	}
}

func (p *Parser) parseOctalEscape(start Position, first rune) Ast {
	digits := []rune{first}
	for len(digits) < 3 && p.peek() >= '0' && p.peek() <= '7' {
		digits = append(digits, p.advance())
	}
	v, _ := strconv.ParseInt(string(digits), 8, 32)
	return newLiteral(spanTo(start, p.pos), LiteralOctal, rune(v))
}

func (p *Parser) parseHexEscape(start Position) (Ast, error) {
	if p.peek() == '{' {
		return p.parseBraceHexEscape(start, LiteralHexBrace)
	}
	return p.parseFixedHexEscape(start, 2, LiteralHexFixed)
}

func (p *Parser) parseFixedHexEscape(start Position, n int, kind LiteralKind) (Ast, error) {
	digStart := p.pos
	for i := 0; i < n; i++ {
		if p.eof() {
			return nil, lferrors.ErrEscapeUnexpectedEOF.New()
		}
		c := p.peek()
		if !isHexDigit(c) {
			return nil, lferrors.ErrEscapeHexInvalid.New(string(c))
		}
		p.advance()
	}
	s := string(p.src[digStart.Offset:p.pos.Offset])
	v, err := strconv.ParseInt(s, 16, 64)
	if err != nil {
		return nil, lferrors.ErrEscapeHexInvalid.New(s)
	}
	return newLiteral(spanTo(start, p.pos), kind, rune(v)), nil
}

func (p *Parser) parseBraceHexEscape(start Position, kind LiteralKind) (Ast, error) {
	if p.peek() != '{' {
		return nil, lferrors.ErrEscapeHexEmpty.New()
	}
	p.advance()
	digStart := p.pos
	for !p.eof() && p.peek() != '}' {
		if !isHexDigit(p.peek()) {
			return nil, lferrors.ErrEscapeHexInvalid.New(string(p.peek()))
		}
		p.advance()
	}
	if p.eof() {
		return nil, lferrors.ErrEscapeUnexpectedEOF.New()
	}
	if p.pos.Offset == digStart.Offset {
		return nil, lferrors.ErrEscapeHexEmpty.New()
	}
	s := string(p.src[digStart.Offset:p.pos.Offset])
	p.advance() // '}'
	v, err := strconv.ParseInt(s, 16, 64)
	if err != nil {
		return nil, lferrors.ErrEscapeHexInvalid.New(s)
	}
	return newLiteral(spanTo(start, p.pos), kind, rune(v)), nil
}

func (p *Parser) parseUnicodeClass(start Position, negated bool) (ClassSetItem, error) {
	if p.peek() != '{' {
		if p.eof() {
			return nil, lferrors.ErrEscapeUnexpectedEOF.New()
		}
		c := p.advance()
		return newClassUnicode(spanTo(start, p.pos), string(c), "", false, negated), nil
	}
	p.advance()
	bodyStart := p.pos
	for !p.eof() && p.peek() != '}' {
		p.advance()
	}
	if p.eof() {
		return nil, lferrors.ErrEscapeUnexpectedEOF.New()
	}
	body := string(p.src[bodyStart.Offset:p.pos.Offset])
	p.advance() // '}'

	name, value, hasVal := body, "", false
	for _, sep := range []string{"!=", "=", ":"} {
		if idx := strings.Index(body, sep); idx >= 0 {
			name, value, hasVal = body[:idx], body[idx+len(sep):], true
			if sep == "!=" {
				negated = !negated
			}
			break
		}
	}
	return newClassUnicode(spanTo(start, p.pos), name, value, hasVal, negated), nil
}

// ---- character classes ----

func (p *Parser) parseClass() (ClassSetItem, error) {
	start := p.pos
	p.advance() // '['
	p.classStack = []classLevel{{startPos: start}}
	p.parseClassNegation()

	for {
		lvl := &p.classStack[len(p.classStack)-1]
		first := len(lvl.items) == 0 && !lvl.hasOp

		if p.eof() {
			return nil, lferrors.ErrClassUnclosed.New(lvl.startPos.String())
		}

		c := p.peek()
		switch {
		case c == ']' && !first:
			item := p.closeClassLevel()
			if len(p.classStack) == 0 {
				return item, nil
			}
			p.appendClassItem(item)
		case c == ']' && first:
			itemStart := p.pos
			p.advance()
			p.appendClassItem(newClassLiteral(spanTo(itemStart, p.pos), LiteralVerbatim, ']'))
		case c == '-' && first:
			itemStart := p.pos
			p.advance()
			p.appendClassItem(newClassLiteral(spanTo(itemStart, p.pos), LiteralVerbatim, '-'))
		case c == '[' && p.peekAt(1) == ':':
			item, err := p.parsePosixClass()
			if err != nil {
				return nil, err
			}
			p.appendClassItem(item)
		case c == '[':
			itemStart := p.pos
			p.advance()
			p.classStack = append(p.classStack, classLevel{startPos: itemStart})
			p.parseClassNegation()
		default:
			if err := p.parseClassAtomOrRange(); err != nil {
				return nil, err
			}
		}

		if err := p.maybeParseClassOp(); err != nil {
			return nil, err
		}
	}
}

func (p *Parser) parseClassNegation() {
	if p.peek() == '^' {
		lvl := &p.classStack[len(p.classStack)-1]
		lvl.negated = true
		p.advance()
	}
}

func (p *Parser) appendClassItem(item ClassSetItem) {
	lvl := &p.classStack[len(p.classStack)-1]
	lvl.items = append(lvl.items, item)
}

func (p *Parser) closeClassLevel() ClassSetItem {
	p.advance() // ']'
	lvl := p.classStack[len(p.classStack)-1]
	p.classStack = p.classStack[:len(p.classStack)-1]
	return newClassBracketed(spanTo(lvl.startPos, p.pos), lvl.negated, finishClassOperand(lvl))
}

func finishClassOperand(lvl classLevel) ClassSetItem {
	var operand ClassSetItem
	switch len(lvl.items) {
	case 0:
		operand = newClassUnion(lvl.startPos.zeroSpan(), nil)
	case 1:
		operand = lvl.items[0]
	default:
		operand = newClassUnion(spanTo(lvl.items[0].Span().Start, lvl.items[len(lvl.items)-1].Span().End), lvl.items)
	}
	if lvl.hasOp {
		return newClassBinaryOp(spanTo(lvl.opLHS.Span().Start, operand.Span().End), lvl.opKind, lvl.opLHS, operand)
	}
	return operand
}

// maybeParseClassOp checks for a `&&`, `--` or `~~` operator directly after
// the item just appended; per the grammar only one such operator may chain
// at a given nesting level before the next operand.
func (p *Parser) maybeParseClassOp() error {
	if p.eof() || len(p.classStack) == 0 {
		return nil
	}
	c, c2 := p.peek(), p.peekAt(1)
	var kind BinOpKind
	switch {
	case c == '&' && c2 == '&':
		kind = OpIntersection
	case c == '-' && c2 == '-':
		kind = OpDifference
	case c == '~' && c2 == '~':
		kind = OpSymmetricDifference
	default:
		return nil
	}
	p.advance()
	p.advance()
	lvl := &p.classStack[len(p.classStack)-1]
	operand := finishClassOperand(classLevel{items: lvl.items, hasOp: lvl.hasOp, opKind: lvl.opKind, opLHS: lvl.opLHS, startPos: lvl.startPos})
	lvl.opLHS = operand
	lvl.opKind = kind
	lvl.hasOp = true
	lvl.items = nil
	return nil
}

func (p *Parser) parsePosixClass() (ClassSetItem, error) {
	start := p.pos
	p.advance() // '['
	p.advance() // ':'
	negated := false
	if p.peek() == '^' {
		negated = true
		p.advance()
	}
	nameStart := p.pos
	for !p.eof() && p.peek() != ':' {
		p.advance()
	}
	name := string(p.src[nameStart.Offset:p.pos.Offset])
	if p.eof() || p.peek() != ':' || p.peekAt(1) != ']' {
		return nil, lferrors.ErrClassEscapeInvalid.New()
	}
	p.advance()
	p.advance()
	return newClassAscii(spanTo(start, p.pos), name, negated), nil
}

func (p *Parser) parseClassAtomOrRange() error {
	start := p.pos
	lit, err := p.parseClassLiteralAtom()
	if err != nil {
		return err
	}
	if p.peek() == '-' && p.peekAt(1) != ']' && !(p.peekAt(1) == '&' && p.peekAt(2) == '&') {
		p.advance() // '-'
		hiStart := p.pos
		hiLit, err := p.parseClassLiteralAtom()
		if err != nil {
			return err
		}
		loChar, loOk := lit.(ClassLiteral)
		hiChar, hiOk := hiLit.(ClassLiteral)
		if !loOk {
			return lferrors.ErrClassRangeLiteral.New(start.String())
		}
		if !hiOk {
			return lferrors.ErrClassRangeLiteral.New(hiStart.String())
		}
		if loChar.Char > hiChar.Char {
			return lferrors.ErrClassRangeInvalid.New(int(loChar.Char), int(hiChar.Char))
		}
		p.appendClassItem(newClassRange(spanTo(start, p.pos), loChar.Char, hiChar.Char))
		return nil
	}
	p.appendClassItem(lit)
	return nil
}

func (p *Parser) parseClassLiteralAtom() (ClassSetItem, error) {
	start := p.pos
	if p.peek() == '\\' {
		p.advance()
		if p.eof() {
			return nil, lferrors.ErrEscapeUnexpectedEOF.New()
		}
		ast, err := p.parseEscape(start)
		if err != nil {
			return nil, err
		}
		switch v := ast.(type) {
		case Literal:
			return newClassLiteral(v.Span(), v.Kind, v.Char), nil
		case Class:
			return v.Item, nil
		default:
			return nil, lferrors.ErrClassEscapeInvalid.New()
		}
	}
	c := p.advance()
	return newClassLiteral(spanTo(start, p.pos), LiteralVerbatim, c), nil
}

func (pos Position) zeroSpan() Span { return Span{Start: pos, End: pos} }
