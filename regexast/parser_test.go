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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lferrors "github.com/lintflow/lintflow/internal/errors"
)

func TestRepetitionCountInvalid(t *testing.T) {
	_, _, err := NewParser().Parse("a{2,1}")
	require.Error(t, err)
	assert.True(t, lferrors.ErrRepetitionCountInvalid.Is(err))
}

func TestGroupNameDuplicateReportsOriginalSpan(t *testing.T) {
	_, _, err := NewParser().Parse("(?P<n>x)(?P<n>y)")
	require.Error(t, err)
	assert.True(t, lferrors.ErrGroupNameDuplicate.Is(err))
	// The first "n" starts at byte offset 4, line 1 column 5.
	assert.Contains(t, err.Error(), "1:5")
}

func TestAsciiClassWithinBracketed(t *testing.T) {
	tree, _, err := NewParser().Parse("[[:alpha:]]")
	require.NoError(t, err)
	cls, ok := tree.(Class)
	require.True(t, ok)
	bracketed, ok := cls.Item.(ClassBracketed)
	require.True(t, ok)
	assert.False(t, bracketed.Negated)
	ascii, ok := bracketed.Item.(ClassAscii)
	require.True(t, ok)
	assert.Equal(t, "alpha", ascii.Name)
	assert.False(t, ascii.Negated)
}

func TestOctalBackreferenceDisabledByDefault(t *testing.T) {
	_, _, err := NewParser().Parse(`\0`)
	require.Error(t, err)
	assert.True(t, lferrors.ErrUnsupportedBackreference.Is(err))
}

func TestOctalEscapeWhenEnabled(t *testing.T) {
	tree, _, err := NewParserBuilder().Octal(true).Build().Parse(`\0`)
	require.NoError(t, err)
	lit, ok := tree.(Literal)
	require.True(t, ok)
	assert.Equal(t, rune(0), lit.Char)
	assert.Equal(t, LiteralOctal, lit.Kind)
}

func TestUnclosedGroupPointsAtOpeningParen(t *testing.T) {
	_, _, err := NewParser().Parse("(a")
	require.Error(t, err)
	assert.True(t, lferrors.ErrGroupUnclosed.Is(err))
	assert.Contains(t, err.Error(), "1:1")
}

func TestNestLimitExceededByDeeplyNestedGroups(t *testing.T) {
	pattern := strings.Repeat("(", 1000) + "a" + strings.Repeat(")", 1000)
	_, _, err := NewParser().Parse(pattern)
	require.Error(t, err)
	assert.True(t, lferrors.ErrNestLimitExceeded.Is(err))
}

func TestNestLimitConfigurable(t *testing.T) {
	pattern := strings.Repeat("(", 10) + "a" + strings.Repeat(")", 10)
	_, _, err := NewParserBuilder().NestLimit(5).Build().Parse(pattern)
	require.Error(t, err)
	assert.True(t, lferrors.ErrNestLimitExceeded.Is(err))

	_, _, err = NewParserBuilder().NestLimit(20).Build().Parse(pattern)
	require.NoError(t, err)
}

func TestSimpleConcatAndAlternation(t *testing.T) {
	tree, _, err := NewParser().Parse("ab|c")
	require.NoError(t, err)
	alt, ok := tree.(Alternation)
	require.True(t, ok)
	require.Len(t, alt.Asts, 2)
	concat, ok := alt.Asts[0].(Concat)
	require.True(t, ok)
	assert.Len(t, concat.Asts, 2)
	lit, ok := alt.Asts[1].(Literal)
	require.True(t, ok)
	assert.Equal(t, 'c', lit.Char)
}

func TestRepetitionOperators(t *testing.T) {
	tree, _, err := NewParser().Parse("a*?")
	require.NoError(t, err)
	rep, ok := tree.(Repetition)
	require.True(t, ok)
	assert.Equal(t, RepZeroOrMore, rep.Kind)
	assert.False(t, rep.Greedy)
}

func TestRepetitionMissingOperand(t *testing.T) {
	_, _, err := NewParser().Parse("*")
	require.Error(t, err)
	assert.True(t, lferrors.ErrRepetitionMissing.Is(err))
}

func TestCharacterClassRange(t *testing.T) {
	tree, _, err := NewParser().Parse("[a-z0-9_]")
	require.NoError(t, err)
	cls := tree.(Class)
	bracketed := cls.Item.(ClassBracketed)
	union, ok := bracketed.Item.(ClassUnion)
	require.True(t, ok)
	require.Len(t, union.Items, 3)
	rng, ok := union.Items[0].(ClassRange)
	require.True(t, ok)
	assert.Equal(t, 'a', rng.Lo)
	assert.Equal(t, 'z', rng.Hi)
}

func TestCharacterClassLiteralDashAndBracketAsFirstChar(t *testing.T) {
	tree, _, err := NewParser().Parse("[]a-]")
	require.NoError(t, err)
	cls := tree.(Class)
	bracketed := cls.Item.(ClassBracketed)
	union := bracketed.Item.(ClassUnion)
	require.Len(t, union.Items, 3)
	first, ok := union.Items[0].(ClassLiteral)
	require.True(t, ok)
	assert.Equal(t, ']', first.Char)
}

func TestClassRangeInvalidOrder(t *testing.T) {
	_, _, err := NewParser().Parse("[z-a]")
	require.Error(t, err)
	assert.True(t, lferrors.ErrClassRangeInvalid.Is(err))
}

func TestClassBinaryOperators(t *testing.T) {
	tree, _, err := NewParser().Parse("[[a-z]&&[^aeiou]]")
	require.NoError(t, err)
	cls := tree.(Class)
	outer := cls.Item.(ClassBracketed)
	op, ok := outer.Item.(ClassBinaryOp)
	require.True(t, ok)
	assert.Equal(t, OpIntersection, op.Kind)
}

func TestUnsupportedLookAround(t *testing.T) {
	for _, pattern := range []string{"(?=a)", "(?!a)", "(?<=a)", "(?<!a)"} {
		_, _, err := NewParser().Parse(pattern)
		require.Error(t, err, pattern)
		assert.True(t, lferrors.ErrUnsupportedLookAround.Is(err), pattern)
	}
}

func TestVerboseModeSkipsWhitespaceAndCollectsComments(t *testing.T) {
	tree, comments, err := NewParserBuilder().IgnoreWhitespace(true).Build().Parse("a b # trailing comment\nc")
	require.NoError(t, err)
	concat, ok := tree.(Concat)
	require.True(t, ok)
	assert.Len(t, concat.Asts, 3)
	require.Len(t, comments, 1)
	assert.Contains(t, comments[0].Text, "trailing comment")
}

func TestInlineFlagsTogglesVerboseMode(t *testing.T) {
	tree, _, err := NewParser().Parse("(?x)a b")
	require.NoError(t, err)
	concat, ok := tree.(Concat)
	require.True(t, ok)
	// FlagsAst, then the two literals with the space between them skipped.
	require.Len(t, concat.Asts, 3)
	_, ok = concat.Asts[0].(FlagsAst)
	assert.True(t, ok)
}

func TestNonCapturingGroupWithFlags(t *testing.T) {
	tree, _, err := NewParser().Parse("(?i:a)")
	require.NoError(t, err)
	grp, ok := tree.(Group)
	require.True(t, ok)
	assert.False(t, grp.Kind.Capturing)
	require.NotNil(t, grp.Kind.Flags)
	require.Len(t, grp.Kind.Flags.Items, 1)
	assert.Equal(t, FlagCaseInsensitive, grp.Kind.Flags.Items[0].Kind)
}

func TestHexAndUnicodeEscapes(t *testing.T) {
	tree, _, err := NewParser().Parse(`\x61\u{1F600}\U0001F600`)
	require.NoError(t, err)
	concat, ok := tree.(Concat)
	require.True(t, ok)
	require.Len(t, concat.Asts, 3)
	assert.Equal(t, rune('a'), concat.Asts[0].(Literal).Char)
	assert.Equal(t, rune(0x1F600), concat.Asts[1].(Literal).Char)
	assert.Equal(t, rune(0x1F600), concat.Asts[2].(Literal).Char)
}

func TestPerlAndUnicodeClasses(t *testing.T) {
	tree, _, err := NewParser().Parse(`\d\p{L}\P{Greek}`)
	require.NoError(t, err)
	concat := tree.(Concat)
	require.Len(t, concat.Asts, 3)
	perl := concat.Asts[0].(Class).Item.(ClassPerl)
	assert.Equal(t, byte('d'), perl.Kind)
	uni := concat.Asts[1].(Class).Item.(ClassUnicode)
	assert.Equal(t, "L", uni.Name)
	assert.False(t, uni.Negated)
	negUni := concat.Asts[2].(Class).Item.(ClassUnicode)
	assert.True(t, negUni.Negated)
}

func TestGroupUnopened(t *testing.T) {
	_, _, err := NewParser().Parse("a)")
	require.Error(t, err)
	assert.True(t, lferrors.ErrGroupUnopened.Is(err))
}

func TestCaptureGroupIndicesAssignedInOrder(t *testing.T) {
	tree, _, err := NewParser().Parse("(a(b))")
	require.NoError(t, err)
	outer := tree.(Group)
	assert.Equal(t, uint32(1), outer.Kind.Index)
	inner := outer.Ast.(Concat).Asts[1].(Group)
	assert.Equal(t, uint32(2), inner.Kind.Index)
}
