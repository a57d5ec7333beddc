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

// Package errors centralizes the error taxonomy shared by every lintflow
// subsystem. Every sentinel is a *errors.Kind from gopkg.in/src-d/go-errors.v1,
// the same mechanism the rest of this codebase uses for typed, matchable
// errors (see auth.ErrNotAuthorized for the pattern this follows).
package errors

import (
	goerrors "gopkg.in/src-d/go-errors.v1"
)

// Value layer.
var (
	ErrTypeMismatch            = goerrors.NewKind("type mismatch: expected %s, got %s")
	ErrArityMismatch           = goerrors.NewKind("arity mismatch for %s: expected %d fields, got %d")
	ErrUnknownConstructor      = goerrors.NewKind("unknown constructor %q")
	ErrOutOfRange              = goerrors.NewKind("value out of range: %s")
	ErrInvalidUTF8             = goerrors.NewKind("invalid utf-8 in string literal")
	ErrUnsupportedSerialization = goerrors.NewKind("unsupported serialization tag %q")
)

// Transaction manager.
var (
	ErrNoTransactionInProgress       = goerrors.NewKind("no transaction in progress")
	ErrTransactionAlreadyInProgress  = goerrors.NewKind("a transaction is already in progress")
	ErrOperationNotSupportedOnStream = goerrors.NewKind("operation %s not supported on stream relation %s")
	ErrUnknownRelation               = goerrors.NewKind("unknown relation %s")
	ErrDuplicateKey                  = goerrors.NewKind("duplicate key in relation %s")
	ErrKeyNotFound                   = goerrors.NewKind("key not found in relation %s")
	ErrValueMismatch                 = goerrors.NewKind("value mismatch deleting from relation %s")
)

// Dataflow runtime.
var (
	ErrStartupFailed          = goerrors.NewKind("dataflow startup failed: %s")
	ErrWorkerChannelClosed    = goerrors.NewKind("worker channel closed unexpectedly")
	ErrQueryUnknownArrangement = goerrors.NewKind("query against unknown arrangement %s")
	ErrFlushTimeout           = goerrors.NewKind("flush timed out waiting for quiescence")
)

// Program compiler invariants.
var (
	ErrDuplicateRelationID  = goerrors.NewKind("duplicate relation id %d")
	ErrIllegalPredecessor   = goerrors.NewKind("relation %s references illegal predecessor %s")
	ErrMissingArrangement   = goerrors.NewKind("relation %s references missing arrangement %s")
	ErrInputRelationHasRule = goerrors.NewKind("input relation %s may not have rules")
	ErrInputOnRuleLHS       = goerrors.NewKind("input relation %s may not appear on a rule's left-hand side")
)

// Regex parser. Kept in one place even though regexast is the only
// consumer, so every lintflow error still flows through the same
// Kind-tagged mechanism.
var (
	ErrUnsupportedLookAround   = goerrors.NewKind("unsupported look-around at %s")
	ErrCaptureLimitExceeded    = goerrors.NewKind("capture group limit exceeded")
	ErrGroupUnclosed           = goerrors.NewKind("unclosed group opened at %s")
	ErrGroupUnopened           = goerrors.NewKind("unopened group closed at %s")
	ErrClassUnclosed           = goerrors.NewKind("unclosed character class opened at %s")
	ErrEscapeUnexpectedEOF     = goerrors.NewKind("unexpected end of pattern in escape sequence")
	ErrEscapeHexInvalid        = goerrors.NewKind("invalid hex digit %q in escape sequence")
	ErrEscapeHexEmpty          = goerrors.NewKind("empty hex escape sequence")
	ErrUnsupportedBackreference = goerrors.NewKind("unsupported backreference (octal escapes disabled)")
	ErrRepetitionMissing       = goerrors.NewKind("repetition operator with no preceding expression")
	ErrRepetitionCountUnclosed = goerrors.NewKind("unclosed repetition count")
	ErrRepetitionCountDecimalEmpty = goerrors.NewKind("empty decimal in repetition count")
	ErrRepetitionCountInvalid  = goerrors.NewKind("invalid repetition count: min %d > max %d")
	ErrClassRangeLiteral       = goerrors.NewKind("invalid character range: %s")
	ErrClassRangeInvalid       = goerrors.NewKind("invalid character range: start %d > end %d")
	ErrClassEscapeInvalid      = goerrors.NewKind("invalid escape in character class")
	ErrFlagUnrecognized        = goerrors.NewKind("unrecognized flag %q")
	ErrFlagDuplicate           = goerrors.NewKind("duplicate flag %q")
	ErrFlagRepeatedNegation    = goerrors.NewKind("repeated flag negation")
	ErrFlagDanglingNegation    = goerrors.NewKind("dangling flag negation")
	ErrFlagUnexpectedEOF       = goerrors.NewKind("unexpected end of pattern in flags")
	ErrDecimalEmpty            = goerrors.NewKind("empty decimal literal")
	ErrDecimalInvalid          = goerrors.NewKind("invalid decimal literal %q")
	ErrNestLimitExceeded       = goerrors.NewKind("nesting depth exceeds limit %d")
	ErrGroupNameDuplicate      = goerrors.NewKind("duplicate capture group name (original at %s)")
)
