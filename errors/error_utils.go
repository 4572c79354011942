// Package errors provides coded errors and helpers for categorizing them.
package errors

import (
	"context"
	"errors"
)

// IsConsensusError reports whether err is a consensus violation, i.e. the offending peer sent
// a header that breaks a consensus rule. Callers use this to decide whether to penalise the peer.
func IsConsensusError(err error) bool {
	if err == nil {
		return false
	}

	var tErr *Error
	if !As(err, &tErr) {
		return false
	}

	switch tErr.Code() {
	case ERR_INVALID_BLOCK_HEIGHT,
		ERR_CHAIN_LINK_BROKEN,
		ERR_FUTURE_TIME_LIMIT,
		ERR_TIMESTAMP_TOO_EARLY,
		ERR_ACHIEVED_DIFFICULTY_TOO_LOW,
		ERR_BAD_BLOCK,
		ERR_INVALID_POW_DATA,
		ERR_OLD_SEED_HASH,
		ERR_INVALID_POW,
		ERR_UNSUPPORTED_POW_ALGORITHM,
		ERR_INVALID_MERGE_MINING_ROOT,
		ERR_INVALID_BLOCK_HEADER_ENCODING:
		return true
	}

	return false
}

// IsPreconditionError reports whether err signals caller or database inconsistency rather than
// a misbehaving peer.
func IsPreconditionError(err error) bool {
	if err == nil {
		return false
	}

	var tErr *Error
	if As(err, &tErr) {
		switch tErr.Code() {
		case ERR_NOT_INITIALIZED,
			ERR_START_HASH_NOT_FOUND,
			ERR_INVALID_CHAIN_HEADER,
			ERR_INVALID_ACCUMULATED:
			return true
		}
	}

	return false
}

// IsStorageError reports whether err came from the blockchain database.
func IsStorageError(err error) bool {
	if err == nil {
		return false
	}

	var tErr *Error
	if As(err, &tErr) {
		switch tErr.Code() {
		case ERR_STORAGE_ERROR, ERR_STORAGE_UNAVAILABLE:
			return true
		}
	}

	return false
}

// IsCanceled reports whether err is the result of a cancelled or expired context.
func IsCanceled(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var tErr *Error
	if As(err, &tErr) {
		return tErr.Code() == ERR_CONTEXT_CANCELED
	}

	return false
}
