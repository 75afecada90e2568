// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

import (
	"errors"
)

// GenericError - error base
type GenericError string

// to allow for different classes of errors
type ExistsError GenericError
type InvalidError GenericError
type NotFoundError GenericError
type ProcessError GenericError
type StorageError GenericError

// common errors - keep in alphabetic order
var (
	AlreadyInitialised           = ExistsError("already initialised")
	CertificateFileAlreadyExists = ExistsError("certificate file already exists")
	DuplicateMethod              = InvalidError("method appears in more than one cache class")
	InvalidCollection            = InvalidError("invalid collection")
	InvalidCount                 = InvalidError("invalid count")
	InvalidDuration              = InvalidError("invalid duration")
	InvalidEventValue            = InvalidError("invalid event value")
	InvalidIPAddress             = InvalidError("invalid IP address")
	InvalidStructPointer         = InvalidError("invalid struct pointer")
	KeyFileAlreadyExists         = ExistsError("key file already exists")
	MissingParameters            = InvalidError("missing parameters")
	MissingUpstream              = InvalidError("no upstream url configured")
	NoExpiryIndex                = InvalidError("collection has no expiry index")
	NotADirectory                = InvalidError("path is not a directory")
	NotInitialised               = NotFoundError("not initialised")
	NotPlainFileName             = InvalidError("file name must not contain a directory")
	PatternSyntaxInvalid         = InvalidError("pattern syntax invalid")
	RateLimiting                 = InvalidError("rate limiting")
	StorageOperationFailed       = StorageError("storage operation failed")
	StorageUnavailable           = StorageError("storage unavailable")
	UnsupportedVersion           = StorageError("database version is newer than supported")
	UpstreamCallFailed           = ProcessError("upstream call failed")
	UpstreamReplyInvalid         = ProcessError("upstream reply invalid")
)

// the error interface base method
func (e GenericError) Error() string { return string(e) }

// the error interface methods
func (e ExistsError) Error() string   { return string(e) }
func (e InvalidError) Error() string  { return string(e) }
func (e NotFoundError) Error() string { return string(e) }
func (e ProcessError) Error() string  { return string(e) }
func (e StorageError) Error() string  { return string(e) }

// determine the class of an error, looking through any wrapping
func IsErrExists(e error) bool   { var x ExistsError; return errors.As(e, &x) }
func IsErrInvalid(e error) bool  { var x InvalidError; return errors.As(e, &x) }
func IsErrNotFound(e error) bool { var x NotFoundError; return errors.As(e, &x) }
func IsErrProcess(e error) bool  { var x ProcessError; return errors.As(e, &x) }
func IsErrStorage(e error) bool  { var x StorageError; return errors.As(e, &x) }
