// MIT License
//
// Copyright (c) 2023 Lack
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package api

import (
	"errors"
	"fmt"
	"net/http"

	json "github.com/json-iterator/go"
)

type StatusCode int32

func (c StatusCode) String() string {
	switch c {
	case StatusInvalidDocument:
		return "Invalid Document"
	case StatusElementNotFound:
		return "Element Not Found"
	case StatusPersistenceFailed:
		return "Persistence Failed"
	}
	return http.StatusText(int(c))
}

const (
	StatusBadRequest          StatusCode = 400
	StatusNotFound            StatusCode = 404
	StatusConflict            StatusCode = 409
	StatusPreconditionFiled   StatusCode = 412
	StatusInvalidDocument     StatusCode = 422
	StatusElementNotFound     StatusCode = 460
	StatusInternalServerError StatusCode = 500
	StatusPersistenceFailed   StatusCode = 598
)

// Error is the error value returned by every operation of the navigator.
type Error struct {
	Code   int32  `json:"code,omitempty"`
	Status string `json:"status,omitempty"`
	Detail string `json:"detail,omitempty"`

	cause error
}

// New generates a custom error.
func New(detail string, code StatusCode) *Error {
	e := &Error{
		Code:   int32(code),
		Detail: detail,
		Status: code.String(),
	}
	return e
}

// WithCause attaches the underlying error, reachable through errors.Unwrap.
func (e *Error) WithCause(err error) *Error {
	e.cause = err
	return e
}

func (e *Error) Error() string {
	b, _ := json.Marshal(e)
	return string(b)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target carries the same status code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Parse tries to parse a JSON string into an error. If that
// fails, it will set the given string as the error detail.
func Parse(err string) *Error {
	e := new(Error)
	errr := json.Unmarshal([]byte(err), e)
	if errr != nil {
		e.Detail = err
	}
	return e
}

// BadRequest generates a 400 error.
func BadRequest(format string, a ...interface{}) *Error {
	return New(fmt.Sprintf(format, a...), StatusBadRequest)
}

// NotFound generates a 404 error.
func NotFound(format string, a ...interface{}) *Error {
	return New(fmt.Sprintf(format, a...), StatusNotFound)
}

// Conflict generates a 409 error.
func Conflict(format string, a ...interface{}) *Error {
	return New(fmt.Sprintf(format, a...), StatusConflict)
}

// PreconditionFailed generates a 412 error.
func PreconditionFailed(format string, a ...interface{}) *Error {
	return New(fmt.Sprintf(format, a...), StatusPreconditionFiled)
}

// InvalidDocument reports a source document that could not be parsed into a model.
func InvalidDocument(format string, a ...interface{}) *Error {
	return New(fmt.Sprintf(format, a...), StatusInvalidDocument)
}

// ElementNotFound reports a navigation or persistence target missing from the model.
func ElementNotFound(format string, a ...interface{}) *Error {
	return New(fmt.Sprintf(format, a...), StatusElementNotFound)
}

// PersistenceFailed reports a transport error while handing a document to storage.
func PersistenceFailed(format string, a ...interface{}) *Error {
	return New(fmt.Sprintf(format, a...), StatusPersistenceFailed)
}

// InternalServerError generates a 500 error.
func InternalServerError(format string, a ...interface{}) *Error {
	return New(fmt.Sprintf(format, a...), StatusInternalServerError)
}

// FromErr try to convert go error go *Error
func FromErr(err error) *Error {
	if err == nil {
		return nil
	}

	var verr *Error
	if errors.As(err, &verr) && verr != nil {
		return verr
	}

	return Parse(err.Error())
}

func hasCode(err error, code StatusCode) bool {
	var verr *Error
	if !errors.As(err, &verr) || verr == nil {
		return false
	}
	return verr.Code == int32(code)
}

func IsInvalidDocument(err error) bool {
	return hasCode(err, StatusInvalidDocument)
}

func IsElementNotFound(err error) bool {
	return hasCode(err, StatusElementNotFound)
}

func IsPersistenceFailed(err error) bool {
	return hasCode(err, StatusPersistenceFailed)
}

func IsConflict(err error) bool {
	return hasCode(err, StatusConflict)
}
