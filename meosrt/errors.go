package meosrt

import (
	"errors"
	"fmt"
)

// ErrNative matches every *NativeError with errors.Is.
var ErrNative = errors.New("meos: native error")

// ErrConversion matches every *ConversionError with errors.Is.
var ErrConversion = errors.New("meos: conversion error")

// ErrReleased is returned when a released or detached handle is passed to
// a native call.
var ErrReleased = errors.New("meos: handle already released")

// NoError is the error code the native library reports after a successful
// call (MEOS_SUCCESS).
const NoError int32 = 0

var errorCodeNames = map[int32]string{
	0:  "MEOS_SUCCESS",
	1:  "MEOS_ERR_INTERNAL_ERROR",
	2:  "MEOS_ERR_INTERNAL_TYPE_ERROR",
	3:  "MEOS_ERR_VALUE_OUT_OF_RANGE",
	4:  "MEOS_ERR_DIVISION_BY_ZERO",
	5:  "MEOS_ERR_MEMORY_ALLOC_ERROR",
	6:  "MEOS_ERR_AGGREGATION_ERROR",
	7:  "MEOS_ERR_DIRECTORY_ERROR",
	8:  "MEOS_ERR_FILE_ERROR",
	10: "MEOS_ERR_INVALID_ARG",
	11: "MEOS_ERR_INVALID_ARG_TYPE",
	12: "MEOS_ERR_INVALID_ARG_VALUE",
	13: "MEOS_ERR_FEATURE_NOT_SUPPORTED",
	20: "MEOS_ERR_MFJSON_INPUT",
	21: "MEOS_ERR_MFJSON_OUTPUT",
	22: "MEOS_ERR_TEXT_INPUT",
	23: "MEOS_ERR_TEXT_OUTPUT",
	24: "MEOS_ERR_WKB_INPUT",
	25: "MEOS_ERR_WKB_OUTPUT",
	26: "MEOS_ERR_GEOJSON_INPUT",
	27: "MEOS_ERR_GEOJSON_OUTPUT",
}

// ErrorCodeName returns the symbolic name of a native error code, or
// "MEOS_ERR(<code>)" for codes the table does not know.
func ErrorCodeName(code int32) string {
	if name, ok := errorCodeNames[code]; ok {
		return name
	}
	return fmt.Sprintf("MEOS_ERR(%d)", code)
}

// NativeError is an error reported by the native library through its error
// state after a call returned.
type NativeError struct {
	Symbol  string // native function that reported the error
	Code    int32
	Message string
}

func (e *NativeError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "no message"
	}
	return fmt.Sprintf("%s: %s (%d): %s", e.Symbol, ErrorCodeName(e.Code), e.Code, msg)
}

// Name is the symbolic name of the error code.
func (e *NativeError) Name() string { return ErrorCodeName(e.Code) }

func (e *NativeError) Is(target error) bool { return target == ErrNative }

// ConversionError reports a value that cannot cross the native boundary.
type ConversionError struct {
	Symbol string // native function being called, may be empty
	Param  string // parameter or "return"
	Reason string
	Err    error
}

func (e *ConversionError) Error() string {
	switch {
	case e.Symbol != "" && e.Param != "":
		return fmt.Sprintf("%s: %s: %s", e.Symbol, e.Param, e.Reason)
	case e.Param != "":
		return fmt.Sprintf("%s: %s", e.Param, e.Reason)
	}
	return e.Reason
}

func (e *ConversionError) Is(target error) bool { return target == ErrConversion }

func (e *ConversionError) Unwrap() error { return e.Err }

func conversionErr(format string, args ...any) *ConversionError {
	return &ConversionError{Reason: fmt.Sprintf(format, args...)}
}
