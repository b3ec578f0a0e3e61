package feed

// error_messages.go maps validation kinds and fatal load errors to
// user-facing messages with a support code.
//
// # Validation codes (GTFS001-GTFS099)
//
//	GTFS001 - Empty field: a required field is blank
//	GTFS002 - Invalid number: a numeric field could not be parsed
//	GTFS003 - Invalid time: a time field is not HH:MM:SS
//	GTFS004 - Out of range: a numeric value is outside its allowed bounds
//	GTFS005 - Unresolved reference: a key does not match any loaded record
//	GTFS006 - Missing column: a required column is absent from the header
//	GTFS007 - Missing table: a required file is absent from the archive
//
// # Fatal codes
//
// Fatal load errors are matched case-insensitively against known patterns,
// first match wins:
//
//	FILE001 - Archive too large
//	FILE002 - Archive is not a valid zip file
//	FILE003 - Table file could not be parsed as CSV
//	FILE004 - Archive not found
//	UPL002  - Too many validations in progress
//	UPL004  - Request cancelled
//	UPL005  - Request timed out
//	DB004   - Run history database unreachable
//	ERR000  - Anything else

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

var kindMessages = map[Kind]UserMessage{
	KindEmptyField: {
		Message: "Required field is empty",
		Action:  "Fill in a value for every required field",
		Code:    "GTFS001",
	},
	KindNumberParse: {
		Message: "Invalid number format",
		Action:  "Use plain decimal digits without units or separators",
		Code:    "GTFS002",
	},
	KindTimeParse: {
		Message: "Invalid time format",
		Action:  "Use HH:MM:SS; hours past 23 are allowed for service after midnight",
		Code:    "GTFS003",
	},
	KindRange: {
		Message: "Value is out of range",
		Action:  "Check the allowed values for this field",
		Code:    "GTFS004",
	},
	KindReferentialIntegrity: {
		Message: "Referenced record does not exist",
		Action:  "Ensure the referenced ID is defined in its own table",
		Code:    "GTFS005",
	},
	KindMissingColumn: {
		Message: "Required column is missing",
		Action:  "Add the column to the table header",
		Code:    "GTFS006",
	},
	KindMissingTable: {
		Message: "Required table is missing",
		Action:  "Add the table file to the feed archive",
		Code:    "GTFS007",
	},
}

// Describe returns the user message for a validation kind.
func Describe(k Kind) UserMessage {
	if msg, ok := kindMessages[k]; ok {
		return msg
	}
	return defaultMessage
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns is ordered specific before general.
var errorPatterns = []errorPattern{
	{
		pattern: "archive too large",
		msg: UserMessage{
			Message: "Feed archive exceeds the maximum size",
			Action:  "Split the feed or raise LOAD_MAX_ARCHIVE_SIZE",
			Code:    "FILE001",
		},
	},
	{
		pattern: "not a valid zip file",
		msg: UserMessage{
			Message: "Feed archive is not a valid zip file",
			Action:  "Upload the feed as a .zip archive",
			Code:    "FILE002",
		},
	},
	{
		pattern: "parse error on line",
		msg: UserMessage{
			Message: "A table file could not be parsed",
			Action:  "Ensure the file is comma-separated with balanced quotes",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no such file",
		msg: UserMessage{
			Message: "Feed archive not found",
			Action:  "Check the archive path or object key",
			Code:    "FILE004",
		},
	},
	{
		pattern: "too many concurrent validations",
		msg: UserMessage{
			Message: "Too many validations in progress",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "deadline exceeded",
		msg: UserMessage{
			Message: "Validation timed out",
			Action:  "Try a smaller feed or raise VALIDATION_TIMEOUT",
			Code:    "UPL005",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a fatal load error to a user-friendly message.
// A ValidationError maps to its kind's message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}
	if ve, ok := err.(ValidationError); ok {
		return Describe(ve.Kind)
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError creates "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matched a known pattern rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
