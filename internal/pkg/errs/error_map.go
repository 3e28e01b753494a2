package errs

import "net/http"

// errorMap holds the message and HTTP status template for every error code.
// A zero Status means HTTP 200 with a non-zero business code in the body.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:         {Code: ErrInvalidParams, Message: "Invalid request parameters."},
	ErrUnsupportedMediaType:  {Code: ErrUnsupportedMediaType, Message: "Unsupported request format."},
	ErrInvalidJSONFormat:     {Code: ErrInvalidJSONFormat, Message: "Unsupported request format."},
	ErrExtraContentInBody:    {Code: ErrExtraContentInBody, Message: "Request contains unexpected data."},
	ErrRequestEntityTooLarge: {Code: ErrRequestEntityTooLarge, Message: "Request size is too large."},
	ErrRateLimitExceeded:     {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Room and Message Business Logic Errors
	ErrRoomKindInvalid:       {Code: ErrRoomKindInvalid, Message: "Invalid chat type."},
	ErrRoomExists:            {Code: ErrRoomExists, Message: "Chat room already exists."},
	ErrRoomNotFound:          {Code: ErrRoomNotFound, Message: "Chat room not found.", Status: http.StatusNotFound},
	ErrNotRoomOwner:          {Code: ErrNotRoomOwner, Message: "Only the room owner can do that.", Status: http.StatusForbidden},
	ErrMessageEmpty:          {Code: ErrMessageEmpty, Message: "Message cannot be empty."},
	ErrMessageContentTooLong: {Code: ErrMessageContentTooLong, Message: "Message is too long."},
	ErrMessageNotFound:       {Code: ErrMessageNotFound, Message: "Message not found.", Status: http.StatusNotFound},
	ErrAuthorNotMember:       {Code: ErrAuthorNotMember, Message: "You are not a member of this room.", Status: http.StatusForbidden},
	ErrFileSizeTooLarge:      {Code: ErrFileSizeTooLarge, Message: "File is too large."},
	ErrFileTypeInvalid:       {Code: ErrFileTypeInvalid, Message: "This file type is not allowed."},
	ErrAttachmentKeyInvalid:  {Code: ErrAttachmentKeyInvalid, Message: "Invalid attachment."},

	// 3xxx: Identity and Access Errors
	ErrUnauthorized: {Code: ErrUnauthorized, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},

	// 5xxx: Internal System Errors
	ErrUnknown:           {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrStoreTimeout:      {Code: ErrStoreTimeout, Message: "The server took too long. Please try again.", Status: http.StatusGatewayTimeout},
	ErrStoreUnavailable:  {Code: ErrStoreUnavailable, Message: "Service is temporarily unavailable.", Status: http.StatusServiceUnavailable},
	ErrFileStorageFailed: {Code: ErrFileStorageFailed, Message: "File upload failed. Please try again.", Status: http.StatusInternalServerError},
}
