package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates the Content-Type header is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates the request body or inbound frame is not valid JSON.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates the request body contained trailing content after valid JSON.
	ErrExtraContentInBody = 1004

	// ErrRequestEntityTooLarge indicates the request body exceeded the server limit.
	ErrRequestEntityTooLarge = 1005

	// ErrRateLimitExceeded indicates the request rate exceeded the configured limit.
	ErrRateLimitExceeded = 1006
)

// 2xxx: Room and Message Business Logic Errors
const (
	// ErrRoomKindInvalid indicates an unrecognized room kind (not global/group/private).
	ErrRoomKindInvalid = 2101

	// ErrRoomExists indicates a room with the same kind and name already exists.
	ErrRoomExists = 2102

	// ErrRoomNotFound indicates no room matches the requested kind and name.
	ErrRoomNotFound = 2103

	// ErrNotRoomOwner indicates the acting user is not the creator of the room.
	ErrNotRoomOwner = 2104

	// ErrMessageEmpty indicates a message carried neither text nor an attachment.
	ErrMessageEmpty = 2201

	// ErrMessageContentTooLong indicates message text exceeded the maximum length.
	ErrMessageContentTooLong = 2202

	// ErrMessageNotFound indicates no message exists with the requested id.
	ErrMessageNotFound = 2203

	// ErrAuthorNotMember indicates the author is not a current member of the target room.
	ErrAuthorNotMember = 2204

	// ErrFileSizeTooLarge indicates an attachment exceeded the size limit.
	ErrFileSizeTooLarge = 2301

	// ErrFileTypeInvalid indicates an attachment name or MIME type is not allowed.
	ErrFileTypeInvalid = 2302

	// ErrAttachmentKeyInvalid indicates an attachment key outside the room's namespace.
	ErrAttachmentKeyInvalid = 2303
)

// 3xxx: Identity and Access Errors
const (
	// ErrUnauthorized indicates a missing identity or an access attempt on a room
	// the user is not a member of.
	ErrUnauthorized = 3001
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified internal server error.
	ErrUnknown = 5000

	// ErrStoreTimeout indicates a durable-store round trip exceeded its deadline.
	ErrStoreTimeout = 5001

	// ErrStoreUnavailable indicates the durable store could not be reached.
	ErrStoreUnavailable = 5002

	// ErrFileStorageFailed indicates an object-storage operation failed.
	ErrFileStorageFailed = 5003
)
