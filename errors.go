package syncwire

import "errors"

var (
	// ErrNilIO indicates that NewReader/NewWriter was called with a nil interface.
	ErrNilIO = errors.New("syncwire: NewReader/NewWriter called with a nil io.Reader/io.Writer")

	// ErrUnknownTag is returned when a DataTag has no registered codec.
	ErrUnknownTag = errors.New("syncwire: unknown data tag")

	// ErrUnknownKind is returned when a message kind byte is not a known MessageKind.
	ErrUnknownKind = errors.New("syncwire: unknown message kind")

	// ErrMalformedKey indicates a property key that cannot be encoded or decoded unambiguously.
	ErrMalformedKey = errors.New("syncwire: malformed property key")

	// ErrMalformedEncodedValue indicates a "<tag>:<text>" value that cannot be parsed.
	ErrMalformedEncodedValue = errors.New("syncwire: malformed encoded value")

	// ErrSizeMismatch means a codec wrote a different number of bytes than it reported.
	// It is always a bug in the codec.
	ErrSizeMismatch = errors.New("syncwire: encoded size does not match reported size")

	// ErrOversizeLength is returned when a length does not fit its length prefix.
	ErrOversizeLength = errors.New("syncwire: length exceeds representable range")

	// ErrTypeMismatch is returned when a value is handed to a codec of another tag.
	ErrTypeMismatch = errors.New("syncwire: value type does not match codec")

	// ErrMalformedPose indicates an avatar pose payload with invalid header or joint entries.
	ErrMalformedPose = errors.New("syncwire: malformed avatar pose")

	// ErrInvalidWrite indicates that an io.Writer returned an invalid (negative) count from Write.
	ErrInvalidWrite = errors.New("syncwire: writer returned invalid count from Write")

	// ErrTrailingData is returned when non-zero bytes follow a decoded message.
	ErrTrailingData = errors.New("syncwire: non-zero trailing data found after decoding")

	// ErrTruncatedData indicates that the input ended before the value was complete.
	ErrTruncatedData = errors.New("syncwire: truncated data")
)
