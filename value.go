package syncwire

import (
	"time"

	"github.com/google/uuid"

	"github.com/oy3o/syncwire/pose"
)

// Value is a payload that can travel in a message. The set of implementations
// is closed: only the types in this package satisfy it.
type Value interface {
	Tag() DataTag
	value()
}

type (
	Bool   bool
	Short  int16
	Int    int32
	Long   int64
	Float  float32
	String string

	// GUID is a 128-bit identifier sent as its 16 raw bytes.
	GUID uuid.UUID

	// TimeSpan is a signed duration with nanosecond resolution.
	TimeSpan time.Duration
)

// DateTime is an instant with nanosecond resolution. Decoded values are in UTC.
type DateTime struct {
	time.Time
}

// Color is a linear RGBA color.
type Color struct {
	R, G, B, A float32
}

// Transform places a shared object.
type Transform struct {
	Target   string
	Position pose.Vec3
	Rotation pose.Quat
	Scale    pose.Vec3
}

// AppMessage is an application defined command addressed to a target object.
type AppMessage struct {
	Target  string
	Command string
	Data    []byte
}

// PingRequest carries the sender clock so the response can be timed.
type PingRequest struct {
	ID     uint8
	SentAt int64 // Unix nanoseconds
}

// PingResponse echoes a request's id and timestamp.
type PingResponse struct {
	ID            uint8
	RequestSentAt int64 // Unix nanoseconds, copied from the request
}

// AvatarPose is a delta update of one tracked hand.
type AvatarPose struct {
	pose.HandPose
}

// Opaque wraps a value outside the closed set. It is only accepted by
// catalogs built WithGenericFallback, and Data must be CBOR encodable.
type Opaque struct {
	Data any
}

func (Bool) Tag() DataTag         { return TagBool }
func (Short) Tag() DataTag        { return TagShort }
func (Int) Tag() DataTag          { return TagInt }
func (Long) Tag() DataTag         { return TagLong }
func (Float) Tag() DataTag        { return TagFloat }
func (String) Tag() DataTag       { return TagString }
func (GUID) Tag() DataTag         { return TagGUID }
func (DateTime) Tag() DataTag     { return TagDateTime }
func (TimeSpan) Tag() DataTag     { return TagTimeSpan }
func (Color) Tag() DataTag        { return TagColor }
func (Transform) Tag() DataTag    { return TagTransform }
func (AppMessage) Tag() DataTag   { return TagAppMessage }
func (PingRequest) Tag() DataTag  { return TagPingRequest }
func (PingResponse) Tag() DataTag { return TagPingResponse }
func (AvatarPose) Tag() DataTag   { return TagAvatarPose }
func (Opaque) Tag() DataTag       { return TagUnknown }

func (Bool) value()         {}
func (Short) value()        {}
func (Int) value()          {}
func (Long) value()         {}
func (Float) value()        {}
func (String) value()       {}
func (GUID) value()         {}
func (DateTime) value()     {}
func (TimeSpan) value()     {}
func (Color) value()        {}
func (Transform) value()    {}
func (AppMessage) value()   {}
func (PingRequest) value()  {}
func (PingResponse) value() {}
func (AvatarPose) value()   {}
func (Opaque) value()       {}

func (g GUID) String() string { return uuid.UUID(g).String() }

// NewGUID returns a random (version 4) GUID.
func NewGUID() GUID { return GUID(uuid.New()) }

// Now returns the current time as a DateTime.
func Now() DateTime { return DateTime{time.Now().UTC()} }

// ValueOf converts a native Go value into its Value. Values are returned
// unchanged. Types outside the closed set are wrapped in Opaque.
func ValueOf(v any) Value {
	switch x := v.(type) {
	case Value:
		return x
	case bool:
		return Bool(x)
	case int16:
		return Short(x)
	case int32:
		return Int(x)
	case int:
		return Long(x)
	case int64:
		return Long(x)
	case float32:
		return Float(x)
	case float64:
		return Float(float32(x))
	case string:
		return String(x)
	case uuid.UUID:
		return GUID(x)
	case time.Time:
		return DateTime{x}
	case time.Duration:
		return TimeSpan(x)
	case pose.HandPose:
		return AvatarPose{x}
	case *pose.HandPose:
		if x == nil {
			return Opaque{Data: v}
		}
		return AvatarPose{*x}
	}
	return Opaque{Data: v}
}

// TagOf returns the tag a native Go value or Value encodes under, TagUnknown
// when the type is outside the closed set.
func TagOf(v any) DataTag {
	if v == nil {
		return TagUnknown
	}
	return ValueOf(v).Tag()
}
