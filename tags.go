package syncwire

import "strconv"

// MessageKind says what a message means to the session layer.
type MessageKind uint8

const (
	KindUnknown         MessageKind = 0
	KindPropertyChanged MessageKind = 1
	KindCommand         MessageKind = 2
	KindTransform       MessageKind = 4
	KindAppMessage      MessageKind = 5
	KindPingRequest     MessageKind = 7
	KindPingResponse    MessageKind = 8
	KindSpawnParameter  MessageKind = 9
)

// Valid reports whether k is one of the defined kinds.
func (k MessageKind) Valid() bool {
	switch k {
	case KindUnknown, KindPropertyChanged, KindCommand, KindTransform,
		KindAppMessage, KindPingRequest, KindPingResponse, KindSpawnParameter:
		return true
	}
	return false
}

func (k MessageKind) String() string {
	switch k {
	case KindUnknown:
		return "unknown"
	case KindPropertyChanged:
		return "property_changed"
	case KindCommand:
		return "command"
	case KindTransform:
		return "transform"
	case KindAppMessage:
		return "app_message"
	case KindPingRequest:
		return "ping_request"
	case KindPingResponse:
		return "ping_response"
	case KindSpawnParameter:
		return "spawn_parameter"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

var kinds = [...]MessageKind{
	KindUnknown, KindPropertyChanged, KindCommand, KindTransform,
	KindAppMessage, KindPingRequest, KindPingResponse, KindSpawnParameter,
}

// ParseMessageKind accepts a kind name as printed by String.
func ParseMessageKind(s string) (MessageKind, bool) {
	for _, k := range kinds {
		if k.String() == s {
			return k, true
		}
	}
	return KindUnknown, false
}

// DataTag identifies the concrete type of an encoded value.
type DataTag uint8

const (
	TagUnknown      DataTag = 0
	TagBool         DataTag = 1
	TagShort        DataTag = 2
	TagInt          DataTag = 3
	TagFloat        DataTag = 4
	TagString       DataTag = 6
	TagLong         DataTag = 7
	TagGUID         DataTag = 10
	TagDateTime     DataTag = 11
	TagTimeSpan     DataTag = 12
	TagColor        DataTag = 13
	TagTransform    DataTag = 20
	TagAvatarPose   DataTag = 251
	TagPingRequest  DataTag = 252
	TagPingResponse DataTag = 253
	TagAppMessage   DataTag = 254
)

var tagNames = map[DataTag]string{
	TagUnknown:      "unknown",
	TagBool:         "bool",
	TagShort:        "short",
	TagInt:          "int",
	TagFloat:        "float",
	TagString:       "string",
	TagLong:         "long",
	TagGUID:         "guid",
	TagDateTime:     "datetime",
	TagTimeSpan:     "timespan",
	TagColor:        "color",
	TagTransform:    "transform",
	TagAvatarPose:   "avatar_pose",
	TagPingRequest:  "ping_request",
	TagPingResponse: "ping_response",
	TagAppMessage:   "app_message",
}

func (t DataTag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return "tag(" + strconv.Itoa(int(t)) + ")"
}

// ParseDataTag accepts a tag name as printed by String.
func ParseDataTag(s string) (DataTag, bool) {
	for t, name := range tagNames {
		if name == s {
			return t, true
		}
	}
	return TagUnknown, false
}
