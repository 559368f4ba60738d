package syncwire

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oy3o/syncwire/pose"
)

func builtinCodecs() []TypeCodec {
	return []TypeCodec{
		&typed[Bool]{
			tag:    TagBool,
			size:   func(Bool) int { return 1 },
			encode: func(w *Writer, v Bool) { w.WriteBool(bool(v)) },
			decode: func(r *Reader) Bool { return Bool(r.ReadBool()) },
			text:   func(v Bool) string { return strconv.FormatBool(bool(v)) },
			parse: func(s string) (Bool, bool) {
				b, err := strconv.ParseBool(s)
				return Bool(b), err == nil
			},
		},
		&typed[Short]{
			tag:    TagShort,
			size:   func(Short) int { return 2 },
			encode: func(w *Writer, v Short) { w.WriteInt16(int16(v)) },
			decode: func(r *Reader) Short { return Short(r.ReadInt16()) },
			text:   formatSigned[Short],
			parse:  func(s string) (Short, bool) { return parseSigned[Short](s, 16) },
		},
		&typed[Int]{
			tag:    TagInt,
			size:   func(Int) int { return 4 },
			encode: func(w *Writer, v Int) { w.WriteInt32(int32(v)) },
			decode: func(r *Reader) Int { return Int(r.ReadInt32()) },
			text:   formatSigned[Int],
			parse:  func(s string) (Int, bool) { return parseSigned[Int](s, 32) },
		},
		&typed[Long]{
			tag:    TagLong,
			size:   func(Long) int { return 8 },
			encode: func(w *Writer, v Long) { w.WriteInt64(int64(v)) },
			decode: func(r *Reader) Long { return Long(r.ReadInt64()) },
			text:   formatSigned[Long],
			parse:  func(s string) (Long, bool) { return parseSigned[Long](s, 64) },
		},
		&typed[Float]{
			tag:    TagFloat,
			size:   func(Float) int { return 4 },
			encode: func(w *Writer, v Float) { w.WriteFloat32(float32(v)) },
			decode: func(r *Reader) Float { return Float(r.ReadFloat32()) },
			text:   func(v Float) string { return formatFloat(v, 32) },
			parse:  func(s string) (Float, bool) { return parseFloat[Float](s, 32) },
		},
		&typed[String]{
			tag:    TagString,
			size:   func(v String) int { return string16Size(string(v)) },
			encode: func(w *Writer, v String) { w.WriteString16(string(v)) },
			decode: func(r *Reader) String { return String(r.ReadString16()) },
			text:   func(v String) string { return string(v) },
			parse:  func(s string) (String, bool) { return String(s), true },
		},
		&typed[GUID]{
			tag:    TagGUID,
			size:   func(GUID) int { return FixedSize[GUID]() },
			encode: writeFixed[GUID],
			decode: readFixed[GUID],
			text:   GUID.String,
			parse: func(s string) (GUID, bool) {
				id, err := uuid.Parse(s)
				return GUID(id), err == nil
			},
		},
		&typed[DateTime]{
			tag:    TagDateTime,
			size:   func(DateTime) int { return dateTimeSize },
			encode: encodeDateTime,
			decode: decodeDateTime,
			text:   func(v DateTime) string { return v.UTC().Format(time.RFC3339Nano) },
			parse: func(s string) (DateTime, bool) {
				t, err := time.Parse(time.RFC3339Nano, s)
				return DateTime{t.UTC()}, err == nil
			},
		},
		&typed[TimeSpan]{
			tag:    TagTimeSpan,
			size:   func(TimeSpan) int { return 8 },
			encode: func(w *Writer, v TimeSpan) { w.WriteInt64(int64(v)) },
			decode: func(r *Reader) TimeSpan { return TimeSpan(r.ReadInt64()) },
			text:   func(v TimeSpan) string { return time.Duration(v).String() },
			parse: func(s string) (TimeSpan, bool) {
				d, err := time.ParseDuration(s)
				return TimeSpan(d), err == nil
			},
		},
		&typed[Color]{
			tag:    TagColor,
			size:   func(Color) int { return FixedSize[Color]() },
			encode: writeFixed[Color],
			decode: readFixed[Color],
			text:   formatColor,
			parse:  parseColor,
		},
		&typed[Transform]{
			tag:    TagTransform,
			size:   transformSize,
			encode: encodeTransform,
			decode: decodeTransform,
		},
		&typed[AppMessage]{
			tag:    TagAppMessage,
			size:   appMessageSize,
			encode: encodeAppMessage,
			decode: decodeAppMessage,
		},
		&typed[PingRequest]{
			tag:    TagPingRequest,
			size:   func(PingRequest) int { return FixedSize[PingRequest]() },
			encode: writeFixed[PingRequest],
			decode: readFixed[PingRequest],
		},
		&typed[PingResponse]{
			tag:    TagPingResponse,
			size:   func(PingResponse) int { return FixedSize[PingResponse]() },
			encode: writeFixed[PingResponse],
			decode: readFixed[PingResponse],
		},
		&typed[AvatarPose]{
			tag:    TagAvatarPose,
			size:   avatarPoseSize,
			encode: encodeAvatarPose,
			decode: decodeAvatarPose,
		},
	}
}

func formatColor(c Color) string {
	return formatFloat(c.R, 32) + "," + formatFloat(c.G, 32) + "," +
		formatFloat(c.B, 32) + "," + formatFloat(c.A, 32)
}

func parseColor(s string) (Color, bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Color{}, false
	}
	var ch [4]float32
	for i, p := range parts {
		v, ok := parseFloat[float32](strings.TrimSpace(p), 32)
		if !ok {
			return Color{}, false
		}
		ch[i] = v
	}
	return Color{R: ch[0], G: ch[1], B: ch[2], A: ch[3]}, true
}

var (
	vec3Size = FixedSize[pose.Vec3]
	quatSize = FixedSize[pose.Quat]
)

func transformSize(t Transform) int {
	return string16Size(t.Target) + 2*vec3Size() + quatSize()
}

func encodeTransform(w *Writer, t Transform) {
	w.WriteString16(t.Target)
	writeFixed(w, t.Position)
	writeFixed(w, t.Rotation)
	writeFixed(w, t.Scale)
}

func decodeTransform(r *Reader) Transform {
	return Transform{
		Target:   r.ReadString16(),
		Position: readFixed[pose.Vec3](r),
		Rotation: readFixed[pose.Quat](r),
		Scale:    readFixed[pose.Vec3](r),
	}
}

func appMessageSize(m AppMessage) int {
	return string16Size(m.Target) + string16Size(m.Command) + 2 + len(m.Data)
}

func encodeAppMessage(w *Writer, m AppMessage) {
	w.WriteString16(m.Target)
	w.WriteString16(m.Command)
	w.WriteBytes16(m.Data)
}

func decodeAppMessage(r *Reader) AppMessage {
	return AppMessage{
		Target:  r.ReadString16(),
		Command: r.ReadString16(),
		Data:    r.ReadBytes16(),
	}
}

// dateTimeSize covers Unix seconds plus the nanosecond of the second, which
// spans every year from 0001 to 9999 without loss.
const dateTimeSize = 8 + 4

func encodeDateTime(w *Writer, v DateTime) {
	w.WriteInt64(v.Unix())
	w.WriteInt32(int32(v.Nanosecond()))
}

func decodeDateTime(r *Reader) DateTime {
	sec := r.ReadInt64()
	nsec := r.ReadInt32()
	if r.Err() != nil {
		return DateTime{}
	}
	if nsec < 0 || nsec >= int32(time.Second) {
		r.Fail(fmt.Errorf("%w: datetime nanosecond %d out of range", ErrMalformedEncodedValue, nsec))
		return DateTime{}
	}
	return DateTime{time.Unix(sec, int64(nsec)).UTC()}
}
