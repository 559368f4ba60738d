package syncwire

import (
	"bytes"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type KeyCodecTestSuite struct {
	suite.Suite
	logs bytes.Buffer
	kc   *KeyCodec
}

func (s *KeyCodecTestSuite) SetupTest() {
	s.logs.Reset()
	s.kc = NewKeyCodec(WithLogger(slog.New(slog.NewTextHandler(&s.logs, nil))))
}

func (s *KeyCodecTestSuite) TestScenarioOwnerName() {
	key, err := s.kc.Encode("42", "latency")
	s.Require().NoError(err)
	s.Equal("42:latency", key)

	k, ok := s.kc.Decode(key)
	s.Require().True(ok)
	s.Equal(PropertyKey{Owner: "42", Name: "latency"}, k)
	s.False(k.Global())
}

func (s *KeyCodecTestSuite) TestEncodeIsCached() {
	a, err := s.kc.Encode("7", "score")
	s.Require().NoError(err)
	b, err := s.kc.Encode("7", "score")
	s.Require().NoError(err)
	s.Same(unsafe.StringData(a), unsafe.StringData(b), "repeat encodes share one string")
}

func (s *KeyCodecTestSuite) TestRoundTrip() {
	for _, k := range []PropertyKey{
		{Owner: "", Name: "mode"},
		{Owner: "player-1", Name: "x"},
		{Owner: "a", Name: "b:c:d"},
		{Owner: "ünï", Name: "cödé"},
	} {
		enc, err := s.kc.EncodeKey(k)
		s.Require().NoError(err, k)
		got, ok := s.kc.Decode(enc)
		s.Require().True(ok, enc)
		s.Equal(k, got)
	}
}

func (s *KeyCodecTestSuite) TestMalformedKeys() {
	_, err := s.kc.Encode("a:b", "name")
	s.ErrorIs(err, ErrMalformedKey)
	_, err = s.kc.Encode("", "x")
	s.ErrorIs(err, ErrMalformedKey)
	_, err = s.kc.Encode("owner", "")
	s.ErrorIs(err, ErrMalformedKey)

	for _, in := range []string{"", "ab", "abc", "abc:", ":a"} {
		_, ok := s.kc.Decode(in)
		s.False(ok, in)
	}
}

func (s *KeyCodecTestSuite) TestDecodeInterns() {
	a, ok := s.kc.Decode("room:title")
	s.Require().True(ok)
	b, ok := s.kc.Decode(string([]byte("room:title")))
	s.Require().True(ok)
	s.Same(unsafe.StringData(a.Name), unsafe.StringData(b.Name))
}

func (s *KeyCodecTestSuite) TestValues() {
	enc, err := s.kc.EncodeValue(Float(3.5))
	s.Require().NoError(err)
	s.Equal("4:3.5", enc)

	v, err := s.kc.DecodeValue(enc)
	s.Require().NoError(err)
	s.Equal(Float(3.5), v)


	v, err = s.kc.DecodeValue("6:a:b")
	s.Require().NoError(err)
	s.Equal(String("a:b"), v)

	for _, sv := range sampleValues() {
		enc, err := s.kc.EncodeValue(sv)
		s.Require().NoError(err)
		got, err := s.kc.DecodeValue(enc)
		s.Require().NoError(err, enc)
		s.Equal(sv, got)
	}
}

func (s *KeyCodecTestSuite) TestEmptyValue() {
	v, err := s.kc.DecodeValue("")
	s.NoError(err)
	s.Nil(v)

	enc, err := s.kc.EncodeValue(nil)
	s.NoError(err)
	s.Empty(enc)
}

func (s *KeyCodecTestSuite) TestShortValues() {
	for _, in := range []string{"6:", "1:", "7", "ab"} {
		_, err := s.kc.DecodeValue(in)
		s.ErrorIs(err, ErrMalformedEncodedValue, in)
	}

	_, err := s.kc.EncodeValue(String(""))
	s.ErrorIs(err, ErrMalformedEncodedValue)

	enc, err := s.kc.EncodeValue(String("x"))
	s.Require().NoError(err)
	s.Equal("6:x", enc)
	v, err := s.kc.DecodeValue(enc)
	s.Require().NoError(err)
	s.Equal(String("x"), v)
}

func (s *KeyCodecTestSuite) TestMalformedValues() {
	_, err := s.kc.DecodeValue("12")
	s.ErrorIs(err, ErrMalformedEncodedValue)
	_, err = s.kc.DecodeValue(":x")
	s.ErrorIs(err, ErrMalformedEncodedValue)
	_, err = s.kc.DecodeValue("3:notanint")
	s.ErrorIs(err, ErrMalformedEncodedValue)

	_, err = s.kc.DecodeValue("x:1")
	s.ErrorIs(err, ErrUnknownTag)
	_, err = s.kc.DecodeValue("99:1")
	s.ErrorIs(err, ErrUnknownTag)
	s.Contains(s.logs.String(), "unknown data tag")

	_, err = s.kc.EncodeValue(Opaque{Data: 1})
	s.ErrorIs(err, ErrUnknownTag)
}

func TestKeyCodec(t *testing.T) {
	suite.Run(t, new(KeyCodecTestSuite))
}

func TestKeyCodec_CacheBound(t *testing.T) {
	kc := NewKeyCodec(WithKeyCacheSize(2))
	for i := range 10 {
		k, err := kc.Encode("o", fmt.Sprintf("n%d", i))
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("o:n%d", i), k)
	}
	assert.EqualValues(t, 2, kc.keys.Size())
}

func TestKeyCodec_Concurrent(t *testing.T) {
	kc := NewKeyCodec()
	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 200 {
				owner := fmt.Sprint(i % 16)
				name := fmt.Sprint("p", g%2)
				enc, err := kc.Encode(owner, name)
				if !assert.NoError(t, err) {
					return
				}
				k, ok := kc.Decode(enc)
				assert.True(t, ok)
				assert.Equal(t, PropertyKey{Owner: owner, Name: name}, k)
			}
		}()
	}
	wg.Wait()
}

func TestInternTable(t *testing.T) {
	tab := newInternTable(1)
	a := tab.intern(string([]byte("alpha")))
	b := tab.intern(string([]byte("alpha")))
	assert.Same(t, unsafe.StringData(a), unsafe.StringData(b))

	beta := string([]byte("beta"))
	assert.Same(t, unsafe.StringData(beta), unsafe.StringData(tab.intern(beta)), "full table returns input")
	assert.Equal(t, "", tab.intern(""))
}
