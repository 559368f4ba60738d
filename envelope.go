package syncwire

import (
	"io"
)

// Envelope binds a Message to the catalog that encodes it and exposes the
// framed form (uint16 length, then the message) through Codec. A nil Catalog
// means DefaultCatalog.
type Envelope struct {
	Message
	Catalog *Catalog
}

var _ Codec = (*Envelope)(nil)

func (e *Envelope) catalog() *Catalog {
	if e.Catalog == nil {
		return DefaultCatalog()
	}
	return e.Catalog
}

// Size returns the framed size, or 0 when the message cannot be encoded.
func (e *Envelope) Size() int {
	n, err := e.catalog().Size(e.Message)
	if err != nil {
		return 0
	}
	return 2 + n
}

func (e *Envelope) WriteTo(w io.Writer) (int64, error) {
	return e.catalog().WriteMessage(w, e.Message)
}

func (e *Envelope) ReadFrom(r io.Reader) (int64, error) {
	m, n, err := e.catalog().ReadMessage(r)
	if err != nil {
		return n, err
	}
	e.Message = m
	return n, nil
}

func (e *Envelope) MarshalBinary() ([]byte, error) {
	if _, err := e.catalog().Size(e.Message); err != nil {
		return nil, err
	}
	return MarshalBinaryGeneric(e)
}

func (e *Envelope) MarshalTo(buf []byte) (int, error) {
	if _, err := e.catalog().Size(e.Message); err != nil {
		return 0, err
	}
	return MarshalToGeneric(e, buf)
}

func (e *Envelope) UnmarshalBinary(data []byte) error {
	return UnmarshalBinaryGeneric(e, data)
}
