package relay

import (
	"context"
	"fmt"

	"github.com/oy3o/syncwire"
)

// PublishProperty stores v under k on the property channel using the text
// embedding.
func (r *Relay) PublishProperty(ctx context.Context, k syncwire.PropertyKey, v syncwire.Value) error {
	if r.props == nil {
		return ErrNoPropertyChannel
	}
	key, err := r.keys.EncodeKey(k)
	if err != nil {
		return err
	}
	value, err := r.keys.EncodeValue(v)
	if err != nil {
		return err
	}
	return r.props.SetProperty(ctx, key, value)
}

// PropertyUpdated decodes a property change observed on the channel and
// hands it to the handler. A cleared property arrives as a nil value.
func (r *Relay) PropertyUpdated(key, value string) error {
	k, ok := r.keys.Decode(key)
	if !ok {
		err := fmt.Errorf("%w: %q", syncwire.ErrMalformedKey, key)
		r.drop(key, reasonOf(err), err)
		return err
	}
	v, err := r.keys.DecodeValue(value)
	if err != nil {
		r.drop(key, reasonOf(err), err)
		return err
	}
	r.handler.OnProperty(k, v)
	return nil
}

// Wrap encodes spawn parameters as individual SpawnParameter messages so
// transports that only carry byte arrays can forward them.
func Wrap(c *syncwire.Catalog, params []syncwire.Value) ([][]byte, error) {
	if len(params) == 0 {
		return nil, nil
	}
	out := make([][]byte, len(params))
	for i, v := range params {
		b, err := c.Encode(syncwire.Message{Kind: syncwire.KindSpawnParameter, Value: v})
		if err != nil {
			return nil, fmt.Errorf("spawn parameter %d: %w", i, err)
		}
		out[i] = b
	}
	return out, nil
}

// Unwrap reverses Wrap.
func Unwrap(c *syncwire.Catalog, data [][]byte) ([]syncwire.Value, error) {
	if len(data) == 0 {
		return nil, nil
	}
	out := make([]syncwire.Value, len(data))
	for i, b := range data {
		m, err := c.Decode(b)
		if err != nil {
			return nil, fmt.Errorf("spawn parameter %d: %w", i, err)
		}
		if m.Kind != syncwire.KindSpawnParameter {
			return nil, fmt.Errorf("%w: element %d is a %s message", ErrNotSpawnParameter, i, m.Kind)
		}
		out[i] = m.Value
	}
	return out, nil
}
