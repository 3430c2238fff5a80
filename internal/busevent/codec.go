package busevent

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/nerrad567/gray-logic-systembus/internal/bus"
)

// Supported payload encodings.
const (
	EncodingJSON = "json"
	EncodingCBOR = "cbor"
)

// ErrUnknownEncoding is returned by NewCodec for an unsupported encoding.
var ErrUnknownEncoding = errors.New("busevent: unknown encoding")

// Payload is the wire form of a bus event.
type Payload struct {
	Op       string    `json:"op" cbor:"1,keyasint"`
	Outcome  string    `json:"outcome" cbor:"2,keyasint"`
	DeviceID int       `json:"device_id" cbor:"3,keyasint"`
	Address  int       `json:"address" cbor:"4,keyasint"`
	Data     int       `json:"data" cbor:"5,keyasint"`
	Time     time.Time `json:"time" cbor:"6,keyasint"`
}

// PayloadFromEvent converts a bus event to its wire form.
func PayloadFromEvent(ev bus.Event) Payload {
	return Payload{
		Op:       string(ev.Op),
		Outcome:  string(ev.Outcome),
		DeviceID: ev.DeviceID,
		Address:  ev.Address,
		Data:     ev.Data,
		Time:     ev.Time.UTC(),
	}
}

var (
	cborEncMode cbor.EncMode
	cborDecMode cbor.DecMode
)

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}
	cborEncMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create event CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}
	cborDecMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create event CBOR decoder mode: %v", err))
	}
}

// Codec encodes and decodes event payloads in one encoding.
type Codec struct {
	encoding string
}

// NewCodec returns a codec for "json" or "cbor" (case-insensitive).
// An empty encoding selects JSON.
func NewCodec(encoding string) (*Codec, error) {
	switch enc := strings.ToLower(encoding); enc {
	case "", EncodingJSON:
		return &Codec{encoding: EncodingJSON}, nil
	case EncodingCBOR:
		return &Codec{encoding: EncodingCBOR}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, encoding)
	}
}

// Encoding returns the codec's encoding name.
func (c *Codec) Encoding() string {
	return c.encoding
}

// Encode serialises an event.
func (c *Codec) Encode(ev bus.Event) ([]byte, error) {
	p := PayloadFromEvent(ev)
	if c.encoding == EncodingCBOR {
		return cborEncMode.Marshal(p)
	}
	return json.Marshal(p)
}

// Decode parses a payload produced by Encode.
func (c *Codec) Decode(data []byte) (Payload, error) {
	var p Payload
	var err error
	if c.encoding == EncodingCBOR {
		err = cborDecMode.Unmarshal(data, &p)
	} else {
		err = json.Unmarshal(data, &p)
	}
	if err != nil {
		return Payload{}, fmt.Errorf("decoding %s payload: %w", c.encoding, err)
	}
	return p, nil
}
