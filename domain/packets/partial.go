package packets

import (
	"errors"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of the binary partial-stroke frame.
const (
	fieldFromX     protowire.Number = 1
	fieldFromY     protowire.Number = 2
	fieldToX       protowire.Number = 3
	fieldToY       protowire.Number = 4
	fieldColor     protowire.Number = 5
	fieldThickness protowire.Number = 6
	fieldPlayerId  protowire.Number = 7
)

var ErrMalformedPartialStroke = errors.New("malformed-partial-stroke")

// PartialStroke is one in-flight segment of a stroke that is still being
// drawn. It is relayed to viewers and never stored.
type PartialStroke struct {
	FromX, FromY float32
	ToX, ToY     float32
	Color        string
	Thickness    float32
	PlayerId     string
}

// IsPartialStrokeFrame reports whether data starts like a binary partial
// stroke rather than a JSON packet.
func IsPartialStrokeFrame(data []byte) bool {
	num, typ, n := protowire.ConsumeTag(data)
	return n > 0 && num == fieldFromX && typ == protowire.Fixed32Type
}

func EncodePartialStroke(p PartialStroke) []byte {
	b := make([]byte, 0, 32+len(p.Color)+len(p.PlayerId))
	b = appendFloat(b, fieldFromX, p.FromX)
	b = appendFloat(b, fieldFromY, p.FromY)
	b = appendFloat(b, fieldToX, p.ToX)
	b = appendFloat(b, fieldToY, p.ToY)
	if p.Color != "" {
		b = protowire.AppendTag(b, fieldColor, protowire.BytesType)
		b = protowire.AppendString(b, p.Color)
	}
	b = appendFloat(b, fieldThickness, p.Thickness)
	if p.PlayerId != "" {
		b = protowire.AppendTag(b, fieldPlayerId, protowire.BytesType)
		b = protowire.AppendString(b, p.PlayerId)
	}
	return b
}

// DecodePartialStroke parses a frame and rejects coordinates outside [0,1]
// and non-positive thickness. Unknown fields are skipped.
func DecodePartialStroke(b []byte) (PartialStroke, error) {
	var p PartialStroke
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return PartialStroke{}, ErrMalformedPartialStroke
		}
		b = b[n:]

		switch {
		case typ == protowire.Fixed32Type && num >= fieldFromX && num <= fieldThickness && num != fieldColor:
			v, n := protowire.ConsumeFixed32(b)
			if n < 0 {
				return PartialStroke{}, ErrMalformedPartialStroke
			}
			b = b[n:]
			f := math.Float32frombits(v)
			switch num {
			case fieldFromX:
				p.FromX = f
			case fieldFromY:
				p.FromY = f
			case fieldToX:
				p.ToX = f
			case fieldToY:
				p.ToY = f
			case fieldThickness:
				p.Thickness = f
			}
		case typ == protowire.BytesType && (num == fieldColor || num == fieldPlayerId):
			s, n := protowire.ConsumeString(b)
			if n < 0 {
				return PartialStroke{}, ErrMalformedPartialStroke
			}
			b = b[n:]
			if num == fieldColor {
				p.Color = s
			} else {
				p.PlayerId = s
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return PartialStroke{}, ErrMalformedPartialStroke
			}
			b = b[n:]
		}
	}

	for _, c := range []float32{p.FromX, p.FromY, p.ToX, p.ToY} {
		if !normalized(c) {
			return PartialStroke{}, ErrMalformedPartialStroke
		}
	}
	if !(p.Thickness > 0) || math.IsInf(float64(p.Thickness), 0) {
		return PartialStroke{}, ErrMalformedPartialStroke
	}
	return p, nil
}

func appendFloat(b []byte, num protowire.Number, v float32) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed32Type)
	return protowire.AppendFixed32(b, math.Float32bits(v))
}

func normalized(c float32) bool {
	return c >= 0 && c <= 1
}
