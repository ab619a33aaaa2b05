package types

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// FrameHeaderSize is blocksX (uint16) + blocksY (uint16) + stepIndex (uint8).
const FrameHeaderSize = 5

var ErrBadFrame = errors.New("bad frame")

// EncodeFrame lays out a frame as a binary websocket message:
// big-endian header followed by blocksX*blocksY RGB triples.
func EncodeFrame(f Frame, rgb []byte) []byte {
	buf := make([]byte, FrameHeaderSize+len(rgb))
	binary.BigEndian.PutUint16(buf[0:2], uint16(f.BlocksX))
	binary.BigEndian.PutUint16(buf[2:4], uint16(f.BlocksY))
	buf[4] = byte(f.StepIndex)
	copy(buf[FrameHeaderSize:], rgb)
	return buf
}

func DecodeFrame(buf []byte) (Frame, []byte, error) {
	if len(buf) < FrameHeaderSize {
		return Frame{}, nil, fmt.Errorf("%w: %d bytes", ErrBadFrame, len(buf))
	}
	f := Frame{
		BlocksX:   int(binary.BigEndian.Uint16(buf[0:2])),
		BlocksY:   int(binary.BigEndian.Uint16(buf[2:4])),
		StepIndex: int(buf[4]),
	}
	rgb := buf[FrameHeaderSize:]
	if len(rgb) != f.BlocksX*f.BlocksY*3 {
		return Frame{}, nil, fmt.Errorf("%w: %dx%d needs %d bytes, got %d", ErrBadFrame, f.BlocksX, f.BlocksY, f.BlocksX*f.BlocksY*3, len(rgb))
	}
	return f, rgb, nil
}
