package types

import (
	"errors"
	"testing"
)

func TestEncodeFrame_Layout(t *testing.T) {
	rgb := make([]byte, 300*300*3)
	rgb[len(rgb)-1] = 7

	buf := EncodeFrame(Frame{BlocksX: 300, BlocksY: 300, StepIndex: 6}, rgb)
	if len(buf) != FrameHeaderSize+len(rgb) {
		t.Fatalf("len: got %d", len(buf))
	}
	if buf[0] != 0x01 || buf[1] != 0x2c || buf[4] != 6 {
		t.Fatalf("header: got % x", buf[:FrameHeaderSize])
	}

	f, got, err := DecodeFrame(buf)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if f.BlocksX != 300 || f.BlocksY != 300 || f.StepIndex != 6 || got[len(got)-1] != 7 {
		t.Fatalf("decoded %+v", f)
	}
}

func TestDecodeFrame_RejectsBadSizes(t *testing.T) {
	if _, _, err := DecodeFrame([]byte{0, 1}); !errors.Is(err, ErrBadFrame) {
		t.Fatalf("short header: want ErrBadFrame, got %v", err)
	}
	buf := EncodeFrame(Frame{BlocksX: 2, BlocksY: 2}, make([]byte, 5))
	if _, _, err := DecodeFrame(buf); !errors.Is(err, ErrBadFrame) {
		t.Fatalf("short body: want ErrBadFrame, got %v", err)
	}
}
