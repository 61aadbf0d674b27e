package encoding

import (
	"encoding/base64"
	"errors"
	"testing"
)

func TestRLERoundTrip(t *testing.T) {
	chunk := make([]uint16, 16*16*8)
	for i := 0; i < 256; i++ {
		chunk[i] = 1
	}
	chunk[300] = 7
	chunk[301] = 7

	for _, in := range [][]uint16{
		{1, 1, 1, 2, 2, 3, 9, 10, 10, 10},
		{65535},
		chunk,
	} {
		out, err := DecodeRLE(EncodeRLE(in))
		if err != nil {
			t.Fatalf("DecodeRLE: %v", err)
		}
		if len(out) != len(in) {
			t.Fatalf("len=%d want %d", len(out), len(in))
		}
		for i := range in {
			if out[i] != in[i] {
				t.Fatalf("out[%d]=%d want %d", i, out[i], in[i])
			}
		}
	}
}

func TestRLECompressesRuns(t *testing.T) {
	enc := EncodeRLE(make([]uint16, 16*16*64))
	if len(enc) > 8 {
		t.Fatalf("EncodeRLE(zeros)=%q", enc)
	}
}

func TestDecodeRLERejectsCorruptInput(t *testing.T) {
	if _, err := DecodeRLE("!!"); err == nil {
		t.Fatalf("bad base64 accepted")
	}
	// id 1, run 0
	if _, err := DecodeRLE(base64.StdEncoding.EncodeToString([]byte{1, 0})); err == nil {
		t.Fatalf("empty run accepted")
	}
	// id 1, run 2^32
	huge := []byte{1, 0x80, 0x80, 0x80, 0x80, 0x10}
	if _, err := DecodeRLE(base64.StdEncoding.EncodeToString(huge)); !errors.Is(err, ErrTooLong) {
		t.Fatalf("err=%v", err)
	}
	// truncated run
	if _, err := DecodeRLE(base64.StdEncoding.EncodeToString([]byte{1})); err == nil {
		t.Fatalf("truncated input accepted")
	}
}
