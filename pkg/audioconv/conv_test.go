package audioconv

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func sine(n, rate int, freq float64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
	}
	return out
}

func TestEncodeWAV_DecodesBack(t *testing.T) {
	in := sine(TargetRate/2, TargetRate, 440)
	data, err := EncodeWAV(in, TargetRate)
	if err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("RIFF")) {
		t.Fatalf("missing RIFF header: %q", data[:4])
	}

	out, err := Decode(context.Background(), bytes.NewReader(data), ".wav", Options{})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("samples = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if d := math.Abs(float64(out[i] - in[i])); d > 1e-3 {
			t.Fatalf("sample %d = %f, want %f", i, out[i], in[i])
		}
	}
}

func TestDecodeFile_SniffsAndResamples(t *testing.T) {
	data, err := EncodeWAV(sine(8000, 8000, 200), 8000)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "query.bin")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := DecodeFile(context.Background(), path, Options{MaxSamples: 10000})
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	// one second at 8 kHz becomes 16000 samples, capped to 10000
	if len(out) != 10000 {
		t.Errorf("samples = %d, want 10000", len(out))
	}
}

func TestDecode_Unsupported(t *testing.T) {
	_, err := Decode(context.Background(), bytes.NewReader([]byte("plain text here")), ".txt", Options{})
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("err = %v, want ErrUnsupported", err)
	}
}

func TestEncodeWAV_Empty(t *testing.T) {
	if _, err := EncodeWAV(nil, TargetRate); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestDownmix(t *testing.T) {
	got := Downmix([]float32{1, 0, 0.5, 0.5, -1, 1}, 2)
	want := []float32{0.5, 0.5, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Downmix = %v, want %v", got, want)
		}
	}
}

func TestResample(t *testing.T) {
	in := []float32{0, 1, 2, 3}
	if got := Resample(in, 16000, 16000); len(got) != 4 {
		t.Errorf("same rate changed length: %v", got)
	}
	up := Resample(in, 8000, 16000)
	if len(up) != 8 {
		t.Fatalf("len = %d, want 8", len(up))
	}
	if up[1] != 0.5 || up[7] != 3 {
		t.Errorf("Resample = %v", up)
	}
}
