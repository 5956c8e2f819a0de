package decode

import (
	"errors"
	"io"
	"os"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/schollz/tapecore/internal/errs"
)

func writeTestWAV(t *testing.T, sampleRate, nChannels int, ints []int) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "decode-*.wav")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, nChannels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{SampleRate: sampleRate, NumChannels: nChannels},
		Data:           ints,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	return f.Name()
}

func TestWAVDecoderRoundTrip(t *testing.T) {
	sr, ch := 44100, 1
	ints := []int{0, 16384, -16384, 32767, -32768}
	path := writeTestWAV(t, sr, ch, ints)

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	samples, gotSR, gotCh, err := (WAVDecoder{}).Decode(f, nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if gotSR != sr {
		t.Errorf("expected sample rate %d, got %d", sr, gotSR)
	}
	if gotCh != ch {
		t.Errorf("expected %d channels, got %d", ch, gotCh)
	}
	if len(samples) != len(ints) {
		t.Fatalf("expected %d samples, got %d", len(ints), len(samples))
	}
	if samples[0] != 0 {
		t.Errorf("expected first sample 0, got %v", samples[0])
	}
	if samples[3] < 0.99 || samples[3] > 1.0 {
		t.Errorf("expected near-full-scale positive sample close to 1.0, got %v", samples[3])
	}
	if samples[4] < -1.0 || samples[4] > -0.99 {
		t.Errorf("expected near-full-scale negative sample close to -1.0, got %v", samples[4])
	}
}

func TestWAVDecoderRejectsInvalidStream(t *testing.T) {
	bad := []byte("not a wav file at all, just some plain text padding")
	_, _, _, err := (WAVDecoder{}).Decode(sliceReader(bad), nil)
	if !errors.Is(err, errs.DecoderFailure) {
		t.Fatalf("expected errs.DecoderFailure, got %v", err)
	}
}

func TestWAVDecoderProgressCancellation(t *testing.T) {
	sr, ch := 8000, 1
	ints := make([]int, 1<<17)
	for i := range ints {
		ints[i] = i % 100
	}
	path := writeTestWAV(t, sr, ch, ints)

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	calls := 0
	_, _, _, err = (WAVDecoder{}).Decode(f, func(frac float64) bool {
		calls++
		return false
	})
	if !errors.Is(err, errs.Cancelled) {
		t.Fatalf("expected errs.Cancelled, got %v", err)
	}
	if calls == 0 {
		t.Fatal("expected progress callback to be invoked at least once")
	}
}

type sliceReaderT struct {
	data []byte
	pos  int
}

func sliceReader(b []byte) *sliceReaderT { return &sliceReaderT{data: b} }

func (r *sliceReaderT) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}
