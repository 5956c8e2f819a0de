package dsp

import "testing"

func TestLinearStretcherOutputLength(t *testing.T) {
	in := make([]float32, 100) // 100 mono frames
	for i := range in {
		in[i] = float32(i)
	}
	s := NewLinearStretcher()
	out := s.Stretch(in, 1, 2.0)
	if len(out) != 200 {
		t.Fatalf("expected 200 output frames, got %d", len(out))
	}
	// Stretching should preserve the overall ramp shape at the endpoints.
	if out[0] != in[0] {
		t.Errorf("expected first sample preserved, got %v want %v", out[0], in[0])
	}
}

func TestLinearStretcherShrink(t *testing.T) {
	in := make([]float32, 100)
	for i := range in {
		in[i] = float32(i)
	}
	s := NewLinearStretcher()
	out := s.Stretch(in, 1, 0.5)
	if len(out) != 50 {
		t.Fatalf("expected 50 output frames, got %d", len(out))
	}
}

func TestLinearStretcherStereo(t *testing.T) {
	in := []float32{0, 0, 1, -1, 2, -2, 3, -3}
	s := NewLinearStretcher()
	out := s.Stretch(in, 2, 1.0)
	if len(out) != len(in) {
		t.Fatalf("expected identity-length output at ratio 1, got %d", len(out))
	}
}

func TestEnergyOnsetDetectorFindsStep(t *testing.T) {
	nframes := 400
	samples := make([]float32, nframes)
	for i := 0; i < nframes; i++ {
		if i >= 200 {
			samples[i] = 1.0
		}
	}
	d := NewEnergyOnsetDetector()
	onsets := d.DetectOnsets(samples, 1, 50, 25, 0.5, 0.01)
	if len(onsets) == 0 {
		t.Fatal("expected at least one onset to be detected at the energy step")
	}
	found := false
	for _, o := range onsets {
		if o >= 150 && o <= 250 {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an onset near frame 200, got %v", onsets)
	}
}

func TestEnergyOnsetDetectorIgnoresSilence(t *testing.T) {
	samples := make([]float32, 400)
	d := NewEnergyOnsetDetector()
	onsets := d.DetectOnsets(samples, 1, 50, 25, 0.1, 0.01)
	if len(onsets) != 0 {
		t.Errorf("expected no onsets in pure silence, got %v", onsets)
	}
}
