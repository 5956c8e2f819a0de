// Package region implements Region: a named, positioned view over a
// Sequence, with slice bounds, a global timeline offset, a mute flag, and
// the sample-editing verbs (gain, normalize, reverse, fade, stretch,
// shrink) that translate into Sequence.replace calls.
//
// A Region's slice bounds and global offset are read from the real-time
// mixing path (sampleAtGlobal), so they live behind atomics the same way
// Sequence's current state does; the mu mutex below only serializes the
// edit-domain read-modify-write sequences (shrink, the sequence-change
// callback) that touch more than one of those atomics at once.
package region

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/schollz/tapecore/internal/dsp"
	"github.com/schollz/tapecore/internal/errs"
	"github.com/schollz/tapecore/internal/piecetable"
	"github.com/schollz/tapecore/internal/segment"
	"github.com/schollz/tapecore/internal/sequence"
)

// Region is a named window into a Sequence's current piece table.
type Region struct {
	Name string

	seq       *sequence.Sequence
	nChannels int

	sliceStart   atomic.Int64
	sliceEnd     atomic.Int64
	globalOffset atomic.Int64
	muted        atomic.Bool

	cached atomic.Pointer[piecetable.PieceTable]

	mu         sync.Mutex
	registered bool
	linkID     sequence.LinkID
}

// New constructs a Region over [sliceStart, sliceEnd) frames of seq,
// placed at globalOffset on its track's timeline. It does not register the
// Region as a link on seq — that is an explicit caller choice made via
// Register (soft copies) rather than automatic.
func New(name string, seq *sequence.Sequence, sliceStart, sliceEnd, globalOffset int) (*Region, error) {
	nframes := seq.NumFrames()
	if sliceStart < 0 || sliceStart > sliceEnd || sliceEnd > nframes {
		return nil, fmt.Errorf("region bounds [%d,%d) invalid for sequence of %d frames: %w", sliceStart, sliceEnd, nframes, errs.InvalidRange)
	}
	r := &Region{Name: name, seq: seq, nChannels: seq.NumChannels()}
	r.sliceStart.Store(int64(sliceStart))
	r.sliceEnd.Store(int64(sliceEnd))
	r.globalOffset.Store(int64(globalOffset))
	if err := r.refreshCache(); err != nil {
		return nil, err
	}
	return r, nil
}

// Register adds the Region as a link on its source Sequence, making it a
// "soft copy" that reacts to edits made through any sibling Region or
// directly on the Sequence. No-op if already registered.
func (r *Region) Register() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.registered {
		return
	}
	r.linkID = r.seq.AddLink(r)
	r.registered = true
}

// Unregister removes the Region from its source Sequence's link set.
// No-op if not registered.
func (r *Region) Unregister() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.registered {
		return
	}
	r.seq.RemoveLink(r.linkID)
	r.registered = false
}

// SoftCopy returns a new Region over the same Sequence with the same
// bounds, already registered so it tracks edits made via any sibling
// Region (including r itself).
func (r *Region) SoftCopy(name string) (*Region, error) {
	nr, err := New(name, r.seq, int(r.sliceStart.Load()), int(r.sliceEnd.Load()), int(r.globalOffset.Load()))
	if err != nil {
		return nil, err
	}
	nr.Register()
	return nr, nil
}

// HardCopy clones the Sequence's current content in [sliceStart,sliceEnd)
// into a brand-new, independent Sequence and returns a Region over it.
// Unlike SoftCopy, later edits to r's original Sequence never affect the
// result.
func (r *Region) HardCopy(name string, sampleRate int) (*Region, error) {
	start, end := int(r.sliceStart.Load()), int(r.sliceEnd.Load())
	pt, err := r.seq.Slice(start*r.nChannels, end*r.nChannels)
	if err != nil {
		return nil, err
	}
	newSeq := sequence.NewFromPieceTable(name, sampleRate, r.nChannels, pt)
	return New(name, newSeq, 0, end-start, int(r.globalOffset.Load()))
}

// SliceStart, SliceEnd, GlobalOffset, NumFrames, Muted are real-time-safe
// scalar reads; SetMuted is the edit-domain write.
func (r *Region) SliceStart() int   { return int(r.sliceStart.Load()) }
func (r *Region) SliceEnd() int     { return int(r.sliceEnd.Load()) }
func (r *Region) GlobalOffset() int { return int(r.globalOffset.Load()) }
func (r *Region) NumChannels() int  { return r.nChannels }
func (r *Region) NumFrames() int    { return int(r.sliceEnd.Load() - r.sliceStart.Load()) }
func (r *Region) Muted() bool       { return r.muted.Load() }

func (r *Region) SetMuted(muted bool) { r.muted.Store(muted) }

func (r *Region) refreshCache() error {
	start, end := int(r.sliceStart.Load()), int(r.sliceEnd.Load())
	pt, err := r.seq.Slice(start*r.nChannels, end*r.nChannels)
	if err != nil {
		return err
	}
	r.cached.Store(pt)
	return nil
}

// OnSequenceChanged implements sequence.Link: a region whose sliceEnd lies
// at or past the edit's starting frame shifts its sliceEnd by the same
// delta the sequence just grew or shrank by, clamped to
// [sliceStart, newNFrames]. A region entirely before the edit is left
// untouched.
func (r *Region) OnSequenceChanged(prevNFrames, newNFrames, editAtFrame int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adjustLocked(prevNFrames, newNFrames, editAtFrame)
	r.refreshCache()
}

// adjustLocked mutates sliceStart/sliceEnd for a sequence length change of
// delta = newNFrames-prevNFrames. Must be called with mu held.
func (r *Region) adjustLocked(prevNFrames, newNFrames, editAtFrame int) {
	delta := newNFrames - prevNFrames
	start := int(r.sliceStart.Load())
	end := int(r.sliceEnd.Load())
	if delta != 0 && end >= editAtFrame {
		end += delta
	}
	if end < start {
		end = start
	}
	if end > newNFrames {
		end = newNFrames
	}
	if start > newNFrames {
		start = newNFrames
	}
	if start > end {
		start = end
	}
	r.sliceStart.Store(int64(start))
	r.sliceEnd.Store(int64(end))
}

// localSlice returns an independent piece-table view of [loLocal, hiLocal)
// region-local frames, read fresh from the Sequence rather than from the
// (possibly stale) cached pointer.
func (r *Region) localSlice(loLocal, hiLocal int) (*piecetable.PieceTable, error) {
	start := int(r.sliceStart.Load())
	return r.seq.Slice((start+loLocal)*r.nChannels, (start+hiLocal)*r.nChannels)
}

// replaceLocal performs an edit over [loLocal,hiLocal) region-local frames
// by replacing the corresponding Sequence range with seg, then updates this
// Region's own geometry and cache to match. A registered Region is already
// updated by its own OnSequenceChanged during the replace; an unregistered
// one is updated here, so the adjustment is applied exactly once either
// way.
func (r *Region) replaceLocal(loLocal, hiLocal int, seg *segment.Segment) error {
	start := int(r.sliceStart.Load())
	seqLo := (start + loLocal) * r.nChannels
	seqHi := (start + hiLocal) * r.nChannels
	prevFrames := r.seq.NumFrames()
	if err := r.seq.ReplaceSegment(seqLo, seqHi, seg); err != nil {
		return err
	}
	newFrames := r.seq.NumFrames()
	r.mu.Lock()
	if !r.registered {
		r.adjustLocked(prevFrames, newFrames, start+loLocal)
		r.refreshCache()
	}
	r.mu.Unlock()
	return nil
}

// SampleAtGlobal is the real-time-safe read path: returns the sample at
// channel ch, global frame position frame, or 0 if frame falls outside the
// region's current global extent.
func (r *Region) SampleAtGlobal(ch, frame int) float32 {
	off := int(r.globalOffset.Load())
	n := int(r.sliceEnd.Load() - r.sliceStart.Load())
	local := frame - off
	if local < 0 || local >= n || ch < 0 || ch >= r.nChannels {
		return 0
	}
	pt := r.cached.Load()
	if pt == nil {
		return 0
	}
	v, err := pt.Index(local*r.nChannels + ch)
	if err != nil {
		return 0
	}
	return v
}

// SliceLocal returns an independent piece-table view over [lo,hi) of this
// region's own local frame coordinates.
func (r *Region) SliceLocal(lo, hi int) (*piecetable.PieceTable, error) {
	return r.localSlice(lo, hi)
}

// WaveformMinMax answers a waveform-overview query for nBins consecutive
// bins of binSize frames each, starting at sampleOffset local frames,
// channel ch. It scans the region's current cached slice directly rather
// than stitching per-piece WaveformCache levels, which is simpler and
// correct but not as cheap as a cache-level stitch would be — acceptable
// here since the result is for GUI display, not the real-time path.
func (r *Region) WaveformMinMax(ch, binSize, sampleOffset, nBins int) (mins, maxs []float32, err error) {
	if ch < 0 || ch >= r.nChannels {
		return nil, nil, fmt.Errorf("channel %d out of range: %w", ch, errs.InvalidRange)
	}
	pt := r.cached.Load()
	if pt == nil {
		return nil, nil, fmt.Errorf("region has no cached slice: %w", errs.InvalidRange)
	}
	avail := pt.Length() / r.nChannels
	mins = make([]float32, nBins)
	maxs = make([]float32, nBins)
	for b := 0; b < nBins; b++ {
		lo := sampleOffset + b*binSize
		hi := lo + binSize
		if hi > avail {
			hi = avail
		}
		if lo >= hi || lo < 0 {
			continue
		}
		mn, mx := float32(0), float32(0)
		first := true
		for f := lo; f < hi; f++ {
			v, ierr := pt.Index(f*r.nChannels + ch)
			if ierr != nil {
				continue
			}
			if first {
				mn, mx = v, v
				first = false
				continue
			}
			if v < mn {
				mn = v
			}
			if v > mx {
				mx = v
			}
		}
		mins[b], maxs[b] = mn, mx
	}
	return mins, maxs, nil
}

// Gain multiplies [loLocal,hiLocal) by 10^(dB/20).
func (r *Region) Gain(loLocal, hiLocal int, dB float64) error {
	pt, err := r.localSlice(loLocal, hiLocal)
	if err != nil {
		return err
	}
	buf := pt.ToArray()
	factor := float32(math.Pow(10, dB/20))
	out := make([]float32, len(buf))
	for i, v := range buf {
		out[i] = v * factor
	}
	return r.replaceLocal(loLocal, hiLocal, segment.New(out, r.nChannels))
}

// GainAll applies Gain across the whole region.
func (r *Region) GainAll(dB float64) error {
	return r.Gain(0, r.NumFrames(), dB)
}

// Normalize scales [loLocal,hiLocal) so its peak absolute sample equals
// 10^(maxDB/20). A silent input is left unchanged.
func (r *Region) Normalize(loLocal, hiLocal int, maxDB float64) error {
	pt, err := r.localSlice(loLocal, hiLocal)
	if err != nil {
		return err
	}
	buf := pt.ToArray()
	peak := float32(0)
	for _, v := range buf {
		av := v
		if av < 0 {
			av = -av
		}
		if av > peak {
			peak = av
		}
	}
	if peak == 0 {
		return nil
	}
	target := float32(math.Pow(10, maxDB/20))
	factor := target / peak
	out := make([]float32, len(buf))
	for i, v := range buf {
		out[i] = v * factor
	}
	return r.replaceLocal(loLocal, hiLocal, segment.New(out, r.nChannels))
}

// NormalizeAll applies Normalize across the whole region.
func (r *Region) NormalizeAll(maxDB float64) error {
	return r.Normalize(0, r.NumFrames(), maxDB)
}

// Reverse reverses the raw interleaved sample buffer of [loLocal,hiLocal)
// end to end. For multi-channel audio this is a literal buffer reversal,
// not a per-channel time-reverse: a stereo frame's L/R pair swaps with the
// mirrored frame's L/R pair rather than each channel reversing on its own.
func (r *Region) Reverse(loLocal, hiLocal int) error {
	pt, err := r.localSlice(loLocal, hiLocal)
	if err != nil {
		return err
	}
	buf := pt.ToArray()
	out := make([]float32, len(buf))
	n := len(buf)
	for i, v := range buf {
		out[n-1-i] = v
	}
	return r.replaceLocal(loLocal, hiLocal, segment.New(out, r.nChannels))
}

// FadeIn applies a linear ramp i/(hi-lo) across [loLocal,hiLocal).
func (r *Region) FadeIn(loLocal, hiLocal int) error {
	return r.fade(loLocal, hiLocal, false)
}

// FadeOut applies a linear ramp 1-i/(hi-lo) across [loLocal,hiLocal).
func (r *Region) FadeOut(loLocal, hiLocal int) error {
	return r.fade(loLocal, hiLocal, true)
}

func (r *Region) fade(loLocal, hiLocal int, out bool) error {
	pt, err := r.localSlice(loLocal, hiLocal)
	if err != nil {
		return err
	}
	buf := pt.ToArray()
	nFrames := hiLocal - loLocal
	result := make([]float32, len(buf))
	for f := 0; f < nFrames; f++ {
		mult := float32(f) / float32(nFrames)
		if out {
			mult = 1 - mult
		}
		for ch := 0; ch < r.nChannels; ch++ {
			result[f*r.nChannels+ch] = buf[f*r.nChannels+ch] * mult
		}
	}
	return r.replaceLocal(loLocal, hiLocal, segment.New(result, r.nChannels))
}

// StretchSubregion feeds [loLocal,hiLocal) to stretcher at ratio and
// replaces it with the stretched result.
func (r *Region) StretchSubregion(stretcher dsp.Stretcher, loLocal, hiLocal int, ratio float64) error {
	pt, err := r.localSlice(loLocal, hiLocal)
	if err != nil {
		return err
	}
	out := stretcher.Stretch(pt.ToArray(), r.nChannels, ratio)
	return r.replaceLocal(loLocal, hiLocal, segment.New(out, r.nChannels))
}

// StretchThreePoint moves an onset from srcLocal to destLocal within
// [startLocal,endLocal], stretching the material on either side of the
// onset independently so the span's total length is unchanged. When
// leftSrc/rightSrc are non-nil they are used as the stretch input for
// their half instead of the region's current audio, so repeated onset
// moves compound from the original material rather than from
// progressively re-stretched audio. When linkChannels is false, only
// channel chIdx is stretched; the remaining channels are resampled by
// nearest-frame lookup into the original material, left untouched by the
// stretcher.
func (r *Region) StretchThreePoint(stretcher dsp.Stretcher, startLocal, srcLocal, destLocal, endLocal int, linkChannels bool, chIdx int, leftSrc, rightSrc *piecetable.PieceTable) error {
	if !(startLocal <= srcLocal && srcLocal <= endLocal && startLocal <= destLocal && destLocal <= endLocal) {
		return fmt.Errorf("stretchThreePoint endpoints out of order: %w", errs.InvalidRange)
	}
	leftIn, err := r.halfInput(leftSrc, startLocal, srcLocal)
	if err != nil {
		return err
	}
	rightIn, err := r.halfInput(rightSrc, srcLocal, endLocal)
	if err != nil {
		return err
	}
	leftRatio := ratioOf(destLocal-startLocal, srcLocal-startLocal)
	rightRatio := ratioOf(endLocal-destLocal, endLocal-srcLocal)
	leftOut := stretchHalf(stretcher, leftIn, r.nChannels, leftRatio, linkChannels, chIdx)
	rightOut := stretchHalf(stretcher, rightIn, r.nChannels, rightRatio, linkChannels, chIdx)
	out := make([]float32, 0, len(leftOut)+len(rightOut))
	out = append(out, leftOut...)
	out = append(out, rightOut...)
	return r.replaceLocal(startLocal, endLocal, segment.New(out, r.nChannels))
}

func (r *Region) halfInput(src *piecetable.PieceTable, lo, hi int) ([]float32, error) {
	if src != nil {
		return src.ToArray(), nil
	}
	pt, err := r.localSlice(lo, hi)
	if err != nil {
		return nil, err
	}
	return pt.ToArray(), nil
}

func ratioOf(outFrames, inFrames int) float64 {
	if inFrames <= 0 {
		return 1
	}
	return float64(outFrames) / float64(inFrames)
}

func stretchHalf(stretcher dsp.Stretcher, in []float32, nCh int, ratio float64, linkChannels bool, chIdx int) []float32 {
	if linkChannels || nCh <= 1 {
		return stretcher.Stretch(in, nCh, ratio)
	}
	inFrames := len(in) / nCh
	if inFrames == 0 {
		return nil
	}
	mono := make([]float32, inFrames)
	for f := 0; f < inFrames; f++ {
		mono[f] = in[f*nCh+chIdx]
	}
	stretchedCh := stretcher.Stretch(mono, 1, ratio)
	outFrames := len(stretchedCh)
	out := make([]float32, outFrames*nCh)
	for f := 0; f < outFrames; f++ {
		srcF := f * inFrames / outFrames
		if srcF >= inFrames {
			srcF = inFrames - 1
		}
		for ch := 0; ch < nCh; ch++ {
			if ch == chIdx {
				out[f*nCh+ch] = stretchedCh[f]
			} else {
				out[f*nCh+ch] = in[srcF*nCh+ch]
			}
		}
	}
	return out
}

// ShrinkResult reports the outcome of ShrinkStart/ShrinkEnd.
type ShrinkResult struct {
	OK    bool
	Delta int
}

// ShrinkStart moves the region's left edge to newGlobalStart, clipped so
// sliceStart never leaves [0, sliceEnd]. The underlying Sequence is never
// touched — only the region's own window changes.
func (r *Region) ShrinkStart(newGlobalStart int) ShrinkResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	globalOff := int(r.globalOffset.Load())
	start := int(r.sliceStart.Load())
	end := int(r.sliceEnd.Load())

	wantDelta := newGlobalStart - globalOff
	newStart := start + wantDelta
	if newStart < 0 {
		newStart = 0
	}
	if newStart > end {
		newStart = end
	}
	actualDelta := newStart - start
	if actualDelta == 0 {
		return ShrinkResult{OK: false, Delta: 0}
	}
	r.sliceStart.Store(int64(newStart))
	r.globalOffset.Store(int64(globalOff + actualDelta))
	r.refreshCache()
	return ShrinkResult{OK: true, Delta: actualDelta}
}

// ShrinkEnd moves the region's right edge to newGlobalEnd, clipped so
// sliceEnd never leaves [sliceStart, sequence.nframes].
func (r *Region) ShrinkEnd(newGlobalEnd int) ShrinkResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	globalOff := int(r.globalOffset.Load())
	start := int(r.sliceStart.Load())
	end := int(r.sliceEnd.Load())
	nframes := r.seq.NumFrames()

	curGlobalEnd := globalOff + (end - start)
	wantDelta := newGlobalEnd - curGlobalEnd
	newEnd := end + wantDelta
	if newEnd < start {
		newEnd = start
	}
	if newEnd > nframes {
		newEnd = nframes
	}
	actualDelta := newEnd - end
	if actualDelta == 0 {
		return ShrinkResult{OK: false, Delta: 0}
	}
	r.sliceEnd.Store(int64(newEnd))
	r.refreshCache()
	return ShrinkResult{OK: true, Delta: actualDelta}
}
