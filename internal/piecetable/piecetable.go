// Package piecetable implements a persistent logical sequence assembled
// from slices of immutable audio segments. Every mutating operation
// returns a new PieceTable; the receiver is left untouched, so a PieceTable
// already in flight on the audio thread is always safe to keep reading.
//
// PieceTable is written as a concrete type over *segment.Segment rather
// than a Go generic: this codebase only ever instantiates it over one
// element type, and reaching for a type parameter with a single call site
// would only add indirection. history.StateHistory[T], by contrast, is
// genuinely instantiated over more than one type and stays generic.
package piecetable

import (
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/schollz/tapecore/internal/errs"
	"github.com/schollz/tapecore/internal/segment"
)

// piece is one slice of a segment placed at a logical offset in the table.
type piece struct {
	seg           *segment.Segment
	sliceStart    int // sample offset into seg
	sliceLen      int // samples
	logicalOffset int // samples, from the start of the table
}

func (p piece) logicalEnd() int { return p.logicalOffset + p.sliceLen }

// indexCache remembers the last piece touched by Index, so sequential
// access (typical of waveform drawing and the real-time read path) stays
// O(1) instead of paying a binary search every sample.
type indexCache struct {
	pieceIdx int
	lo, hi   int // logical range covered by pieces[pieceIdx]
}

// PieceTable is an immutable, persistent sequence of piece slices.
type PieceTable struct {
	pieces    []piece
	length    int
	nChannels int
	cache     atomic.Pointer[indexCache]
}

// Empty returns a zero-length table for the given channel count.
func Empty(nChannels int) *PieceTable {
	return &PieceTable{nChannels: nChannels}
}

// FromSegment returns a single-piece table spanning all of seg.
func FromSegment(seg *segment.Segment) *PieceTable {
	if seg.Len() == 0 {
		return Empty(seg.NumChannels())
	}
	return &PieceTable{
		pieces: []piece{{
			seg:           seg,
			sliceStart:    0,
			sliceLen:      seg.Len(),
			logicalOffset: 0,
		}},
		length:    seg.Len(),
		nChannels: seg.NumChannels(),
	}
}

// Length returns the table's length in samples.
func (t *PieceTable) Length() int { return t.length }

// NumChannels returns the channel count shared by every segment in the
// table.
func (t *PieceTable) NumChannels() int { return t.nChannels }

// NumPieces returns the number of pieces currently composing the table.
func (t *PieceTable) NumPieces() int { return len(t.pieces) }

// Index returns the sample at position i, 0 <= i < Length(). Amortized
// O(1) for sequential access via a single-entry atomic cache; O(log P)
// worst case via binary search over piece boundaries.
func (t *PieceTable) Index(i int) (float32, error) {
	if i < 0 || i >= t.length {
		return 0, fmt.Errorf("index %d out of [0,%d): %w", i, t.length, errs.InvalidRange)
	}
	if c := t.cache.Load(); c != nil && i >= c.lo && i < c.hi {
		p := t.pieces[c.pieceIdx]
		return p.seg.At(p.sliceStart + (i - p.logicalOffset)), nil
	}
	idx := t.findPiece(i)
	p := t.pieces[idx]
	t.cache.Store(&indexCache{pieceIdx: idx, lo: p.logicalOffset, hi: p.logicalEnd()})
	return p.seg.At(p.sliceStart + (i - p.logicalOffset)), nil
}

// findPiece returns the index of the piece covering logical position i via
// binary search over strictly increasing logicalOffsets.
func (t *PieceTable) findPiece(i int) int {
	return sort.Search(len(t.pieces), func(k int) bool {
		return t.pieces[k].logicalEnd() > i
	})
}

// ToArray materializes the entire table into a flat sample slice. Intended
// for tests and offline rendering, never the real-time path.
func (t *PieceTable) ToArray() []float32 {
	out := make([]float32, t.length)
	for _, p := range t.pieces {
		for k := 0; k < p.sliceLen; k++ {
			out[p.logicalOffset+k] = p.seg.At(p.sliceStart + k)
		}
	}
	return out
}

// splitAt returns a copy of pieces with whichever piece straddles logical
// position at divided into two, so at always falls on a piece boundary.
// at == 0 or at == total length is a no-op.
func splitAt(pieces []piece, at int) []piece {
	if at <= 0 {
		return pieces
	}
	idx := sort.Search(len(pieces), func(k int) bool {
		return pieces[k].logicalEnd() > at
	})
	if idx >= len(pieces) {
		return pieces // at == total length
	}
	p := pieces[idx]
	if p.logicalOffset == at {
		return pieces // already on a boundary
	}
	cut := at - p.logicalOffset
	left := piece{seg: p.seg, sliceStart: p.sliceStart, sliceLen: cut, logicalOffset: p.logicalOffset}
	right := piece{seg: p.seg, sliceStart: p.sliceStart + cut, sliceLen: p.sliceLen - cut, logicalOffset: at}

	out := make([]piece, 0, len(pieces)+1)
	out = append(out, pieces[:idx]...)
	out = append(out, left, right)
	out = append(out, pieces[idx+1:]...)
	return out
}

// sliceBetween returns the sub-slice of pieces whose logical range falls
// within [lo, hi), assuming lo and hi already fall on piece boundaries.
func sliceBetween(pieces []piece, lo, hi int) []piece {
	start := sort.Search(len(pieces), func(k int) bool { return pieces[k].logicalOffset >= lo })
	end := sort.Search(len(pieces), func(k int) bool { return pieces[k].logicalOffset >= hi })
	out := make([]piece, end-start)
	copy(out, pieces[start:end])
	return out
}

// shift rewrites every piece's logicalOffset by delta.
func shift(pieces []piece, delta int) []piece {
	if delta == 0 {
		return pieces
	}
	out := make([]piece, len(pieces))
	for i, p := range pieces {
		p.logicalOffset += delta
		out[i] = p
	}
	return out
}

// rebase returns pieces with logicalOffset fields recomputed to start at
// zero, preserving relative order and sizes.
func rebase(pieces []piece) []piece {
	out := make([]piece, len(pieces))
	off := 0
	for i, p := range pieces {
		p.logicalOffset = off
		out[i] = p
		off += p.sliceLen
	}
	return out
}

func validateRange(lo, hi, length int) error {
	if lo < 0 || hi < lo || hi > length {
		return fmt.Errorf("range [%d,%d) invalid for length %d: %w", lo, hi, length, errs.InvalidRange)
	}
	return nil
}

// Slice returns an independent table over [lo, hi) whose logicalOffsets
// start at zero.
func (t *PieceTable) Slice(lo, hi int) (*PieceTable, error) {
	if err := validateRange(lo, hi, t.length); err != nil {
		return nil, err
	}
	split := splitAt(t.pieces, lo)
	split = splitAt(split, hi)
	sub := sliceBetween(split, lo, hi)
	sub = rebase(sub)
	return &PieceTable{pieces: sub, length: hi - lo, nChannels: t.nChannels}, nil
}

// asPieces returns the piece list, length and channel count of an insert
// source: either another PieceTable (spliced piece-by-piece, preserving
// internal structure) or a single Segment.
func asPieces(src any) ([]piece, int, int, error) {
	switch v := src.(type) {
	case *PieceTable:
		cp := make([]piece, len(v.pieces))
		copy(cp, v.pieces)
		return rebase(cp), v.length, v.nChannels, nil
	case *segment.Segment:
		if v.Len() == 0 {
			return nil, 0, v.NumChannels(), nil
		}
		p := piece{seg: v, sliceStart: 0, sliceLen: v.Len(), logicalOffset: 0}
		return []piece{p}, v.Len(), v.NumChannels(), nil
	default:
		return nil, 0, 0, fmt.Errorf("unsupported insert source %T", src)
	}
}

func (t *PieceTable) insertAny(src any, lo int) (*PieceTable, error) {
	if lo < 0 || lo > t.length {
		return nil, fmt.Errorf("insert position %d invalid for length %d: %w", lo, t.length, errs.InvalidRange)
	}
	newPieces, newLen, nCh, err := asPieces(src)
	if err != nil {
		return nil, err
	}
	if newLen == 0 {
		cp := make([]piece, len(t.pieces))
		copy(cp, t.pieces)
		return &PieceTable{pieces: cp, length: t.length, nChannels: t.nChannels}, nil
	}
	if t.length > 0 && nCh != t.nChannels {
		return nil, fmt.Errorf("channel mismatch inserting %d-channel source into %d-channel table: %w", nCh, t.nChannels, errs.InvalidRange)
	}
	split := splitAt(t.pieces, lo)
	before := sliceBetween(split, 0, lo)
	after := sliceBetween(split, lo, t.length)

	inserted := shift(newPieces, lo)
	after = shift(after, newLen)

	out := make([]piece, 0, len(before)+len(inserted)+len(after))
	out = append(out, before...)
	out = append(out, inserted...)
	out = append(out, after...)

	ch := t.nChannels
	if t.length == 0 {
		ch = nCh
	}
	return &PieceTable{pieces: out, length: t.length + newLen, nChannels: ch}, nil
}

// Insert splices src piece-by-piece into the table at lo, splitting any
// piece that straddles lo. InsertSegment is the single-segment form.
func (t *PieceTable) Insert(src *PieceTable, lo int) (*PieceTable, error) {
	return t.insertAny(src, lo)
}

// InsertSegment splices a single segment into the table at lo.
func (t *PieceTable) InsertSegment(seg *segment.Segment, lo int) (*PieceTable, error) {
	return t.insertAny(seg, lo)
}

// Append adds src to the end of the table.
func (t *PieceTable) Append(src *PieceTable) (*PieceTable, error) {
	return t.Insert(src, t.length)
}

// AppendSegment adds a single segment to the end of the table.
func (t *PieceTable) AppendSegment(seg *segment.Segment) (*PieceTable, error) {
	return t.InsertSegment(seg, t.length)
}

// Remove deletes [lo, hi), splitting any pieces straddling either endpoint.
func (t *PieceTable) Remove(lo, hi int) (*PieceTable, error) {
	if err := validateRange(lo, hi, t.length); err != nil {
		return nil, err
	}
	if lo == hi {
		cp := make([]piece, len(t.pieces))
		copy(cp, t.pieces)
		return &PieceTable{pieces: cp, length: t.length, nChannels: t.nChannels}, nil
	}
	split := splitAt(t.pieces, lo)
	split = splitAt(split, hi)
	before := sliceBetween(split, 0, lo)
	after := sliceBetween(split, hi, t.length)
	after = shift(after, -(hi - lo))

	out := make([]piece, 0, len(before)+len(after))
	out = append(out, before...)
	out = append(out, after...)
	return &PieceTable{pieces: out, length: t.length - (hi - lo), nChannels: t.nChannels}, nil
}

// Replace is equivalent to Remove(lo,hi) followed by Insert(src,lo), done
// as a single derived table.
func (t *PieceTable) Replace(lo, hi int, src *PieceTable) (*PieceTable, error) {
	removed, err := t.Remove(lo, hi)
	if err != nil {
		return nil, err
	}
	return removed.Insert(src, lo)
}

// ReplaceSegment is the Segment-source convenience form of Replace.
func (t *PieceTable) ReplaceSegment(lo, hi int, seg *segment.Segment) (*PieceTable, error) {
	removed, err := t.Remove(lo, hi)
	if err != nil {
		return nil, err
	}
	return removed.InsertSegment(seg, lo)
}
