// Package sequence implements Sequence: a PieceTable wrapped in undo
// history, with a sample rate, channel count, name, and a set of
// non-owning links that are notified whenever the piece table changes.
//
// Cyclic references (Region -> Sequence -> Links -> Region) are avoided by
// design: Sequence holds Links as weak, non-owning handles. A Region's
// lifetime belongs to its Track, not to the Sequence it reads from;
// registering/unregistering a link is an explicit caller action.
package sequence

import (
	"sync"

	"github.com/schollz/tapecore/internal/history"
	"github.com/schollz/tapecore/internal/piecetable"
	"github.com/schollz/tapecore/internal/segment"
)

// Link is the non-owning callback interface a Region (or any other
// observer) registers on a Sequence. OnSequenceChanged is invoked
// synchronously, from the edit-domain goroutine that performed the
// mutation, while the Sequence's lock is held — implementations must not
// re-enter the same Sequence.
//
// editAtFrame is the frame position the edit started at (Insert/Remove/
// Replace's lo, or the prior length for Append). Undo and Redo can
// restore a piece table shaped by a whole series of past edits, so they
// report editAtFrame 0 — "treat the entire sequence as possibly
// affected" — rather than a single position. A region combines this with
// prevNFrames/newNFrames to shift sliceEnd by Δ only when
// sliceEnd >= editAtFrame, falling back to the coarser "grew/shrank by Δ"
// treatment for the undo/redo case, where every region is conservatively
// re-evaluated.
type Link interface {
	OnSequenceChanged(prevNFrames, newNFrames, editAtFrame int)
}

// LinkID identifies a registered Link so it can later be removed.
type LinkID int

// Sequence owns a PieceTable inside StateHistory and a set of links.
type Sequence struct {
	Name       string
	SampleRate int

	mu         sync.Mutex
	nChannels  int
	hist       *history.StateHistory[*piecetable.PieceTable]
	links      map[LinkID]Link
	nextLinkID LinkID
}

// New creates an empty Sequence with the given sample rate and channel
// count.
func New(name string, sampleRate, nChannels int) *Sequence {
	return &Sequence{
		Name:       name,
		SampleRate: sampleRate,
		nChannels:  nChannels,
		hist:       history.New(piecetable.Empty(nChannels)),
		links:      make(map[LinkID]Link),
	}
}

// NewFromSegment creates a Sequence whose initial content is seg.
func NewFromSegment(name string, sampleRate int, seg *segment.Segment) *Sequence {
	return &Sequence{
		Name:       name,
		SampleRate: sampleRate,
		nChannels:  seg.NumChannels(),
		hist:       history.New(piecetable.FromSegment(seg)),
		links:      make(map[LinkID]Link),
	}
}

// NewFromPieceTable creates a Sequence whose initial state is pt directly,
// used by Region.hardCopy to snapshot a subregion into a standalone
// Sequence without re-deriving it from a flattened sample buffer.
func NewFromPieceTable(name string, sampleRate, nChannels int, pt *piecetable.PieceTable) *Sequence {
	return &Sequence{
		Name:       name,
		SampleRate: sampleRate,
		nChannels:  nChannels,
		hist:       history.New(pt),
		links:      make(map[LinkID]Link),
	}
}

// NumChannels returns the sequence's channel count.
func (s *Sequence) NumChannels() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nChannels
}

// Current returns the currently published piece table. Safe to call
// without the sequence lock — this is the real-time-safe read path.
func (s *Sequence) Current() *piecetable.PieceTable {
	return s.hist.Current()
}

// NumFrames returns the current length of the sequence in frames.
func (s *Sequence) NumFrames() int {
	pt := s.Current()
	if s.nChannels == 0 {
		return 0
	}
	return pt.Length() / s.nChannels
}

// Index returns the sample at raw sample index i of the current state.
func (s *Sequence) Index(i int) (float32, error) {
	return s.Current().Index(i)
}

// Slice returns an independent piece-table view of the current state over
// [lo, hi) sample indices. Does not mutate the sequence.
func (s *Sequence) Slice(lo, hi int) (*piecetable.PieceTable, error) {
	return s.Current().Slice(lo, hi)
}

// AddLink registers a non-owning observer notified on every subsequent
// change. Does not retroactively notify for past changes.
func (s *Sequence) AddLink(l Link) LinkID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextLinkID
	s.nextLinkID++
	s.links[id] = l
	return id
}

// RemoveLink unregisters a previously added link. No-op if id is unknown.
func (s *Sequence) RemoveLink(id LinkID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.links, id)
}

// notifyLinks calls every registered link's OnSequenceChanged. Called with
// the sequence lock held, after the new state has already been published.
func (s *Sequence) notifyLinks(prevNFrames, newNFrames, editAtFrame int) {
	for _, l := range s.links {
		l.OnSequenceChanged(prevNFrames, newNFrames, editAtFrame)
	}
}

// mutate serializes one state-appending operation: compute the next piece
// table purely, push it to history (atomically publishing it), then
// notify links while still holding the lock, so no other mutation can run
// between publication and notification. Lock-free readers (Current, Slice,
// Index) may see the new table before the links have been told about it.
// editAtSample is the raw sample index the edit starts at; it is
// converted to a frame position before links are notified.
func (s *Sequence) mutate(editAtSample int, fn func(cur *piecetable.PieceTable) (*piecetable.PieceTable, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.hist.Current()
	prevNFrames := 0
	if s.nChannels > 0 {
		prevNFrames = cur.Length() / s.nChannels
	}

	next, err := fn(cur)
	if err != nil {
		return err
	}
	s.hist.Push(next)
	newNFrames := 0
	editAtFrame := 0
	if s.nChannels > 0 {
		newNFrames = next.Length() / s.nChannels
		editAtFrame = editAtSample / s.nChannels
	}
	s.notifyLinks(prevNFrames, newNFrames, editAtFrame)
	return nil
}

// Insert splices src into the sequence at sample position lo.
func (s *Sequence) Insert(src *piecetable.PieceTable, lo int) error {
	return s.mutate(lo, func(cur *piecetable.PieceTable) (*piecetable.PieceTable, error) {
		return cur.Insert(src, lo)
	})
}

// InsertSegment splices a single segment into the sequence at lo.
func (s *Sequence) InsertSegment(seg *segment.Segment, lo int) error {
	return s.mutate(lo, func(cur *piecetable.PieceTable) (*piecetable.PieceTable, error) {
		return cur.InsertSegment(seg, lo)
	})
}

// Append adds src to the end of the sequence.
func (s *Sequence) Append(src *piecetable.PieceTable) error {
	s.mu.Lock()
	lo := s.hist.Current().Length()
	s.mu.Unlock()
	return s.mutate(lo, func(cur *piecetable.PieceTable) (*piecetable.PieceTable, error) {
		return cur.Append(src)
	})
}

// AppendSegment adds a single segment to the end of the sequence.
func (s *Sequence) AppendSegment(seg *segment.Segment) error {
	s.mu.Lock()
	lo := s.hist.Current().Length()
	s.mu.Unlock()
	return s.mutate(lo, func(cur *piecetable.PieceTable) (*piecetable.PieceTable, error) {
		return cur.AppendSegment(seg)
	})
}

// Remove deletes [lo, hi) from the sequence.
func (s *Sequence) Remove(lo, hi int) error {
	return s.mutate(lo, func(cur *piecetable.PieceTable) (*piecetable.PieceTable, error) {
		return cur.Remove(lo, hi)
	})
}

// Replace replaces [lo, hi) with src.
func (s *Sequence) Replace(lo, hi int, src *piecetable.PieceTable) error {
	return s.mutate(lo, func(cur *piecetable.PieceTable) (*piecetable.PieceTable, error) {
		return cur.Replace(lo, hi, src)
	})
}

// ReplaceSegment replaces [lo, hi) with a single segment.
func (s *Sequence) ReplaceSegment(lo, hi int, seg *segment.Segment) error {
	return s.mutate(lo, func(cur *piecetable.PieceTable) (*piecetable.PieceTable, error) {
		return cur.ReplaceSegment(lo, hi, seg)
	})
}

// Undo re-publishes the previous state and notifies links identically to
// an edit. Because segments are immutable, undoing restores the exact
// byte ranges of the original audio — no data is recomputed. Links are
// notified with editAtFrame 0: an undo can unwind any prior edit, so every
// region must re-evaluate its slice rather than assume a single position.
func (s *Sequence) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.hist.Current()
	prevNFrames := framesOf(prev, s.nChannels)
	next, ok := s.hist.Undo()
	if !ok {
		return false
	}
	s.notifyLinks(prevNFrames, framesOf(next, s.nChannels), 0)
	return true
}

// Redo re-publishes the next state and notifies links, with the same
// editAtFrame 0 convention as Undo.
func (s *Sequence) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.hist.Current()
	prevNFrames := framesOf(prev, s.nChannels)
	next, ok := s.hist.Redo()
	if !ok {
		return false
	}
	s.notifyLinks(prevNFrames, framesOf(next, s.nChannels), 0)
	return true
}

// CanUndo reports whether Undo would have an effect.
func (s *Sequence) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hist.CanUndo()
}

// CanRedo reports whether Redo would have an effect.
func (s *Sequence) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hist.CanRedo()
}

func framesOf(pt *piecetable.PieceTable, nChannels int) int {
	if nChannels == 0 {
		return 0
	}
	return pt.Length() / nChannels
}
