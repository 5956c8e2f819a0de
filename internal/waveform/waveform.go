// Package waveform computes and slices multi-resolution min/max envelopes
// of interleaved PCM data, used both for GUI overview rendering and as a
// read path the real-time thread never touches.
package waveform

// BinSizes are the fixed envelope resolutions, in frames, that every Cache
// maintains. Build scans the raw buffer once per resolution; Derive can
// compute a larger resolution from a smaller one that divides it.
var BinSizes = [4]int{10, 20, 50, 100}

// Level holds the min/max envelope for one channel at one bin size.
type Level struct {
	Bin int
	Min []float32
	Max []float32
}

// Cache holds, for each channel and each of BinSizes, a parallel Level.
// Cache is immutable once built; Slice returns a new, independent Cache.
type Cache struct {
	nChannels int
	nframes   int
	levels    [4][]Level // levels[binIdx][channel]
}

// Build scans an interleaved buffer of nframes frames across nChannels
// channels and computes every bin-size level from scratch.
func Build(buf []float32, nframes, nChannels int) *Cache {
	c := &Cache{nChannels: nChannels, nframes: nframes}
	for bi, bin := range BinSizes {
		c.levels[bi] = make([]Level, nChannels)
		for ch := 0; ch < nChannels; ch++ {
			c.levels[bi][ch] = computeLevel(buf, nframes, nChannels, ch, bin)
		}
	}
	return c
}

func computeLevel(buf []float32, nframes, nChannels, ch, bin int) Level {
	nBins := (nframes + bin - 1) / bin
	lv := Level{Bin: bin, Min: make([]float32, nBins), Max: make([]float32, nBins)}
	for j := 0; j < nBins; j++ {
		lo := j * bin
		hi := lo + bin
		if hi > nframes {
			hi = nframes
		}
		mn, mx := float32(0), float32(0)
		first := true
		for f := lo; f < hi; f++ {
			v := buf[f*nChannels+ch]
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
		lv.Min[j] = mn
		lv.Max[j] = mx
	}
	return lv
}

// NumChannels returns the channel count the cache was built for.
func (c *Cache) NumChannels() int { return c.nChannels }

// NumFrames returns the frame count the cache was built for.
func (c *Cache) NumFrames() int { return c.nframes }

// Level returns the min/max arrays for channel ch at the given bin size.
// ok is false if binSize is not one of BinSizes or ch is out of range.
func (c *Cache) Level(ch, binSize int) (Level, bool) {
	if ch < 0 || ch >= c.nChannels {
		return Level{}, false
	}
	for bi, bin := range BinSizes {
		if bin == binSize {
			return c.levels[bi][ch], true
		}
	}
	return Level{}, false
}

// Slice returns a new Cache covering only whole bins that lie entirely
// within [loFrame, hiFrame). Partial bins at either edge are dropped, per
// spec: "Slicing a cache keeps only whole bins that lie entirely within
// the slice."
func (c *Cache) Slice(loFrame, hiFrame int) *Cache {
	out := &Cache{nChannels: c.nChannels, nframes: hiFrame - loFrame}
	for bi, bin := range BinSizes {
		out.levels[bi] = make([]Level, c.nChannels)
		firstBin := (loFrame + bin - 1) / bin
		lastBin := hiFrame / bin // exclusive; bins fully inside [lo,hi)
		if lastBin < firstBin {
			lastBin = firstBin
		}
		for ch := 0; ch < c.nChannels; ch++ {
			src := c.levels[bi][ch]
			n := lastBin - firstBin
			if n < 0 {
				n = 0
			}
			if firstBin+n > len(src.Min) {
				n = len(src.Min) - firstBin
				if n < 0 {
					n = 0
				}
			}
			lv := Level{Bin: bin, Min: make([]float32, n), Max: make([]float32, n)}
			if n > 0 {
				copy(lv.Min, src.Min[firstBin:firstBin+n])
				copy(lv.Max, src.Max[firstBin:firstBin+n])
			}
			out.levels[bi][ch] = lv
		}
	}
	return out
}

// Derive builds the envelope for derivedBin, channel ch, from an existing
// finer-grained bin size srcBin, when derivedBin is an exact multiple of
// srcBin. It returns false if no such relationship holds or ch is out of
// range, so callers can fall back to Build on the raw buffer.
func Derive(src *Cache, ch, srcBin, derivedBin int) (Level, bool) {
	if derivedBin <= 0 || srcBin <= 0 || derivedBin%srcBin != 0 {
		return Level{}, false
	}
	srcLv, ok := src.Level(ch, srcBin)
	if !ok {
		return Level{}, false
	}
	factor := derivedBin / srcBin
	nBins := (len(srcLv.Min) + factor - 1) / factor
	lv := Level{Bin: derivedBin, Min: make([]float32, nBins), Max: make([]float32, nBins)}
	for j := 0; j < nBins; j++ {
		lo := j * factor
		hi := lo + factor
		if hi > len(srcLv.Min) {
			hi = len(srcLv.Min)
		}
		mn, mx := srcLv.Min[lo], srcLv.Max[lo]
		for k := lo + 1; k < hi; k++ {
			if srcLv.Min[k] < mn {
				mn = srcLv.Min[k]
			}
			if srcLv.Max[k] > mx {
				mx = srcLv.Max[k]
			}
		}
		lv.Min[j] = mn
		lv.Max[j] = mx
	}
	return lv, true
}
