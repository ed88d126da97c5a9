package kernel

import "testing"

func TestBufferPoolReusesTileSizedBuffer(t *testing.T) {
	p := newBufferPool(4)
	img := p.get(4, 4)
	img.Pix[0] = 42
	p.put(img)

	reused := p.get(4, 4)
	if reused != img {
		t.Fatalf("expected the tile-sized fast path to return the same buffer")
	}
	if reused.Pix[0] != 0 {
		t.Fatalf("reused buffer should be cleared, got %d", reused.Pix[0])
	}
}

func TestBufferPoolKeepsOddSizesSeparateFromTiles(t *testing.T) {
	p := newBufferPool(4)
	odd := p.get(3, 2)
	p.put(odd)

	// A tile-sized request must never receive the odd-sized buffer back.
	tile := p.get(4, 4)
	if tile == odd {
		t.Fatalf("tile-sized get returned an odd-sized buffer")
	}

	reusedOdd := p.get(3, 2)
	if reusedOdd != odd {
		t.Fatalf("expected the odd-size pool to return the buffer put back earlier")
	}
}

func TestBufferPoolPutNilIsNoop(t *testing.T) {
	p := newBufferPool(4)
	p.put(nil) // must not panic
}
