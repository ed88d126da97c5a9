package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHalfAndScaledAreInverse(t *testing.T) {
	p := XY{X: 3.5, Y: -2.25}
	assert.Equal(t, p, p.Half().Scaled(2))
}

func TestScaledByOneIsIdentity(t *testing.T) {
	p := XY{X: 7, Y: 11}
	assert.Equal(t, p, p.Scaled(1))
}

func TestIntTruncatesTowardZero(t *testing.T) {
	assert.Equal(t, TileAddress2D{X: 3, Y: -3}, XY{X: 3.9, Y: -3.9}.Int())
}

func TestTileAddressString(t *testing.T) {
	a := TileAddress{Z: 5, X: 12, Y: 7}
	assert.Equal(t, "5/12-7", a.String())
}
