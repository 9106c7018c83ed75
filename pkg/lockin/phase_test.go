package lockin

import (
	"testing"

	"github.com/jtarim/golockin/pkg/capture"
	"github.com/stretchr/testify/assert"
)

// frameWithRef builds a frame whose reference channel holds ref and whose
// input channel is all zero.
func frameWithRef(ref []uint16, refAvg uint16) capture.Frame {
	data := make([]uint16, 2*len(ref))
	for k, v := range ref {
		data[2*k] = v
	}
	return capture.Frame{Data: data, RefAvg: refAvg}
}

func TestFindOrigin(t *testing.T) {
	tests := []struct {
		name       string
		ref        []uint16
		refAvg     uint16
		wantOrigin int
		wantOK     bool
	}{
		{
			name:       "rising sawtooth crosses average once",
			ref:        []uint16{0, 1, 2, 3, 4, 5, 6, 7, 8, 9},
			refAvg:     5,
			wantOrigin: 10, // reference sample 5 is the first at or above the mean
			wantOK:     true,
		},
		{
			name:       "crossing straddles the wraparound",
			ref:        []uint16{9, 8, 7, 6, 5, 4, 3, 2, 1, 0},
			refAvg:     5,
			wantOrigin: 0, // predecessor of ref[0] is the final 0
			wantOK:     true,
		},
		{
			name:   "constant reference has no crossing",
			ref:    []uint16{7, 7, 7, 7, 7, 7},
			refAvg: 7,
			wantOK: false,
		},
		{
			name:   "all below average",
			ref:    []uint16{1, 2, 1, 2},
			refAvg: 10,
			wantOK: false,
		},
		{
			name:       "square wave locks on the rising edge",
			ref:        []uint16{0, 0, 0, 100, 100, 100, 0, 0, 0, 100},
			refAvg:     50,
			wantOrigin: 6, // ref[3], the first low-to-high transition scanning forward
			wantOK:     true,
		},
		{
			name:       "sample exactly at average counts as crossed",
			ref:        []uint16{0, 5, 9, 0},
			refAvg:     5,
			wantOrigin: 2,
			wantOK:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			origin, ok := FindOrigin(frameWithRef(tt.ref, tt.refAvg))
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantOrigin, origin)
			}
		})
	}
}

func TestFindOrigin_EmptyFrame(t *testing.T) {
	_, ok := FindOrigin(capture.Frame{})
	assert.False(t, ok)
}
