// Package export writes detection results: the coordinate list, an annotated
// copy of the input, and the optional score map.
package export

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"pcb-viacv/internal/via"
)

// WriteCoords writes one "(x,y)" line per via in detection order.
func WriteCoords(w io.Writer, vias []via.Via) error {
	bw := bufio.NewWriter(w)
	for _, v := range vias {
		if _, err := fmt.Fprintln(bw, v.Anchor.String()); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// SaveCoords writes the coordinate list to path.
func SaveCoords(path string, vias []via.Via) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create coords file: %w", err)
	}
	if err := WriteCoords(f, vias); err != nil {
		f.Close()
		return fmt.Errorf("failed to write coords: %w", err)
	}
	return f.Close()
}
