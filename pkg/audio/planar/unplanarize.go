package planar

import (
	"fmt"
)

// Unplanarize interleaves per-channel slices of equal length into a single
// slice (L R L R ...). It appends to output and returns the result.
func Unplanarize[T any](output []T, input ...[]T) ([]T, error) {
	if len(input) == 0 {
		return output, fmt.Errorf("no channels provided")
	}
	samplesPerChan := len(input[0])
	for ch := range input {
		if len(input[ch]) != samplesPerChan {
			return output, fmt.Errorf("the lengths of channels are not equal: %d != %d (channel %d)", len(input[ch]), samplesPerChan, ch)
		}
	}

	if len(input) == 1 {
		return append(output, input[0]...), nil
	}

	start := len(output)
	var zero T
	for i := 0; i < samplesPerChan*len(input); i++ {
		output = append(output, zero)
	}
	for ch := range input {
		outIdx := start + ch
		for samplePos := 0; samplePos < samplesPerChan; samplePos++ {
			output[outIdx] = input[ch][samplePos]
			outIdx += len(input)
		}
	}
	return output, nil
}
