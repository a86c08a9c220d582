package analysis

import (
	"regexp"
	"strconv"
)

// Capacity sizes the work sent to a model in one call.
type Capacity struct {
	// ChunkMinutes is the span of transcript per boundary-detection chunk.
	ChunkMinutes float64
	// MaxChars caps the transcript text embedded in one prompt.
	MaxChars int
}

var paramSizePattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)b\b`)

// capacityTiers is ordered by ascending parameter count.
var capacityTiers = []struct {
	maxBillions float64
	capacity    Capacity
}{
	{3, Capacity{ChunkMinutes: 5, MaxChars: 8000}},
	{8, Capacity{ChunkMinutes: 10, MaxChars: 16000}},
	{14, Capacity{ChunkMinutes: 15, MaxChars: 24000}},
	{34, Capacity{ChunkMinutes: 20, MaxChars: 32000}},
}

var (
	largeModelCapacity   = Capacity{ChunkMinutes: 30, MaxChars: 48000}
	defaultModelCapacity = Capacity{ChunkMinutes: 10, MaxChars: 16000}
)

// ModelSize extracts the parameter count in billions from a model identifier
// such as "qwen2.5:7b" or "llama-3.1-70b-instruct".
func ModelSize(model string) (float64, bool) {
	matches := paramSizePattern.FindAllStringSubmatch(model, -1)
	if len(matches) == 0 {
		return 0, false
	}
	size, err := strconv.ParseFloat(matches[len(matches)-1][1], 64)
	if err != nil || size <= 0 {
		return 0, false
	}
	return size, true
}

// CapacityFor returns the capacity for model. Models without a size suffix
// get the mid-size capacity.
func CapacityFor(model string) Capacity {
	size, ok := ModelSize(model)
	if !ok {
		return defaultModelCapacity
	}
	for _, tier := range capacityTiers {
		if size <= tier.maxBillions {
			return tier.capacity
		}
	}
	return largeModelCapacity
}
