package transcript

// Chunk is a contiguous time window of the transcript sent to the model in one call.
type Chunk struct {
	Number    int
	StartTime float64
	EndTime   float64
	Text      string
	Segments  []Segment
}

// Split groups segments into windows of chunkMinutes. A segment belongs to the
// window containing its start time. Windows without any segment are skipped and
// do not consume a chunk number. A non-positive chunkMinutes yields a single
// chunk covering the whole transcript.
func Split(segments []Segment, chunkMinutes float64) []Chunk {
	if len(segments) == 0 {
		return nil
	}
	total := Duration(segments)
	if chunkMinutes <= 0 || total <= 0 {
		return []Chunk{newChunk(1, 0, total, segments)}
	}

	window := chunkMinutes * 60
	var chunks []Chunk
	for start := 0.0; start < total; start += window {
		members := StartingIn(segments, start, start+window)
		if len(members) == 0 {
			continue
		}
		end := start + window
		if end > total {
			end = total
		}
		chunks = append(chunks, newChunk(len(chunks)+1, start, end, members))
	}
	return chunks
}

func newChunk(number int, start, end float64, members []Segment) Chunk {
	return Chunk{
		Number:    number,
		StartTime: start,
		EndTime:   end,
		Text:      JoinText(members),
		Segments:  members,
	}
}
