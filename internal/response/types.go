package response

// Section is a model-claimed span of interest. Phrases are unverified free text
// and Category is unvalidated.
type Section struct {
	StartPhrase string
	EndPhrase   string
	Category    string
	Description string
	Quote       string
}

// Quote is a model-extracted quotation with its claimed timestamp.
type Quote struct {
	Timestamp    string `json:"timestamp"`
	Text         string `json:"text"`
	Significance string `json:"significance"`
}

// Boundaries is the boundary-detection reply for one chunk.
type Boundaries struct {
	// Phrases are the opening words of each new topic, in reply order.
	Phrases []string
	// TopicSummary is the rolling one-line summary carried to the next chunk.
	TopicSummary string
}

// Flag is a chapter-level category claim.
type Flag struct {
	Category    string
	Description string
	Quote       string
}

// ChapterAnalysis is the per-chapter reply of the two-pass pipeline.
type ChapterAnalysis struct {
	Title   string
	Summary string
	Flags   []Flag
}

// Tags are the people and topics extracted for a video.
type Tags struct {
	People []string `json:"people"`
	Topics []string `json:"topics"`
}
