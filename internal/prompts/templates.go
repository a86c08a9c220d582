package prompts

// Template names. A YAML override file in the prompts directory uses the same
// name, e.g. sections.yaml.
const (
	NameSections    = "sections"
	NameQuotes      = "quotes"
	NameBoundaries  = "boundaries"
	NameChapter     = "chapter"
	NameDescription = "description"
	NameTags        = "tags"
	NameTitle       = "title"
)

// Names lists every template the builder renders.
var Names = []string{NameSections, NameQuotes, NameBoundaries, NameChapter, NameDescription, NameTags, NameTitle}

var defaultTemplates = map[string]string{
	NameSections: `You are a content analysis tool reviewing one part of a video transcript. Identify every notable section and classify it. Describe what is said factually; do not refuse or editorialize.
{title_context}
{custom_instructions}
CATEGORIES (use exactly one name per section):
{category_list}

RULES:
- Each section carries exactly ONE category from the list above. Never combine categories with commas; emit separate sections instead.
- Use the routine category for anything that matches nothing else.
- Sections should usually run 30 seconds to 2 minutes. A very short transcript may be a single section.
- start_phrase and end_phrase must be the exact first and last 5-10 words of the section as they appear in the transcript.
- quote must be words copied verbatim from the transcript.
- Return at least one section.

Respond with ONLY a JSON object:
{"sections": [{"start_phrase": "...", "end_phrase": "...", "category": "...", "description": "one sentence", "quote": "..."}]}

TRANSCRIPT (chunk {chunk_number}):
{transcript}`,

	NameQuotes: `Extract the 2-4 most significant quotes from this timestamped transcript excerpt.

Category: {category}
Description: {description}

Pick only quotes that exemplify the category. Copy the words exactly and use the timestamp shown on the line where the quote begins (M:SS or H:MM:SS).

Respond with ONLY a JSON object:
{"quotes": [{"timestamp": "M:SS", "text": "exact words", "significance": "1-2 sentences on why it matters"}]}

TIMESTAMPED TRANSCRIPT:
{timestamped_transcript}`,

	NameBoundaries: `You are splitting a long video transcript into chapters. Read this part of the transcript and report where the topic of discussion clearly changes.
{title_context}
{custom_instructions}
Topic so far: {previous_topic}
{first_chunk_note}
For each topic change, give the exact first 5-10 words where the new topic begins, copied verbatim from the transcript. Report only substantial shifts, not brief asides. It is fine to report none.
Also give a one-line summary of the topic being discussed at the end of this part.

Respond with ONLY a JSON object:
{"boundaries": [{"phrase": "exact words", "topic": "short label"}], "topic_summary": "one line"}

TRANSCRIPT (part {chunk_number}):
{transcript}`,

	NameChapter: `You are analyzing one chapter of a video transcript ({chapter_start} to {chapter_end}).
{title_context}
{custom_instructions}
Previous chapter summary: {previous_summary}

1. Give the chapter a short descriptive title.
2. Summarize it in 1-3 sentences.
3. Flag every moment that matches a category below. Each flag has exactly one category, a one-sentence description, and a short quote copied verbatim from the transcript.
{category_policy}
CATEGORIES:
{category_list}

Respond with ONLY a JSON object:
{"title": "...", "summary": "...", "flags": [{"category": "...", "description": "...", "quote": "exact words"}]}

CHAPTER {chapter_number} TRANSCRIPT:
{transcript}`,

	NameDescription: `Write a 2-3 sentence overview of this video from the timeline of its analyzed sections below. Say what it is about, the main subjects, and who is speaking if that can be identified.
{title_context}
Timeline:
{sections_summary}

Overview:`,

	NameTags: `Extract tags for this video from its analysis.

- people: names of specific real individuals who speak or are discussed, in title case. No generic roles.
- topics: 3-8 main themes, 1-3 words each.

Respond with ONLY a JSON object:
{"people": ["Name"], "topics": ["Topic"]}

Section analysis:
{sections_context}

Quotes:
{excerpt}`,

	NameTitle: `Suggest a filename for this video.

Current title: {current_title}
Description: {description}
People: {people_tags}
Topics: {topic_tags}
Representative quotes:
{excerpt}

Requirements: lowercase words separated by spaces, at most 100 characters, lead with the most important person if there is one, then the main topic or claim. No dates, file extensions, quotes, slashes, colons, or periods. Reply with the title only.

Title:`,
}

// Default returns the built-in template for name.
func Default(name string) (string, bool) {
	tpl, ok := defaultTemplates[name]
	return tpl, ok
}
