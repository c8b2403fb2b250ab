package engine

// CaptionSegment is one caption line as returned by the upstream fetcher.
type CaptionSegment struct {
	OffsetMs   int64  `json:"offsetMs"`
	DurationMs int64  `json:"durationMs,omitempty"`
	Text       string `json:"text"`
}

// --- Single transcript ---

// TranscriptInput is the input for the youtube_transcript tool.
type TranscriptInput struct {
	VideoID string `json:"videoId" jsonschema:"YouTube video ID (e.g. dQw4w9WgXcQ) or watch URL"`
}

// TranscriptOutput is a formatted transcript with timing metadata.
type TranscriptOutput struct {
	VideoID          string `json:"videoId"`
	Transcript       string `json:"transcript"`
	Segments         int    `json:"segments"`
	ProcessingTimeMs int64  `json:"processingTimeMs"`
	Timestamp        string `json:"timestamp"`
}

// --- Bulk transcripts ---

// BulkTranscriptInput is the input for the youtube_bulk_transcript tool.
type BulkTranscriptInput struct {
	VideoIDs []string `json:"videoIds" jsonschema:"YouTube video IDs or watch URLs, processed in order"`
}

// ItemMetadata carries per-item counters of a batch result.
type ItemMetadata struct {
	Segments         int   `json:"segments,omitempty"`
	ProcessingTimeMs int64 `json:"processingTimeMs"`
}

// BatchItem is the outcome for one video of a batch: either a transcript or an error.
type BatchItem struct {
	VideoID    string       `json:"videoId"`
	Success    bool         `json:"success"`
	Transcript string       `json:"transcript,omitempty"`
	Error      string       `json:"error,omitempty"`
	Metadata   ItemMetadata `json:"metadata"`
}

// BatchSummary aggregates a batch run. Total == Successful + Failed.
type BatchSummary struct {
	Total            int    `json:"total"`
	Successful       int    `json:"successful"`
	Failed           int    `json:"failed"`
	ProcessingTimeMs int64  `json:"processingTimeMs"`
	Timestamp        string `json:"timestamp"`
}

// BatchOutput is the structured output of a batch run.
type BatchOutput struct {
	Results []BatchItem  `json:"results"`
	Summary BatchSummary `json:"summary"`
}
