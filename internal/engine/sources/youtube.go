package sources

// YouTube implementation is split across three files by responsibility:
//   youtube_innertube.go  — Innertube API types, endpoints, and low-level HTTP primitives
//   youtube_transcript.go — caption fetching (watch page, engagement panel, ANDROID player)
//                           and timedtext parsing into engine.CaptionSegment
//   fetcher.go            — YouTubeFetcher, the rate-limited entry point used by transcripts
