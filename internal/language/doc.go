// Package language provides language code normalization for transcription
// submissions.
//
// It maps ISO 639-1/639-2 codes, English word forms, and BCP 47 tags to the
// two-letter codes the transcription server accepts, and applies the
// regional-variant rewrite: dialects such as Swiss German ("gsw") are sent as
// their base language and can auto-select a dedicated model.
package language
