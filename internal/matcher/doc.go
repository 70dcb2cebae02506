// Package matcher picks the YouTube video that best matches a Spotify track.
//
// Matching runs in three steps:
//
// 1. [GenerateQueries] builds search strings from the track, most specific first, using
// [CleanTitle] to strip featured artists, remix suffixes, years and other annotations.
//
// 2. [BestMatch] scores the candidates returned for one query with [Score] and accepts
// the strictly highest one when it reaches [MinScore].
//
// 3. [Confidence] turns the accepted candidate into a 0..1 estimate for reports.
//
// All comparisons are case-insensitive substring tests.
package matcher
