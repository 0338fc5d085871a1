// Package pipeline implements the candidate scoring and aggregation pipeline.
//
// Rows fetched from the data source flow through four stages:
//
//   - Normalize converts heterogeneous publication rows into canonical
//     domain.Publication values and never fails.
//   - Deduplicate collapses records that refer to the same paper.
//   - Summarize and the cross-university functions (ConferenceDistribution,
//     TopicHeatmap, EmergingTopics, AcademicOutput) aggregate publications.
//   - ScoreCandidate derives radar dimensions and the ranking score.
//
// Aggregate wires the stages together for the browse view. Every function in
// this package is pure: it keeps no state between calls and never mutates
// its input, so concurrent calls with the same rows return identical output.
package pipeline
