// Package models defines the data model for podcast analysis results and
// the local history cache.
//
// [AnalysisResult] is the structured summary produced by the remote service.
// [HistoryEntry] is one previously completed analysis as the remote store
// reports it; [CachedAnalysis] wraps an entry for local persistence.
package models
