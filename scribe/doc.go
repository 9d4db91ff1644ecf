// Package scribe is the transcription service: the pipeline that stages an
// upload, sends it to a speech-to-text provider, groups the words into
// speaker segments and keeps an audit copy, plus the HTTP handler, the
// websocket event feed and the inbox watcher built on it.
package scribe
