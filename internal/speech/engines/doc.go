// Package engines provides the speech engines: gtts (Google Translate TTS
// through gtts-cli and ffmpeg), piper (offline neural TTS) and mock.
package engines
