// Package audio plays synthesized speech through the system audio device
// using the oto/v3 library. Speech arrives as signed 16-bit little-endian
// mono PCM.
package audio
