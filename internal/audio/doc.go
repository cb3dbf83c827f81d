// Package audio plays short feedback cues for menu navigation.
// It uses the beep library to play WAV, OGG, and MP3 audio files
// with volume control and one sound per cue.
package audio
