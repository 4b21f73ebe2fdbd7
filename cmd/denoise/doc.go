// Command denoise trains, tests and applies a magnitude-domain speech
// enhancement network.
//
// Usage:
//
//	denoise train [-m checkpoint]
//	denoise test -m checkpoint
//	denoise infer -m checkpoint -i input [-o output]
//	denoise pack -n noisy_dir -c clean_dir -o archive.samp
//	denoise spectrogram [--mels n] <audio_file>
//	denoise config
//
// Settings come from config.yaml (see --config), environment variables
// prefixed with DENOISE_ and the defaults printed by denoise config.
//
// Supported input formats: .wav, .flac
package main
