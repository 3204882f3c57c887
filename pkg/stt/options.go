package stt

type WhisperOptions struct {
	Language      string // "en" when empty
	Threads       int    // <=0 => NumCPU()
	BeamSize      int    // 0 = greedy
	InitialPrompt string
}
