package compress

// NoOpCompressor stores baskets as framed.
type NoOpCompressor struct{}

var _ Codec = (*NoOpCompressor)(nil)

// NewNoOpCompressor returns the pass-through codec.
func NewNoOpCompressor() NoOpCompressor {
	return NoOpCompressor{}
}

// Compress returns data itself. Callers that reuse their framing buffer
// must copy the result before the next basket.
func (c NoOpCompressor) Compress(data []byte) ([]byte, error) {
	return data, nil
}

// Decompress returns data itself after checking it against rawLen.
func (c NoOpCompressor) Decompress(data []byte, rawLen int) ([]byte, error) {
	return checkRawLength(data, rawLen)
}
