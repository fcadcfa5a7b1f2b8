package mocks

import (
	"github.com/openbnet/presence/internal/dependencies/random"
)

// MockRandom is a mock implementation of Random for testing.
// Bytes is deterministic by default so tests can assert on derived
// credential material without queueing anything.
type MockRandom struct {
	// IntnResults is a queue of results to return from Intn
	IntnResults []int
	intnIndex   int

	// BytesResults is a queue of results to return from Bytes
	BytesResults [][]byte
	bytesIndex   int

	// StringResults is a queue of results to return from String
	StringResults []string
	stringIndex   int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// Intn returns the next queued result, or 0 if none remaining
func (r *MockRandom) Intn(n int) int {
	if r.intnIndex >= len(r.IntnResults) {
		return 0
	}
	result := r.IntnResults[r.intnIndex]
	r.intnIndex++
	return result
}

// Bytes returns the next queued result, or a deterministic ramp if none remaining
func (r *MockRandom) Bytes(n int) []byte {
	if r.bytesIndex < len(r.BytesResults) {
		result := r.BytesResults[r.bytesIndex]
		r.bytesIndex++
		return result
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

// String returns the next queued result, or empty string if none remaining
func (r *MockRandom) String(length int, alphabet string) string {
	if r.stringIndex >= len(r.StringResults) {
		return ""
	}
	result := r.StringResults[r.stringIndex]
	r.stringIndex++
	return result
}

// QueueIntn adds values to the Intn result queue
func (r *MockRandom) QueueIntn(values ...int) {
	r.IntnResults = append(r.IntnResults, values...)
}

// QueueBytes adds values to the Bytes result queue
func (r *MockRandom) QueueBytes(values ...[]byte) {
	r.BytesResults = append(r.BytesResults, values...)
}

// QueueString adds values to the String result queue
func (r *MockRandom) QueueString(values ...string) {
	r.StringResults = append(r.StringResults, values...)
}

// Reset clears all queued results
func (r *MockRandom) Reset() {
	r.IntnResults = nil
	r.intnIndex = 0
	r.BytesResults = nil
	r.bytesIndex = 0
	r.StringResults = nil
	r.stringIndex = 0
}
