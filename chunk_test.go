package byteflow

import "testing"

func TestChunkCopiesInput(t *testing.T) {
	src := []byte("original")
	c := NewChunk(src)
	src[0] = 'X'

	if c.String() != "original" {
		t.Fatalf("chunk mutated through source slice: %q", c.String())
	}
}

func TestConcatOrder(t *testing.T) {
	c := Concat(ChunkOfString("ab"), ChunkOfString("cd"), ChunkOfString("ef"))
	if c.String() != "abcdef" {
		t.Fatalf("got %q, want %q", c.String(), "abcdef")
	}
}

func TestConcatIdentity(t *testing.T) {
	if Concat().Len() != 0 {
		t.Fatal("empty concat must be the empty chunk")
	}
	// empty chunk is the identity
	c := Concat(Chunk{}, ChunkOfString("data"), Chunk{})
	if c.String() != "data" {
		t.Fatalf("got %q, want %q", c.String(), "data")
	}
	// associativity
	left := Concat(Concat(ChunkOfString("a"), ChunkOfString("b")), ChunkOfString("c"))
	right := Concat(ChunkOfString("a"), Concat(ChunkOfString("b"), ChunkOfString("c")))
	if left.String() != right.String() {
		t.Fatalf("concat not associative: %q vs %q", left.String(), right.String())
	}
}
