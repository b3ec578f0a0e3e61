package feed

import (
	"bytes"
	"io"
	"testing"
	"testing/iotest"
)

func TestBOMSkippingReader(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{
			name:     "file with BOM",
			input:    append([]byte{0xEF, 0xBB, 0xBF}, []byte("stop_id,stop_name")...),
			expected: "stop_id,stop_name",
		},
		{
			name:     "file without BOM",
			input:    []byte("stop_id,stop_name"),
			expected: "stop_id,stop_name",
		},
		{
			name:     "empty file",
			input:    []byte{},
			expected: "",
		},
		{
			name:     "only BOM",
			input:    []byte{0xEF, 0xBB, 0xBF},
			expected: "",
		},
		{
			name:     "partial BOM at start",
			input:    []byte{0xEF, 0xBB, 'a', 'b', 'c'},
			expected: string([]byte{0xEF, 0xBB, 'a', 'b', 'c'}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := NewBOMSkippingReader(bytes.NewReader(tt.input))
			result, err := io.ReadAll(reader)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(result) != tt.expected {
				t.Errorf("got %q, want %q", string(result), tt.expected)
			}
		})
	}
}

func TestUTF8Sanitizer(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{"ascii", []byte("hello"), "hello"},
		{"valid multibyte", []byte("Gare du Nord – Paris"), "Gare du Nord – Paris"},
		{"invalid byte", []byte{'a', 0xFF, 'b'}, "a?b"},
		{"truncated sequence at end", []byte{'a', 0xE2, 0x80}, "a??"},
		{"replacement char kept", []byte("a�b"), "a�b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := io.ReadAll(NewUTF8Sanitizer(bytes.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(result) != tt.expected {
				t.Errorf("got %q, want %q", string(result), tt.expected)
			}
		})
	}
}

func TestUTF8Sanitizer_SplitAcrossReads(t *testing.T) {
	input := []byte("Zürich Hauptbahnhof – Gleis 3")
	// OneByteReader forces every multi-byte rune to straddle reads.
	r := NewUTF8Sanitizer(iotest.OneByteReader(bytes.NewReader(input)))

	var out bytes.Buffer
	buf := make([]byte, 2)
	for {
		n, err := r.Read(buf)
		out.Write(buf[:n])
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if out.String() != string(input) {
		t.Errorf("got %q, want %q", out.String(), string(input))
	}
}

func TestWrapForStreaming_CountsBytes(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte("id\n1\n")...)
	r := WrapForStreaming(bytes.NewReader(input), 5)

	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != "id\n1\n" {
		t.Errorf("got %q", got)
	}
	if r.BytesRead() != 5 {
		t.Errorf("BytesRead() = %d, want 5", r.BytesRead())
	}
	if r.Progress() != 100 {
		t.Errorf("Progress() = %d, want 100", r.Progress())
	}
	if NewCountingReader(bytes.NewReader(nil), 0).Progress() != 0 {
		t.Error("Progress() with unknown total != 0")
	}
}
