package speech

import (
	"bytes"
	"testing"
)

func TestProtocolEncoding(t *testing.T) {
	payload := []byte(`{"audio":{"format":"wav"}}`)
	original := CreateFullClientRequest(payload, NoCompression)

	encoded, err := EncodeMessage(original)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(encoded) != 4+4+len(payload) {
		t.Fatalf("encoded length = %d, want %d", len(encoded), 8+len(payload))
	}

	decoded, err := DecodeMessage(bytes.NewReader(encoded))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Header.MessageType != FullClientRequest {
		t.Errorf("message type = %v, want %v", decoded.Header.MessageType, FullClientRequest)
	}
	if decoded.Header.SerializationMethod != JSONSerialization {
		t.Errorf("serialization = %v, want json", decoded.Header.SerializationMethod)
	}
	if !bytes.Equal(decoded.Payload, payload) {
		t.Errorf("payload = %q, want %q", decoded.Payload, payload)
	}
}

func TestAudioOnlyRequestSequence(t *testing.T) {
	tests := []struct {
		name     string
		sequence int32
		isLast   bool
		wantSeq  int32
		wantLast bool
	}{
		{name: "middle chunk", sequence: 3, wantSeq: 3},
		{name: "last chunk", sequence: 4, isLast: true, wantSeq: -4, wantLast: true},
		{name: "last without sequence", sequence: 0, isLast: true, wantSeq: 0, wantLast: true},
	}

	for _, tt := range tests {
		msg := CreateAudioOnlyRequest([]byte{1, 2, 3}, tt.sequence, tt.isLast, NoCompression)
		encoded, err := EncodeMessage(msg)
		if err != nil {
			t.Fatalf("%s: encode: %v", tt.name, err)
		}
		decoded, err := DecodeMessage(bytes.NewReader(encoded))
		if err != nil {
			t.Fatalf("%s: decode: %v", tt.name, err)
		}
		if decoded.Sequence != tt.wantSeq {
			t.Errorf("%s: sequence = %d, want %d", tt.name, decoded.Sequence, tt.wantSeq)
		}
		if decoded.IsLastPacket() != tt.wantLast {
			t.Errorf("%s: last = %v, want %v", tt.name, decoded.IsLastPacket(), tt.wantLast)
		}
	}
}

func TestDecodeErrorMessage(t *testing.T) {
	msg := &Message{
		Header:      NewHeader(ErrorMessage, NoSequenceNumber, JSONSerialization, NoCompression),
		ErrorCode:   45000001,
		PayloadSize: 7,
		Payload:     []byte("bad req"),
	}
	encoded, err := EncodeMessage(msg)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	decoded, err := DecodeMessage(bytes.NewReader(encoded))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.ErrorCode != 45000001 {
		t.Errorf("error code = %d", decoded.ErrorCode)
	}
	if string(decoded.Payload) != "bad req" {
		t.Errorf("payload = %q", decoded.Payload)
	}
}

func TestDecodeRejectsUnknownVersion(t *testing.T) {
	if _, err := DecodeMessage(bytes.NewReader([]byte{0x21, 0x10, 0x10, 0x00, 0, 0, 0, 0})); err == nil {
		t.Fatal("expected version error")
	}
}

func TestCompressionRoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte("tell me about yourself. "), 20)

	compressed, err := CompressPayload(data, GzipCompression)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	if len(compressed) >= len(data) {
		t.Errorf("compressed size %d not smaller than %d", len(compressed), len(data))
	}

	restored, err := DecompressPayload(compressed, GzipCompression)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if !bytes.Equal(restored, data) {
		t.Error("decompressed data differs from original")
	}

	if _, err := CompressPayload(data, CompressionMethod(0b1111)); err == nil {
		t.Error("expected unsupported compression error")
	}
}
