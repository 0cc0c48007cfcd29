package transport

import (
	"bytes"
	"errors"
	"testing"
)

func TestDecodeFrames(t *testing.T) {
	tests := []struct {
		name    string
		frames  [][]byte
		want    InboundEnvelope
		wantErr bool
	}{
		{name: "no frames", frames: nil, wantErr: true},
		{name: "payload only", frames: [][]byte{[]byte("{}")}, wantErr: true},
		{name: "missing identity", frames: [][]byte{{}, []byte("{}")}, wantErr: true},
		{
			name:   "identity delimiter payload",
			frames: [][]byte{[]byte("peer-1"), {}, []byte(`{"endpoint":"list"}`)},
			want: InboundEnvelope{
				Identity:  []byte("peer-1"),
				Delimiter: []byte{},
				Payload:   []byte(`{"endpoint":"list"}`),
			},
		},
		{
			name:   "extra leading frames",
			frames: [][]byte{[]byte("hop"), []byte("peer-2"), {}, []byte("x")},
			want: InboundEnvelope{
				Identity:  []byte("peer-2"),
				Delimiter: []byte{},
				Payload:   []byte("x"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeFrames(tt.frames)
			if tt.wantErr {
				if !errors.Is(err, ErrFrameFormat) {
					t.Fatalf("error = %v, want ErrFrameFormat", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeFrames: %v", err)
			}
			if !bytes.Equal(got.Identity, tt.want.Identity) ||
				!bytes.Equal(got.Delimiter, tt.want.Delimiter) ||
				!bytes.Equal(got.Payload, tt.want.Payload) {
				t.Errorf("DecodeFrames = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestReplyFrames(t *testing.T) {
	in := InboundEnvelope{
		Identity:  []byte{0, 0x80, 0x00, 0x41, 0xa7},
		Delimiter: []byte("odd-delimiter"),
		Payload:   []byte("request"),
	}

	frames := in.Reply([]byte(`{"price":"10.01"}`)).Frames()
	if len(frames) != 3 {
		t.Fatalf("len(frames) = %d, want 3", len(frames))
	}
	if !bytes.Equal(frames[0], in.Identity) {
		t.Errorf("identity = %x, want %x", frames[0], in.Identity)
	}
	if !bytes.Equal(frames[1], in.Delimiter) {
		t.Errorf("delimiter = %q, want %q", frames[1], in.Delimiter)
	}
	if string(frames[2]) != `{"price":"10.01"}` {
		t.Errorf("payload = %s", frames[2])
	}
}
