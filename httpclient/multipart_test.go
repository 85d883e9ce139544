package httpclient

import (
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type decodedPart struct {
	name, filename, contentType, data string
}

func decodeMultipart(t *testing.T, reader io.Reader, contentType string) []decodedPart {
	t.Helper()
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		t.Fatalf("ParseMediaType error: %v", err)
	}
	if mediaType != "multipart/form-data" {
		t.Fatalf("media type = %q, want multipart/form-data", mediaType)
	}
	var parts []decodedPart
	mr := multipart.NewReader(reader, params["boundary"])
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("NextPart error: %v", err)
		}
		data, _ := io.ReadAll(part)
		parts = append(parts, decodedPart{part.FormName(), part.FileName(), part.Header.Get("Content-Type"), string(data)})
	}
	return parts
}

func TestMultipartBody_Encode_FieldOrder(t *testing.T) {
	mp := &MultipartBody{Fields: map[string]string{"task": "transcribe", "language": "de", "output": "json"}}
	reader, contentType, err := mp.encode()
	if err != nil {
		t.Fatalf("encode() error: %v", err)
	}
	parts := decodeMultipart(t, reader, contentType)
	var names []string
	for _, p := range parts {
		names = append(names, p.name)
	}
	if got := strings.Join(names, ","); got != "language,output,task" {
		t.Errorf("field order = %s, want sorted", got)
	}
}

func TestMultipartBody_Encode_Files(t *testing.T) {
	tests := []struct {
		name     string
		file     FileField
		wantType string
	}{
		{"data with type", FileField{FieldName: "audio_file", FileName: "audio.webm", ContentType: "audio/webm", Data: []byte("webm")}, "audio/webm"},
		{"data default type", FileField{FieldName: "audio_file", FileName: "audio.wav", Data: []byte("webm")}, "application/octet-stream"},
		{"reader", FileField{FieldName: "audio_file", FileName: "audio.ogg", Reader: strings.NewReader("webm")}, "application/octet-stream"},
		{"quoted name", FileField{FieldName: "audio_file", FileName: `a"b.mp3`, Data: []byte("webm")}, "application/octet-stream"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mp := &MultipartBody{Files: []FileField{tc.file}}
			reader, contentType, err := mp.encode()
			if err != nil {
				t.Fatalf("encode() error: %v", err)
			}
			parts := decodeMultipart(t, reader, contentType)
			if len(parts) != 1 {
				t.Fatalf("expected 1 part, got %d", len(parts))
			}
			p := parts[0]
			if p.name != "audio_file" || p.filename != tc.file.FileName {
				t.Errorf("part = %+v", p)
			}
			if p.contentType != tc.wantType {
				t.Errorf("content type = %q, want %q", p.contentType, tc.wantType)
			}
			if p.data != "webm" {
				t.Errorf("data = %q, want webm", p.data)
			}
		})
	}
}

func TestClient_Do_Multipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/asr" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("ParseMultipartForm error: %v", err)
		}
		if got := r.FormValue("language"); got != "de" {
			t.Errorf("language = %q, want de", got)
		}
		file, header, err := r.FormFile("audio_file")
		if err != nil {
			t.Fatalf("FormFile error: %v", err)
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if header.Filename != "audio.webm" || string(data) != "audio bytes" {
			t.Errorf("file = %s %q", header.Filename, data)
		}
		_, _ = w.Write([]byte(`{"text":"hallo"}`))
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	resp, err := c.Do(t.Context(), Request{
		Method: http.MethodPost,
		Path:   "/asr",
		Body: &MultipartBody{
			Fields: map[string]string{"language": "de"},
			Files:  []FileField{{FieldName: "audio_file", FileName: "audio.webm", Data: []byte("audio bytes")}},
		},
	})
	if err != nil {
		t.Fatalf("Do() error: %v", err)
	}
	if got := resp.Text(); got != `{"text":"hallo"}` {
		t.Errorf("body = %q", got)
	}
}
