package request

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"testing"
	"time"
)

func TestNewDefaults(t *testing.T) {
	d, err := New("https://api.example.com/items")
	if err != nil {
		t.Fatal(err)
	}
	if d.Method() != GET || d.Timeout() != DefaultTimeout || d.ShouldCache() || d.HasBody() {
		t.Fatalf("unexpected defaults: %+v", d)
	}
}

func TestNewRejectsInvalidURL(t *testing.T) {
	for _, raw := range []string{"", "not a url", "/relative/only", "://x"} {
		if _, err := New(raw); !errors.Is(err, ErrInvalidURL) {
			t.Errorf("New(%q): expected ErrInvalidURL, got %v", raw, err)
		}
	}
}

func TestDescriptorIsImmutable(t *testing.T) {
	body := []byte(`{"a":1}`)
	d := MustNew("https://x.test/p", WithBody(body), WithHeader("X-A", "1"))

	body[0] = '['
	if string(d.Body()) != `{"a":1}` {
		t.Fatalf("body aliased caller slice: %q", d.Body())
	}
	got := d.Body()
	got[0] = '['
	if string(d.Body()) != `{"a":1}` {
		t.Fatalf("Body() leaked internal slice")
	}
	h := d.Headers()
	h.Set("X-A", "2")
	if d.Headers().Get("X-A") != "1" {
		t.Fatalf("Headers() leaked internal map")
	}
	u := d.URL()
	u.Path = "/other"
	if d.URL().Path != "/p" {
		t.Fatalf("URL() leaked internal pointer")
	}
}

func TestWithQueryMergesIntoURL(t *testing.T) {
	d := MustNew("https://x.test/search?q=old&page=1", WithQuery(map[string]string{"q": "new"}))
	q := d.URL().Query()
	if q.Get("q") != "new" || q.Get("page") != "1" {
		t.Fatalf("query = %v", q)
	}
}

func TestWithTimeoutIgnoresNonPositive(t *testing.T) {
	if d := MustNew("https://x.test", WithTimeout(0)); d.Timeout() != DefaultTimeout {
		t.Fatalf("got %v", d.Timeout())
	}
	if d := MustNew("https://x.test", WithTimeout(time.Second)); d.Timeout() != time.Second {
		t.Fatalf("got %v", d.Timeout())
	}
}

func TestCredentialsToken(t *testing.T) {
	cases := []struct {
		c    Credentials
		want string
	}{
		{Credentials{AccessToken: "abc", TokenType: "Bearer"}, "Bearer abc"},
		{Credentials{AccessToken: "abc", TokenType: "bearer"}, "Bearer abc"},
		{Credentials{AccessToken: "abc", TokenType: "mac"}, "abc"},
		{Credentials{}, ""},
	}
	for _, tc := range cases {
		if got := tc.c.Token(); got != tc.want {
			t.Errorf("Token(%+v) = %q want %q", tc.c, got, tc.want)
		}
	}
	d := MustNew("https://x.test", WithCredentials(Credentials{AccessToken: "t", TokenType: "bearer"}))
	if d.Headers().Get("Authorization") != "Bearer t" {
		t.Fatalf("Authorization = %q", d.Headers().Get("Authorization"))
	}
}

func TestWithJSONBody(t *testing.T) {
	d := MustNew("https://x.test", WithMethod("post"), WithJSONBody(map[string]int{"n": 1}))
	if d.Method() != POST {
		t.Fatalf("method = %q", d.Method())
	}
	if string(d.Body()) != `{"n":1}` || d.Headers().Get("Content-Type") != "application/json" {
		t.Fatalf("body=%q ct=%q", d.Body(), d.Headers().Get("Content-Type"))
	}
}

func TestWithMultipartFile(t *testing.T) {
	d := MustNew("https://x.test/upload", WithMethod(POST),
		WithMultipartFile("", "logo.svg", "image/svg+xml", []byte("<svg/>")))

	mt, params, err := mime.ParseMediaType(d.Headers().Get("Content-Type"))
	if err != nil || mt != "multipart/form-data" {
		t.Fatalf("content type %q err=%v", mt, err)
	}
	r := multipart.NewReader(bytes.NewReader(d.Body()), params["boundary"])
	part, err := r.NextPart()
	if err != nil {
		t.Fatal(err)
	}
	if part.FormName() != "file" || part.FileName() != "logo.svg" {
		t.Fatalf("part name=%q file=%q", part.FormName(), part.FileName())
	}
	data, _ := io.ReadAll(part)
	if string(data) != "<svg/>" {
		t.Fatalf("part data %q", data)
	}
}
