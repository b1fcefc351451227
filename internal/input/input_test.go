package input

import (
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"
)

// errAfterReader yields its payload, then fails every subsequent read.
type errAfterReader struct {
	r    io.Reader
	done bool
}

func (e *errAfterReader) Read(p []byte) (int, error) {
	if e.done {
		return 0, errors.New("broken pipe")
	}
	n, err := e.r.Read(p)
	if err == io.EOF {
		e.done = true
		return n, errors.New("broken pipe")
	}
	return n, err
}

func TestFromReader_ExplicitPassthrough(t *testing.T) {
	cases := []struct {
		name     string
		explicit []string
	}{
		{"single id", []string{"ENG-1"}},
		{"multiple ids", []string{"ENG-1", "ENG-2"}},
		{"duplicates preserved", []string{"ENG-1", "ENG-1"}},
		{"empty strings preserved", []string{"", "ENG-1", ""}},
		{"dash among others", []string{"-", "a"}},
		{"dash not first", []string{"a", "-"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := strings.NewReader("should-not-be-read\n")
			got := FromReader(tc.explicit, r)
			if !reflect.DeepEqual(got, tc.explicit) {
				t.Errorf("FromReader(%v) = %v, want unchanged", tc.explicit, got)
			}
			if r.Len() != len("should-not-be-read\n") {
				t.Error("reader was consumed for explicit arguments")
			}
		})
	}
}

func TestFromReader_EmptyReadsStream(t *testing.T) {
	got := FromReader(nil, strings.NewReader("  abc \n\ndef\n   \nghi"))
	want := []string{"abc", "def", "ghi"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFromReader_DashReadsStream(t *testing.T) {
	got := FromReader([]string{"-"}, strings.NewReader("abc\ndef\n"))
	want := []string{"abc", "def"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFromReader_DashAndEmptyEquivalent(t *testing.T) {
	const in = "one\ntwo\n"
	fromEmpty := FromReader([]string{}, strings.NewReader(in))
	fromDash := FromReader([]string{"-"}, strings.NewReader(in))
	if !reflect.DeepEqual(fromEmpty, fromDash) {
		t.Errorf("empty args gave %v, dash gave %v", fromEmpty, fromDash)
	}
}

func TestFromReader_ReadErrorTreatedAsEOF(t *testing.T) {
	r := &errAfterReader{r: strings.NewReader("abc\n")}
	got := FromReader(nil, r)
	want := []string{"abc"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want partial result %v", got, want)
	}
}

func TestFromReader_ImmediateError(t *testing.T) {
	r := &errAfterReader{done: true}
	got := FromReader(nil, r)
	if len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}
}

func TestFromReader_EmptyStream(t *testing.T) {
	got := FromReader(nil, strings.NewReader(""))
	if len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}
}

func TestFromReader_NoTrailingNewline(t *testing.T) {
	got := FromReader(nil, strings.NewReader("last"))
	want := []string{"last"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFromReader_TabsAndCarriageReturns(t *testing.T) {
	got := FromReader(nil, strings.NewReader("\tENG-1\t\r\nENG-2\r\n"))
	want := []string{"ENG-1", "ENG-2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
