package pipeline_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/flowblade/flowcut/pipeline"
)

func TestMemoryPlaylist(t *testing.T) {
	g := pipeline.NewMemory()
	p, err := g.NewPlaylist("V1")
	if err != nil {
		t.Fatalf("NewPlaylist failed: %v", err)
	}
	if err := p.Insert(0, pipeline.Entry{Clip: 1, Resource: "a.mp4", In: 0, Out: 99}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := p.Insert(0, pipeline.Entry{Clip: 2, Blank: true, In: 0, Out: 9}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if c := p.Count(); c != 2 {
		t.Errorf("Count = %d, want 2", c)
	}
	if l := p.Length(); l != 110 {
		t.Errorf("Length = %d, want 110", l)
	}
	if err := p.Insert(5, pipeline.Entry{Resource: "b.mp4"}); !errors.Is(err, pipeline.ErrIndexOutOfRange) {
		t.Errorf("Insert past the end: got %v, want ErrIndexOutOfRange", err)
	}
	if err := p.Remove(0); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	e, err := p.Entry(0)
	if err != nil {
		t.Fatalf("Entry failed: %v", err)
	}
	if e.Clip != 1 || e.Length() != 100 {
		t.Errorf("unexpected entry after removal: %v", e)
	}
	if err := p.Remove(1); !errors.Is(err, pipeline.ErrIndexOutOfRange) {
		t.Errorf("Remove past the end: got %v, want ErrIndexOutOfRange", err)
	}
}

func TestWriteXML(t *testing.T) {
	g := pipeline.NewMemory()
	v1, _ := g.NewPlaylist("V1")
	a1, _ := g.NewPlaylist("A1")
	v1.Insert(0, pipeline.Entry{Clip: 1, Resource: "shots/a&b.mp4", In: 10, Out: 49})
	v1.Insert(1, pipeline.Entry{Clip: 2, Blank: true, In: 0, Out: 4})
	v1.Insert(2, pipeline.Entry{Clip: 3, Resource: "shots/a&b.mp4", In: 100, Out: 149})
	a1.Insert(0, pipeline.Entry{Clip: 4, Resource: "music.wav", In: 0, Out: 24})
	if err := g.NewMultitrack("main", []pipeline.Playlist{a1, v1}); err != nil {
		t.Fatalf("NewMultitrack failed: %v", err)
	}
	var b bytes.Buffer
	if err := pipeline.WriteXML(&b, g, "demo", 25); err != nil {
		t.Fatalf("WriteXML failed: %v", err)
	}
	out := b.String()
	for _, want := range []string{
		`<producer id="producer0" in="0" out="149">`,
		`<property name="resource">shots/a&amp;b.mp4</property>`,
		`<entry producer="producer0" in="100" out="149"/>`,
		`<blank length="5"/>`,
		`<entry producer="producer1" in="0" out="24"/>`,
		`<track producer="playlist1"/>`,
		`producer="tractor0"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("XML output does not contain %q:\n%s", want, out)
		}
	}
}
