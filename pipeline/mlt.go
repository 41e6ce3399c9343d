package pipeline

import (
	"bytes"
	"embed"
	"encoding/xml"
	"fmt"
	"io"
	"text/template"

	"github.com/Masterminds/sprig"
)

//go:embed templates/*.xml
var templateFS embed.FS

type (
	xmlProducer struct {
		ID       string
		Resource string
		Length   int
	}

	xmlPlaylist struct {
		ID      string
		Entries []Entry
	}

	xmlTractor struct {
		ID     string
		Name   string
		Tracks []string
	}

	xmlDocument struct {
		Title       string
		FPS         int
		Main        string
		Producers   []xmlProducer
		ProducerIDs map[string]string
		Playlists   []xmlPlaylist
		Tractors    []xmlTractor
	}
)

// WriteXML writes the graph as an MLT style XML document. One producer is
// emitted per distinct resource, long enough to cover every entry cut from
// it.
func WriteXML(w io.Writer, m *Memory, title string, fps int) error {
	funcs := sprig.TxtFuncMap()
	funcs["xml"] = func(s string) (string, error) {
		var b bytes.Buffer
		if err := xml.EscapeText(&b, []byte(s)); err != nil {
			return "", err
		}
		return b.String(), nil
	}
	tmpl, err := template.New("base").Funcs(funcs).ParseFS(templateFS, "templates/*.xml")
	if err != nil {
		return fmt.Errorf(`could not parse the MLT template: %w`, err)
	}
	doc := xmlDocument{Title: title, FPS: fps, ProducerIDs: map[string]string{}}
	playlistIDs := map[*MemoryPlaylist]string{}
	lengths := map[string]int{}
	for i, p := range m.playlists {
		id := fmt.Sprintf("playlist%d", i)
		playlistIDs[p] = id
		doc.Playlists = append(doc.Playlists, xmlPlaylist{ID: id, Entries: p.entries})
		for _, e := range p.entries {
			if e.Blank {
				continue
			}
			if _, ok := doc.ProducerIDs[e.Resource]; !ok {
				id := fmt.Sprintf("producer%d", len(doc.Producers))
				doc.ProducerIDs[e.Resource] = id
				doc.Producers = append(doc.Producers, xmlProducer{ID: id, Resource: e.Resource})
			}
			lengths[e.Resource] = max(lengths[e.Resource], e.Out+1)
		}
	}
	for i := range doc.Producers {
		doc.Producers[i].Length = lengths[doc.Producers[i].Resource]
	}
	for i, mt := range m.multitracks {
		t := xmlTractor{ID: fmt.Sprintf("tractor%d", i), Name: mt.Name}
		for _, p := range mt.Tracks {
			t.Tracks = append(t.Tracks, playlistIDs[p])
		}
		doc.Tractors = append(doc.Tractors, t)
		doc.Main = t.ID
	}
	if err := tmpl.ExecuteTemplate(w, "mlt.xml", doc); err != nil {
		return fmt.Errorf(`could not execute the MLT template: %w`, err)
	}
	return nil
}
