package enex

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const sampleExport = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE en-export SYSTEM "http://xml.evernote.com/pub/evernote-export4.dtd">
<en-export export-date="20240101T120000Z" application="Evernote" version="10.0">
  <note>
    <title>Grocery List</title>
    <content><![CDATA[<?xml version="1.0" encoding="UTF-8"?><en-note><ul><li>Milk</li></ul></en-note>]]></content>
    <created>20231215T093000Z</created>
    <updated>20231216T101500Z</updated>
    <tag>shopping</tag>
    <tag>home</tag>
    <note-attributes>
      <source-url>https://example.com/list</source-url>
      <author>Pat</author>
      <latitude>40.7128</latitude>
      <longitude>-74.006</longitude>
    </note-attributes>
    <resource>
      <data encoding="base64">aGVsbG8gd29ybGQ=</data>
      <mime>image/png</mime>
      <width>640</width>
      <height>480</height>
      <resource-attributes>
        <file-name>receipt.png</file-name>
      </resource-attributes>
    </resource>
  </note>
</en-export>`

func TestParse_FullNote(t *testing.T) {
	doc, err := Parse(strings.NewReader(sampleExport))
	require.NoError(t, err)
	require.Len(t, doc.Notes, 1)
	require.Empty(t, doc.Skipped)

	note := doc.Notes[0]
	require.Equal(t, "Grocery List", note.Title)
	require.Contains(t, note.Content, "<li>Milk</li>")
	require.Equal(t, []string{"shopping", "home"}, note.Tags)

	require.NotNil(t, note.Created)
	require.Equal(t, time.Date(2023, 12, 15, 9, 30, 0, 0, time.UTC), note.Created.UTC())
	require.NotNil(t, note.Updated)
	require.Equal(t, time.Date(2023, 12, 16, 10, 15, 0, 0, time.UTC), note.Updated.UTC())

	require.NotNil(t, note.Attributes)
	require.Equal(t, "https://example.com/list", note.Attributes.SourceURL)
	require.Equal(t, "Pat", note.Attributes.Author)
	require.NotNil(t, note.Attributes.Latitude)
	require.InDelta(t, 40.7128, *note.Attributes.Latitude, 0.0001)
	require.NotNil(t, note.Attributes.Longitude)
	require.Nil(t, note.Attributes.Altitude)

	require.Len(t, note.Resources, 1)
	res := note.Resources[0]
	require.Equal(t, "aGVsbG8gd29ybGQ=", strings.TrimSpace(res.Data))
	require.Equal(t, "image/png", res.Mime)
	require.Equal(t, 640, res.Width)
	require.Equal(t, 480, res.Height)
	require.Equal(t, "receipt.png", res.FileName)
}

func TestParse_SkipsNotesMissingTitleOrContent(t *testing.T) {
	input := `<en-export>
  <note>
    <title>   </title>
    <content><![CDATA[<en-note>orphan</en-note>]]></content>
  </note>
  <note>
    <title>No Body</title>
  </note>
  <note>
    <title>Kept</title>
    <content><![CDATA[<en-note>ok</en-note>]]></content>
  </note>
</en-export>`
	doc, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, doc.Notes, 1)
	require.Equal(t, "Kept", doc.Notes[0].Title)
	require.Len(t, doc.Skipped, 2)
	require.Contains(t, doc.Skipped[0], "note 1")
	require.Contains(t, doc.Skipped[0], "missing title")
	require.Contains(t, doc.Skipped[1], "No Body")
	require.Contains(t, doc.Skipped[1], "missing content")
}

func TestParse_EmptyContentElementIsNotMissing(t *testing.T) {
	input := `<en-export><note><title>Blank</title><content></content></note></en-export>`
	doc, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, doc.Notes, 1)
	require.Equal(t, "", doc.Notes[0].Content)
}

func TestParse_WrongRootElement(t *testing.T) {
	_, err := Parse(strings.NewReader(`<html><body>nope</body></html>`))
	require.ErrorIs(t, err, ErrNotEnex)
}

func TestParse_MalformedXML(t *testing.T) {
	_, err := Parse(strings.NewReader(`<en-export><note><title>Broken`))
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotEnex)
}

func TestParse_UnknownElementsIgnored(t *testing.T) {
	input := `<en-export>
  <future-metadata><something deep="true"><nested/></something></future-metadata>
  <note>
    <title>Still Works</title>
    <content><![CDATA[<en-note>body</en-note>]]></content>
    <unknown-field>whatever</unknown-field>
  </note>
</en-export>`
	doc, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, doc.Notes, 1)
	require.Equal(t, "Still Works", doc.Notes[0].Title)
}

func TestParse_InvalidTimestampBecomesNil(t *testing.T) {
	input := `<en-export><note>
    <title>Times</title>
    <content><![CDATA[<en-note/>]]></content>
    <created>not-a-date</created>
    <updated>2023-12-15</updated>
  </note></en-export>`
	doc, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, doc.Notes, 1)
	require.Nil(t, doc.Notes[0].Created)
	require.Nil(t, doc.Notes[0].Updated)
}

func TestParse_GarbageNumericFieldsDoNotAbortDocument(t *testing.T) {
	input := `<en-export>
  <note>
    <title>Odd Resource</title>
    <content><![CDATA[<en-note/>]]></content>
    <note-attributes><latitude>not-a-number</latitude></note-attributes>
    <resource><data>QUJD</data><width>abc</width><height>-5</height></resource>
  </note>
  <note>
    <title>Clean</title>
    <content><![CDATA[<en-note/>]]></content>
  </note>
</en-export>`
	doc, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, doc.Notes, 2)
	require.Empty(t, doc.Skipped)

	odd := doc.Notes[0]
	require.Equal(t, "Odd Resource", odd.Title)
	require.NotNil(t, odd.Attributes)
	require.Nil(t, odd.Attributes.Latitude)
	require.Len(t, odd.Resources, 1)
	require.Equal(t, 0, odd.Resources[0].Width)
	require.Equal(t, 0, odd.Resources[0].Height)
	require.Equal(t, "Clean", doc.Notes[1].Title)
}

func TestParse_MissingMimeDefaults(t *testing.T) {
	input := `<en-export><note>
    <title>Res</title>
    <content><![CDATA[<en-note/>]]></content>
    <resource><data>QUJD</data></resource>
    <resource><data>QUJD</data><mime>not a mime</mime></resource>
  </note></en-export>`
	doc, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, doc.Notes, 1)
	require.Len(t, doc.Notes[0].Resources, 2)
	require.Equal(t, "application/octet-stream", doc.Notes[0].Resources[0].Mime)
	require.Equal(t, "application/octet-stream", doc.Notes[0].Resources[1].Mime)
}

func TestParse_MimeLowercased(t *testing.T) {
	input := `<en-export><note>
    <title>Res</title>
    <content><![CDATA[<en-note/>]]></content>
    <resource><data>QUJD</data><mime>Image/PNG</mime></resource>
  </note></en-export>`
	doc, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, "image/png", doc.Notes[0].Resources[0].Mime)
}

func TestParse_EmptyExport(t *testing.T) {
	doc, err := Parse(strings.NewReader(`<en-export export-date="20240101T120000Z"/>`))
	require.NoError(t, err)
	require.Empty(t, doc.Notes)
	require.Empty(t, doc.Skipped)
}

func TestIsValid(t *testing.T) {
	require.True(t, IsValid([]byte(sampleExport)))
	require.True(t, IsValid([]byte(`<EN-EXPORT>`)))
	require.False(t, IsValid([]byte(`<html></html>`)))
	require.False(t, IsValid([]byte{}))
}
