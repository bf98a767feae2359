// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ast

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleJSON mirrors pandoc output for:
//
//	```text
//	FAKE [x]{.comment-start id="999"}
//	```
//
//	Real [anchor]{.comment-start id="10" author="A"} text[]{.comment-end id="10"}.
const sampleJSON = `{"pandoc-api-version":[1,23,1],"meta":{},"blocks":[
{"t":"CodeBlock","c":[["",["text"],[]],"FAKE [x]{.comment-start id=\"999\"}"]},
{"t":"Para","c":[
  {"t":"Str","c":"Real"},{"t":"Space"},
  {"t":"Span","c":[["",["comment-start"],[["id","10"],["author","A"]]],[{"t":"Str","c":"anchor"}]]},
  {"t":"Space"},{"t":"Str","c":"text"},
  {"t":"Span","c":[["",["comment-end"],[["id","10"]]],[]]},
  {"t":"Str","c":"."}
]},
{"t":"OrderedList","c":[[3,{"t":"Decimal"},{"t":"Period"}],[[{"t":"Plain","c":[{"t":"Code","c":[["",[],[]],"inline"]}]}]]]}
]}`

func decodeSample(t *testing.T) *Document {
	t.Helper()
	doc, err := Decode([]byte(sampleJSON))
	require.NoError(t, err)
	return doc
}

func TestDecodeEncodePreservesTree(t *testing.T) {
	doc := decodeSample(t)
	assert.Equal(t, []int{1, 23, 1}, doc.APIVersion)
	require.Len(t, doc.Blocks, 3)

	out, err := Encode(doc)
	require.NoError(t, err)

	var want, got any
	require.NoError(t, json.Unmarshal([]byte(sampleJSON), &want))
	require.NoError(t, json.Unmarshal(out, &got))
	assert.Equal(t, want, got)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("not json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding pandoc JSON")
}

func TestEncodeFillsMissingMeta(t *testing.T) {
	out, err := Encode(&Document{APIVersion: []int{1, 23}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"pandoc-api-version":[1,23],"meta":{},"blocks":[]}`, string(out))
}

func TestWalkSkipsLiteralContent(t *testing.T) {
	doc := decodeSample(t)

	var kinds []string
	err := Walk(doc, func(n Node, entering bool) (WalkStatus, error) {
		if entering {
			kinds = append(kinds, n.Kind())
		}
		return WalkContinue, nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		KindCodeBlock,
		KindPara, KindStr, KindSpace, KindSpan, KindStr, KindSpace, KindStr, KindSpan, KindStr,
		KindOrderedList, "Decimal", "Period", KindPlain, KindCode,
	}, kinds)
}

func TestWalkSkipChildrenAndStop(t *testing.T) {
	doc := decodeSample(t)

	var strs []string
	err := Walk(doc, func(n Node, entering bool) (WalkStatus, error) {
		if !entering {
			return WalkContinue, nil
		}
		if n.Kind() == KindSpan {
			return WalkSkipChildren, nil
		}
		if s, ok := n.Text(); ok && n.Kind() == KindStr {
			strs = append(strs, s)
			if s == "text" {
				return WalkStop, nil
			}
		}
		return WalkContinue, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Real", "text"}, strs)
}

func TestWalkVisitsCitationInlines(t *testing.T) {
	const cite = `{"pandoc-api-version":[1,23,1],"meta":{},"blocks":[{"t":"Para","c":[
{"t":"Cite","c":[[{"citationId":"k","citationPrefix":[{"t":"Str","c":"see"}],"citationSuffix":[{"t":"Str","c":"p1"}],
"citationMode":{"t":"NormalCitation"},"citationNoteNum":1,"citationHash":0}],[{"t":"Str","c":"[@k]"}]]}]}]}`
	doc, err := Decode([]byte(cite))
	require.NoError(t, err)

	var strs []string
	require.NoError(t, Walk(doc, func(n Node, entering bool) (WalkStatus, error) {
		if entering && n.Kind() == KindStr {
			s, _ := n.Text()
			strs = append(strs, s)
		}
		return WalkContinue, nil
	}))
	assert.Equal(t, []string{"see", "p1", "[@k]"}, strs)
}

func TestAttrRoundTrip(t *testing.T) {
	doc := decodeSample(t)
	para := Node{obj: doc.Blocks[1].(map[string]any)}
	inlines := para.Content().([]any)
	span := Node{obj: inlines[2].(map[string]any)}

	attr, err := span.Attr()
	require.NoError(t, err)
	assert.True(t, attr.HasClass("comment-start"))
	id, ok := attr.Get("id")
	assert.True(t, ok)
	assert.Equal(t, "10", id)

	assert.False(t, attr.Set("author", "A"), "same value is not a change")
	assert.True(t, attr.Set("author", "B"))
	assert.True(t, attr.Set("state", "resolved"))
	require.NoError(t, span.SetAttr(attr))

	again, err := span.Attr()
	require.NoError(t, err)
	assert.Equal(t, []KeyVal{{"id", "10"}, {"author", "B"}, {"state", "resolved"}}, again.KeyVals)

	assert.Equal(t, 1, again.Delete("state"))
	assert.Equal(t, 0, again.Delete("state"))
	assert.Equal(t, "anchor", Stringify(span.SpanInlines()))
}

func TestAttrDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		attr any
	}{
		{"not a triple", []any{"x"}},
		{"numeric id", []any{json.Number("1"), []any{}, []any{}}},
		{"class not string", []any{"", []any{json.Number("2")}, []any{}}},
		{"pair too short", []any{"", []any{}, []any{[]any{"id"}}}},
		{"pair value not string", []any{"", []any{}, []any{[]any{"id", json.Number("7")}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewNode(KindSpan, []any{tt.attr, []any{}})
			_, err := n.Attr()
			assert.Error(t, err)
		})
	}

	_, err := NewNode(KindStr, "x").Attr()
	assert.Error(t, err)
}

func TestStringify(t *testing.T) {
	doc := decodeSample(t)
	got := Stringify(doc.Blocks)
	assert.Equal(t, "FAKE [x]{.comment-start id=\"999\"}\nReal anchor text.\ninline", got)
}

func TestNewSpan(t *testing.T) {
	n := NewSpan(Attr{Classes: []string{"comment-end"}, KeyVals: []KeyVal{{"id", "4"}}})
	a, err := n.Attr()
	require.NoError(t, err)
	assert.True(t, a.HasClass("comment-end"))
	assert.Empty(t, n.SpanInlines())
}
