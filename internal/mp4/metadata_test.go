package mp4

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/mp4meta/internal/binary"
	"github.com/simonhull/mp4meta/internal/types"
)

func parseIlstBytes(t *testing.T, items ...[]byte) *types.Tag {
	t.Helper()
	raw := testAtom("ilst", items...)
	sr := newTestReader(raw)
	head, err := parseHead(sr, 0, int64(len(raw)))
	require.NoError(t, err)

	tag := &types.Tag{}
	require.NoError(t, parseIlst(sr, head, allOn(), tag))
	return tag
}

func TestParseIlst_StandardItems(t *testing.T) {
	tag := parseIlstBytes(t,
		testAtom("\xa9nam", dataAtomBytes(1, []byte("Title"))),
		testAtom("\xa9ART", dataAtomBytes(1, []byte("Jane"))),
	)

	require.Len(t, tag.Items, 2)
	assert.Equal(t, types.FourccOf("\xa9nam"), tag.Items[0].Ident)
	assert.Equal(t, []types.Data{types.UTF8("Title")}, tag.Items[0].Data)
	assert.Equal(t, types.FourccOf("\xa9ART"), tag.Items[1].Ident)
}

func TestParseIlst_OrderAndRepeatsPreserved(t *testing.T) {
	tag := parseIlstBytes(t,
		testAtom("\xa9ART", dataAtomBytes(1, []byte("First"))),
		testAtom("\xa9nam", dataAtomBytes(1, []byte("Title"))),
		testAtom("\xa9ART", dataAtomBytes(1, []byte("Second"))),
	)

	require.Len(t, tag.Items, 3)
	assert.Equal(t, "First", tag.Items[0].Data[0].Str)
	assert.Equal(t, types.FourccOf("\xa9nam"), tag.Items[1].Ident)
	assert.Equal(t, "Second", tag.Items[2].Data[0].Str)
}

func TestParseIlst_MultipleValuesPerItem(t *testing.T) {
	tag := parseIlstBytes(t,
		testAtom("covr",
			dataAtomBytes(13, []byte{0xFF, 0xD8}),
			dataAtomBytes(14, []byte{0x89, 'P'}),
		),
	)

	require.Len(t, tag.Items, 1)
	require.Len(t, tag.Items[0].Data, 2)
	assert.Equal(t, types.KindJPEG, tag.Items[0].Data[0].Kind)
	assert.Equal(t, types.KindPNG, tag.Items[0].Data[1].Kind)
}

func TestParseIlst_Freeform(t *testing.T) {
	mean := fullTestAtom("mean", 0, []byte("com.apple.iTunes"))
	name := fullTestAtom("name", 0, []byte("WORK"))
	tag := parseIlstBytes(t,
		testAtom("----", mean, name, dataAtomBytes(1, []byte("Sonata"))),
	)

	require.Len(t, tag.Items, 1)
	assert.Equal(t,
		types.FreeformIdent{Mean: "com.apple.iTunes", Name: "WORK"},
		tag.Items[0].Ident)
	assert.Equal(t, "Sonata", tag.Items[0].Data[0].Str)
}

func TestParseIlst_FreeformWithoutDataDropped(t *testing.T) {
	mean := fullTestAtom("mean", 0, []byte("com.example"))
	name := fullTestAtom("name", 0, []byte("EMPTY"))
	tag := parseIlstBytes(t, testAtom("----", mean, name))

	assert.Empty(t, tag.Items)
	assert.Empty(t, tag.Warnings)
}

func TestParseIlst_MalformedEntryDroppedWithWarning(t *testing.T) {
	bad := testAtom("\xa9cmt", dataAtomBytes(1, []byte{0xFF, 0xFE}))
	tag := parseIlstBytes(t,
		testAtom("\xa9nam", dataAtomBytes(1, []byte("Keeps"))),
		bad,
		testAtom("\xa9alb", dataAtomBytes(1, []byte("Going"))),
	)

	require.Len(t, tag.Items, 2)
	assert.Equal(t, "Keeps", tag.Items[0].Data[0].Str)
	assert.Equal(t, "Going", tag.Items[1].Data[0].Str)

	require.Len(t, tag.Warnings, 1)
	assert.Equal(t, "metadata", tag.Warnings[0].Stage)
	assert.Contains(t, tag.Warnings[0].Message, "dropped item")
}

func TestParseIlst_FreeAtomsIgnored(t *testing.T) {
	tag := parseIlstBytes(t,
		testAtom("free", make([]byte, 6)),
		testAtom("\xa9nam", dataAtomBytes(1, []byte("Title"))),
	)

	require.Len(t, tag.Items, 1)
}

func TestIlstPayload_RoundTrip(t *testing.T) {
	items := []types.MetaItem{
		{Ident: types.FourccOf("\xa9nam"), Data: []types.Data{types.UTF8("Title")}},
		{
			Ident: types.FreeformIdent{Mean: "com.apple.iTunes", Name: "WORK"},
			Data:  []types.Data{types.UTF16("Sonata")},
		},
		{Ident: types.FourccOf("covr"), Data: []types.Data{types.JPEG([]byte{0xFF, 0xD8})}},
		{Ident: types.FourccOf("pgap"), Data: []types.Data{types.Bool(true)}},
	}

	payload, err := ilstPayload(items)
	require.NoError(t, err)

	tag := parseIlstBytes(t, payload)
	require.Len(t, tag.Items, len(items))
	for i, want := range items {
		assert.Equal(t, want.Ident, tag.Items[i].Ident)
		require.Len(t, tag.Items[i].Data, len(want.Data))
		for j := range want.Data {
			assert.True(t, want.Data[j].Equal(tag.Items[i].Data[j]))
		}
	}
}

func TestIlstPayload_SkipsEmptyItems(t *testing.T) {
	payload, err := ilstPayload([]types.MetaItem{
		{Ident: types.FourccOf("\xa9nam")},
	})
	require.NoError(t, err)
	assert.Empty(t, payload)
}

func TestMetaItemLen_MatchesSerialization(t *testing.T) {
	item := types.MetaItem{
		Ident: types.FreeformIdent{Mean: "com.example", Name: "X"},
		Data:  []types.Data{types.UTF8("v"), types.BeSigned([]byte{1, 2})},
	}

	want, err := metaItemLen(item)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeMetaItem(binary.NewSafeWriter(&buf), item))
	assert.Equal(t, want, uint64(buf.Len()))
}
