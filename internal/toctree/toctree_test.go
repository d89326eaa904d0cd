package toctree

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const englishToctree = `- title: Get started
  isExpanded: true
  sections:
  - local: index
    title: Transformers
  - local: installation
    title: Installation
  - local: quicktour
    title: Quickstart
- title: Task recipes
  sections:
  - local: tasks/asr
    title: Automatic speech recognition
`

const koreanToctree = `- title: 시작하기
  isExpanded: true
  sections:
  - local: index
    title: Transformers
  - local: quicktour
    title: 빠른 시작
`

func staticTranslator(m map[string]string) TitleTranslator {
	return func(title string) (string, error) {
		if t, ok := m[title]; ok {
			return t, nil
		}
		return "", errors.New("no translation for " + title)
	}
}

func TestParseAndSerializeRoundTrip(t *testing.T) {
	tree, err := Parse([]byte(englishToctree))
	require.NoError(t, err)
	require.Len(t, tree, 2)
	assert.Equal(t, "Get started", tree[0].Title)
	assert.True(t, tree[0].IsExpanded)
	require.Len(t, tree[0].Sections, 3)
	assert.Equal(t, "installation", tree[0].Sections[1].Local)

	data, err := Serialize(tree)
	require.NoError(t, err)

	again, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, tree, again)
}

func TestFindTitleForLocal(t *testing.T) {
	tree, err := Parse([]byte(englishToctree))
	require.NoError(t, err)

	assert.Equal(t, "Installation", FindTitleForLocal(tree, "installation"))
	assert.Equal(t, "Automatic speech recognition", FindTitleForLocal(tree, "tasks/asr"))
	assert.Equal(t, "", FindTitleForLocal(tree, "missing"))
}

func TestExtractTitleMappings(t *testing.T) {
	en, err := Parse([]byte(englishToctree))
	require.NoError(t, err)
	ko, err := Parse([]byte(koreanToctree))
	require.NoError(t, err)

	mappings := ExtractTitleMappings(en, ko)

	// index aligns at position 0 in both trees; quicktour sits at different
	// indices so positional correlation must not map it.
	assert.Equal(t, "Transformers", mappings["Transformers"])
	_, ok := mappings["Quickstart"]
	assert.False(t, ok)
}

func TestMergeEntryIntoExistingSection(t *testing.T) {
	en, err := Parse([]byte(englishToctree))
	require.NoError(t, err)
	ko, err := Parse([]byte(koreanToctree))
	require.NoError(t, err)

	translate := staticTranslator(map[string]string{
		"Get started":  "시작하기",
		"Installation": "설치",
	})

	merged, err := MergeEntry(en, ko, "installation", translate)
	require.NoError(t, err)
	require.Len(t, merged, 1)

	sections := merged[0].Sections
	require.Len(t, sections, 3)
	// "installation" holds index 1 in the English section and must land there.
	assert.Equal(t, "index", sections[0].Local)
	assert.Equal(t, "installation", sections[1].Local)
	assert.Equal(t, "설치", sections[1].Title)
	assert.Equal(t, "quicktour", sections[2].Local)
}

func TestMergeEntryCreatesMissingSection(t *testing.T) {
	en, err := Parse([]byte(englishToctree))
	require.NoError(t, err)
	ko, err := Parse([]byte(koreanToctree))
	require.NoError(t, err)

	translate := staticTranslator(map[string]string{
		"Task recipes":                 "태스크 레시피",
		"Automatic speech recognition": "자동 음성 인식",
	})

	merged, err := MergeEntry(en, ko, "tasks/asr", translate)
	require.NoError(t, err)
	require.Len(t, merged, 2)

	created := merged[1]
	assert.Equal(t, "태스크 레시피", created.Title)
	require.Len(t, created.Sections, 1)
	assert.Equal(t, "tasks/asr", created.Sections[0].Local)
	assert.Equal(t, "자동 음성 인식", created.Sections[0].Title)
}

func TestMergeEntryReusesExistingMapping(t *testing.T) {
	en, err := Parse([]byte(englishToctree))
	require.NoError(t, err)
	_, err = Parse([]byte(koreanToctree))
	require.NoError(t, err)

	calls := 0
	translate := func(title string) (string, error) {
		calls++
		return "", errors.New("translator must not run for mapped titles")
	}

	// "Transformers" already maps across trees, so no LLM call is needed for
	// the title itself; matchSection still resolves "Get started" verbatim
	// only when titles match, which they don't here, so seed the mapping via
	// a tree whose section titles align.
	koAligned, err := Parse([]byte(`- title: Get started
  isExpanded: true
  sections:
  - local: index
    title: Transformers
`))
	require.NoError(t, err)

	merged, err := MergeEntry(en, koAligned, "index", translate)
	require.NoError(t, err)
	require.Len(t, merged, 1)
	// The entry already existed, so it is replaced in place, not duplicated.
	require.Len(t, merged[0].Sections, 1)
	assert.Equal(t, "index", merged[0].Sections[0].Local)
	assert.Equal(t, "Transformers", merged[0].Sections[0].Title)
	assert.Zero(t, calls)
}

func TestMergeEntryUnknownLocalAppendsAtRoot(t *testing.T) {
	en, err := Parse([]byte(englishToctree))
	require.NoError(t, err)
	ko, err := Parse([]byte(koreanToctree))
	require.NoError(t, err)

	translate := staticTranslator(map[string]string{
		"Perf Infer Gpu One": "GPU 추론 성능",
	})

	merged, err := MergeEntry(en, ko, "perf_infer_gpu_one", translate)
	require.NoError(t, err)
	require.Len(t, merged, 2)
	assert.Equal(t, "perf_infer_gpu_one", merged[1].Local)
	assert.Equal(t, "GPU 추론 성능", merged[1].Title)
}

func TestMergeEntryTranslatorFailure(t *testing.T) {
	en, err := Parse([]byte(englishToctree))
	require.NoError(t, err)
	ko, err := Parse([]byte(koreanToctree))
	require.NoError(t, err)

	translate := func(string) (string, error) { return "", errors.New("llm down") }

	_, err = MergeEntry(en, ko, "installation", translate)
	assert.Error(t, err)
}
