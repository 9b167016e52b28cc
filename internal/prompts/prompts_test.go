package prompts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadStylesJSONKeepsFileOrder(t *testing.T) {
	path := writeFile(t, "styles.json", `{
		"Watercolor": {"prompt": "watercolor painting of {prompt}", "negative_prompt": "photo"},
		"Anime": {"prompt": "anime style", "negative_prompt": "realistic"},
		"Baroque": {"prompt": "{prompt}, baroque", "negative_prompt": ""}
	}`)

	lib := LoadStyles(path, nil)

	assert.Equal(t, []string{"Watercolor", "Anime", "Baroque"}, lib.Names())
	p, ok := lib.Lookup("Anime")
	require.True(t, ok)
	assert.Equal(t, "Anime", p.Name)
	assert.Equal(t, "anime style", p.Prompt)
	assert.Equal(t, "realistic", p.NegativePrompt)
}

func TestLoadStylesYAML(t *testing.T) {
	path := writeFile(t, "styles.yaml", `
Zen:
  prompt: "{prompt}, ink wash"
  negative_prompt: color
Alpha:
  prompt: pixel art
`)

	lib := LoadStyles(path, nil)

	assert.Equal(t, []string{"Zen", "Alpha"}, lib.Names())
	p, ok := lib.Lookup("Alpha")
	require.True(t, ok)
	assert.Equal(t, "pixel art", p.Prompt)
	assert.Empty(t, p.NegativePrompt)
}

func TestLoadStylesFailuresAreNotFatal(t *testing.T) {
	cases := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"missing", func(t *testing.T) string { return filepath.Join(t.TempDir(), "none.json") }},
		{"malformed json", func(t *testing.T) string { return writeFile(t, "styles.json", `{"a": `) }},
		{"json array", func(t *testing.T) string { return writeFile(t, "styles.json", `["a", "b"]`) }},
		{"json null", func(t *testing.T) string { return writeFile(t, "styles.json", `null`) }},
		{"malformed yaml", func(t *testing.T) string { return writeFile(t, "styles.yml", "a: [b") }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			lib := LoadStyles(tc.path(t), nil)
			assert.Equal(t, 0, lib.Len())
			assert.Empty(t, lib.Names())
			_, ok := lib.Lookup("a")
			assert.False(t, ok)
		})
	}
}

func TestStyleLibraryNamesHaveNoDuplicates(t *testing.T) {
	lib := NewStyleLibrary(
		StylePreset{Name: "a", Prompt: "first"},
		StylePreset{Name: "b"},
		StylePreset{Name: "a", Prompt: "second"},
	)

	assert.Equal(t, []string{"a", "b"}, lib.Names())
	p, _ := lib.Lookup("a")
	assert.Equal(t, "second", p.Prompt)
}

func TestMergeStyle(t *testing.T) {
	cases := []struct {
		name      string
		style     *StylePreset
		keywords  string
		negatives string
		wantPos   string
		wantNeg   string
	}{
		{
			name:     "placeholder substitution",
			style:    &StylePreset{Prompt: "{prompt}, oil painting", NegativePrompt: "ugly"},
			keywords: "a fox", negatives: "blurry",
			wantPos: "a fox, oil painting", wantNeg: "ugly, blurry",
		},
		{
			name:     "concatenation without placeholder",
			style:    &StylePreset{Prompt: "cinematic still", NegativePrompt: "ugly"},
			keywords: "a fox",
			wantPos:  "cinematic still, a fox", wantNeg: "ugly",
		},
		{
			name:     "no style",
			keywords: "a fox", negatives: "blurry",
			wantPos: "a fox", wantNeg: "blurry",
		},
		{
			name:    "empty keywords without placeholder",
			style:   &StylePreset{Prompt: "cinematic still", NegativePrompt: "ugly"},
			wantPos: "cinematic still", wantNeg: "ugly",
		},
		{
			name:     "empty style negative",
			style:    &StylePreset{Prompt: "{prompt}"},
			keywords: "a fox",
			wantPos:  "a fox", wantNeg: "",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := MergeStyle(tc.style, tc.keywords, tc.negatives)
			assert.Equal(t, tc.wantPos, got.Positive)
			assert.Equal(t, tc.wantNeg, got.Negative)
		})
	}
}

func TestBuildInstruction(t *testing.T) {
	withNeg := BuildInstruction("a fox", Bases{Positive: "a fox, oil painting", Negative: "ugly"})
	assert.Contains(t, withNeg, `keywords: "a fox"`)
	assert.Contains(t, withNeg, `"a fox, oil painting"`)
	assert.Contains(t, withNeg, `negative keywords: "ugly"`)
	assert.Contains(t, withNeg, `"---NEGATIVE---"`)
	assert.NotContains(t, withNeg, "{{")

	noNeg := BuildInstruction("a fox", Bases{Positive: "a fox"})
	assert.Contains(t, noNeg, "between 5 and 20 words")
}

func TestTemplateRenderLeavesUnknownPlaceholders(t *testing.T) {
	tmpl := &Template{Content: "{{known}} and {{unknown}}"}
	assert.Equal(t, "x and {{unknown}}", tmpl.Render(map[string]string{"known": "x"}))
}

func TestSplitResponse(t *testing.T) {
	cases := []struct {
		name    string
		text    string
		wantPos string
		wantNeg string
	}{
		{"round trip", "A cat in space---NEGATIVE---blurry, low quality", "A cat in space", "blurry, low quality"},
		{"trims whitespace", "\n  A cat in space \n---NEGATIVE---\n blurry \n", "A cat in space", "blurry"},
		{"missing delimiter", "just a prompt", "just a prompt", ""},
		{"extra delimiter", "a---NEGATIVE---b---NEGATIVE---c", "a", "b"},
		{"empty", "", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pos, neg := SplitResponse(tc.text)
			assert.Equal(t, tc.wantPos, pos)
			assert.Equal(t, tc.wantNeg, neg)
		})
	}
}
