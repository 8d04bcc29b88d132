package feed

import (
	"fmt"
	"unicode/utf8"

	"github.com/lysyi3m/story-comb/app/database"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// ContentDiff is the stored form of an edited story: the fixed baseline and a
// delta that rebuilds the new text from it.
type ContentDiff struct {
	Baseline   string
	Delta      string
	Insertions int
	Deletions  int
}

type Differ struct {
	dmp *diffmatchpatch.DiffMatchPatch
}

func NewDiffer() *Differ {
	return &Differ{
		dmp: diffmatchpatch.New(),
	}
}

// Run diffs content against the story's baseline: its original content when
// one was recorded, otherwise its current content.
func (d *Differ) Run(story database.StoryRef, content string) ContentDiff {
	baseline := story.Content
	if story.OriginalContent != nil {
		baseline = *story.OriginalContent
	}

	diffs := d.dmp.DiffMain(baseline, content, false)
	diffs = d.dmp.DiffCleanupSemantic(diffs)

	result := ContentDiff{
		Baseline: baseline,
		Delta:    d.dmp.DiffToDelta(diffs),
	}
	for _, diff := range diffs {
		switch diff.Type {
		case diffmatchpatch.DiffInsert:
			result.Insertions += utf8.RuneCountInString(diff.Text)
		case diffmatchpatch.DiffDelete:
			result.Deletions += utf8.RuneCountInString(diff.Text)
		}
	}

	return result
}

// Apply rebuilds the text a delta produced from baseline
func (d *Differ) Apply(baseline, delta string) (string, error) {
	diffs, err := d.dmp.DiffFromDelta(baseline, delta)
	if err != nil {
		return "", fmt.Errorf("failed to decode content diff: %w", err)
	}
	return d.dmp.DiffText2(diffs), nil
}
