package feed

// Normalize maps a raw entry to its canonical form. Entries without a title are
// dropped: ok is false and the caller must not count them.
func Normalize(raw RawEntry) (entry Entry, ok bool) {
	if raw.Title == "" {
		return Entry{}, false
	}

	content := raw.Summary
	if len(raw.Contents) > 0 {
		content = raw.Contents[0].Value
	}

	guid := raw.ID
	if guid == "" {
		guid = raw.Link
	}

	return Entry{
		Title:     raw.Title,
		Content:   content,
		Author:    raw.Author,
		Link:      raw.Link,
		GUID:      guid,
		Published: raw.Published,
		Tags:      NormalizeTags(raw.Tags),
	}, true
}
