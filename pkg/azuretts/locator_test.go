package azuretts

import "testing"

func TestLocatorSkipsMatchesInsideTags(t *testing.T) {
	// "word" appears first as an attribute value inside a tag; the locator
	// must skip it and return the spoken occurrence.
	text := `A <b alt="word"/> word end`
	loc := textLocator{text: text}

	cursor := 0
	pos, ok := loc.locate("word", &cursor)
	if !ok {
		t.Fatal("locate returned no match")
	}
	want := 18
	if pos != want {
		t.Fatalf("locate returned %d, want %d", pos, want)
	}
	if cursor != want+4 {
		t.Fatalf("cursor = %d, want %d", cursor, want+4)
	}
}

func TestLocatorFindsElementContent(t *testing.T) {
	// Spoken text lives between tags; a match in element content is valid.
	text := `<voice name='x'>hello there</voice>`
	loc := textLocator{text: text}

	cursor := 0
	pos, ok := loc.locate("hello", &cursor)
	if !ok {
		t.Fatal("locate returned no match")
	}
	if pos != 16 {
		t.Fatalf("locate returned %d, want 16", pos)
	}

	pos, ok = loc.locate("there", &cursor)
	if !ok {
		t.Fatal("second locate returned no match")
	}
	if pos != 22 {
		t.Fatalf("second locate returned %d, want 22", pos)
	}
}

func TestLocatorEscapesWord(t *testing.T) {
	// The service reports the unescaped word but the stored input carries
	// markup entities.
	text := `<s>you&apos;re here</s>`
	loc := textLocator{text: text}

	cursor := 0
	pos, ok := loc.locate("you're", &cursor)
	if !ok {
		t.Fatal("locate returned no match")
	}
	if pos != 3 {
		t.Fatalf("locate returned %d, want 3", pos)
	}
	if cursor != 3+len("you&apos;re") {
		t.Fatalf("cursor = %d, want %d", cursor, 3+len("you&apos;re"))
	}
}

func TestLocatorNotFound(t *testing.T) {
	loc := textLocator{text: "plain text"}
	cursor := 0
	if _, ok := loc.locate("missing", &cursor); ok {
		t.Fatal("locate found a match for absent word")
	}
}

func TestLocatorCursorMonotonic(t *testing.T) {
	text := "one two one two"
	loc := textLocator{text: text}

	cursor := 0
	first, ok := loc.locate("one", &cursor)
	if !ok || first != 0 {
		t.Fatalf("first locate = %d, %v", first, ok)
	}
	second, ok := loc.locate("one", &cursor)
	if !ok || second != 8 {
		t.Fatalf("second locate = %d, %v", second, ok)
	}
	if _, ok := loc.locate("one", &cursor); ok {
		t.Fatal("third locate should not find another occurrence")
	}
}

func TestLocatorUnclosedTag(t *testing.T) {
	// The candidate sits after an unclosed '<'; with no closing '>' there
	// can be no further match.
	loc := textLocator{text: "before <tag word"}
	cursor := 0
	if pos, ok := loc.locate("word", &cursor); ok {
		t.Fatalf("locate found %d inside unclosed tag", pos)
	}
}
